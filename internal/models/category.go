// Package models provides the data structures shared by the categorization
// engine, the finance assistant and the HTTP boundary.
package models

import "strings"

// Category is a member of the closed financial category enumeration.
// CategoryUncategorized is the universal safe default.
type Category string

// Income
const (
	CategorySalary      Category = "salary"
	CategoryOtherIncome Category = "other_income"
)

// Housing
const (
	CategoryRent      Category = "rent"
	CategoryMortgage  Category = "mortgage"
	CategoryUtilities Category = "utilities"
	CategoryInsurance Category = "insurance"
)

// Food and drink
const (
	CategoryGroceries   Category = "groceries"
	CategoryRestaurants Category = "restaurants"
	CategoryCoffeeShops Category = "coffee_shops"
)

// Transportation
const (
	CategoryGas                  Category = "gas"
	CategoryPublicTransportation Category = "public_transportation"
	CategoryParking              Category = "parking"
	CategoryAutoMaintenance      Category = "auto_maintenance"
)

// Shopping
const (
	CategoryGeneralMerchandise Category = "general_merchandise"
	CategoryClothing           Category = "clothing"
	CategoryElectronics        Category = "electronics"
)

// Entertainment
const (
	CategoryMovies        Category = "movies"
	CategoryMusic         Category = "music"
	CategorySubscriptions Category = "subscriptions"
)

// Health
const (
	CategoryMedical  Category = "medical"
	CategoryPharmacy Category = "pharmacy"
	CategoryFitness  Category = "fitness"
)

// Financial
const (
	CategoryBankFees    Category = "bank_fees"
	CategoryTransfer    Category = "transfer"
	CategoryInvestments Category = "investments"
)

// Other
const (
	CategoryTravel        Category = "travel"
	CategoryEducation     Category = "education"
	CategoryCharity       Category = "charity"
	CategoryGifts         Category = "gifts"
	CategoryPersonalCare  Category = "personal_care"
	CategoryUncategorized Category = "uncategorized"
)

var allCategories = []Category{
	CategorySalary,
	CategoryOtherIncome,
	CategoryRent,
	CategoryMortgage,
	CategoryUtilities,
	CategoryInsurance,
	CategoryGroceries,
	CategoryRestaurants,
	CategoryCoffeeShops,
	CategoryGas,
	CategoryPublicTransportation,
	CategoryParking,
	CategoryAutoMaintenance,
	CategoryGeneralMerchandise,
	CategoryClothing,
	CategoryElectronics,
	CategoryMovies,
	CategoryMusic,
	CategorySubscriptions,
	CategoryMedical,
	CategoryPharmacy,
	CategoryFitness,
	CategoryBankFees,
	CategoryTransfer,
	CategoryInvestments,
	CategoryTravel,
	CategoryEducation,
	CategoryCharity,
	CategoryGifts,
	CategoryPersonalCare,
	CategoryUncategorized,
}

var categoryIndex = func() map[string]Category {
	idx := make(map[string]Category, len(allCategories))
	for _, c := range allCategories {
		idx[string(c)] = c
	}
	return idx
}()

// AllCategories returns every member of the enumeration in declaration order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// ParseCategory looks up a category by its value, ignoring case and
// surrounding whitespace. Upper-case enum names such as "GROCERIES" are accepted.
func ParseCategory(value string) (Category, bool) {
	c, ok := categoryIndex[strings.ToLower(strings.TrimSpace(value))]
	return c, ok
}

// CoerceCategory maps any string into the enumeration, falling back to
// CategoryUncategorized for unknown values.
func CoerceCategory(value string) Category {
	if c, ok := ParseCategory(value); ok {
		return c
	}
	return CategoryUncategorized
}

// IsValid reports whether c is a member of the enumeration.
func (c Category) IsValid() bool {
	_, ok := categoryIndex[string(c)]
	return ok
}

func (c Category) String() string {
	return string(c)
}
