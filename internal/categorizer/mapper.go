package categorizer

import (
	"strings"

	"intellifinance/fincat/internal/models"
)

// CandidateLabels are the generic phrases offered to the zero-shot classifier.
var CandidateLabels = []string{
	"groceries and food",
	"restaurants and dining",
	"transportation and gas",
	"shopping and retail",
	"utilities and bills",
	"entertainment",
	"healthcare and medical",
	"financial services",
	"travel",
	"education",
	"charity and donations",
	"other expenses",
}

var zeroShotCategories = map[string]models.Category{
	"groceries and food":     models.CategoryGroceries,
	"restaurants and dining": models.CategoryRestaurants,
	"transportation and gas": models.CategoryGas,
	"shopping and retail":    models.CategoryGeneralMerchandise,
	"utilities and bills":    models.CategoryUtilities,
	"entertainment":          models.CategoryMovies,
	"healthcare and medical": models.CategoryMedical,
	"financial services":     models.CategoryBankFees,
	"travel":                 models.CategoryTravel,
	"education":              models.CategoryEducation,
	"charity and donations":  models.CategoryCharity,
	"other expenses":         models.CategoryUncategorized,
}

// MapZeroShotLabel translates a zero-shot label into a category. Matching
// ignores case and surrounding space; unknown labels map to UNCATEGORIZED.
func MapZeroShotLabel(label string) models.Category {
	if c, ok := zeroShotCategories[strings.ToLower(strings.TrimSpace(label))]; ok {
		return c
	}
	return models.CategoryUncategorized
}

// FallbackText builds the text sent to the zero-shot classifier.
func FallbackText(description, merchant string) string {
	if strings.TrimSpace(merchant) == "" {
		return description
	}
	return description + " at " + merchant
}
