// Package currencyutils parses the amount formats found in bank exports.
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyMarks = regexp.MustCompile(`(?i)CHF|EUR|USD|GBP|[€$£¥₣₤₧₹₺₽₩฿₫₲₴₸₼₪\s]`)

// ParseAmount parses a string representation of an amount into a decimal value.
// It handles various formats like "1,234.56", "1.234,56", "1234.56", "1234,56".
// An empty string is zero.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	standardized := StandardizeAmount(amountStr)
	if standardized == "" {
		return decimal.Zero, nil
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	return amount, nil
}

// StandardizeAmount converts various currency string formats to a standard format that can be parsed by decimal.NewFromString
// Handles patterns like "CHF 1'234.56", "€1.234,56", "$1,234.56", "1 234,56", etc.
func StandardizeAmount(amountStr string) string {
	amountStr = currencyMarks.ReplaceAllString(amountStr, "")

	// Accounting negatives: (12.50)
	if strings.HasPrefix(amountStr, "(") && strings.HasSuffix(amountStr, ")") {
		amountStr = "-" + strings.TrimSuffix(strings.TrimPrefix(amountStr, "("), ")")
	}

	// Apostrophes are Swiss thousand separators (1'234.56)
	amountStr = strings.ReplaceAll(amountStr, "'", "")

	hasComma := strings.Contains(amountStr, ",")
	hasDot := strings.Contains(amountStr, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(amountStr, ".") < strings.LastIndex(amountStr, ",") {
			// European format (1.234,56)
			amountStr = strings.ReplaceAll(amountStr, ".", "")
			amountStr = strings.ReplaceAll(amountStr, ",", ".")
		} else {
			// US format (1,234.56)
			amountStr = strings.ReplaceAll(amountStr, ",", "")
		}
	case hasComma:
		parts := strings.Split(amountStr, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			// Decimal comma (1234,56)
			amountStr = strings.ReplaceAll(amountStr, ",", ".")
		} else {
			// Thousand separators (1,234 or 1,234,567)
			amountStr = strings.ReplaceAll(amountStr, ",", "")
		}
	}
	return amountStr
}
