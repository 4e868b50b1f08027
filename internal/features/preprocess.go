// Package features turns transaction text into TF-IDF feature vectors.
package features

import "strings"

// stopTerms are payment-processing boilerplate removed from transaction text.
// Removal is a literal substring replacement, so "credited" loses its
// "credit" prefix too.
var stopTerms = []string{
	"payment",
	"purchase",
	"transaction",
	"debit",
	"credit",
	"pos",
	"atm",
	"withdrawal",
	"deposit",
	"transfer",
}

// Preprocess normalizes a transaction's description and merchant name into a
// single lower-case string with boilerplate terms removed.
func Preprocess(description, merchant string) string {
	text := strings.ToLower(strings.TrimSpace(description))
	if m := strings.TrimSpace(merchant); m != "" {
		text += " " + strings.ToLower(m)
	}
	for _, term := range stopTerms {
		text = strings.ReplaceAll(text, term, "")
	}
	return strings.TrimSpace(text)
}
