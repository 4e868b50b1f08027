package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionRecord is the input to categorization. An empty MerchantName
// means the merchant is unknown.
type TransactionRecord struct {
	Description   string          `json:"description" yaml:"description"`
	MerchantName  string          `json:"merchant_name" yaml:"merchant_name"`
	Amount        decimal.Decimal `json:"amount" yaml:"amount"`
	CategoryHints []string        `json:"category_hints,omitempty" yaml:"category_hints,omitempty"`
}

// IsBlank reports whether the record carries no usable text.
func (r TransactionRecord) IsBlank() bool {
	return strings.TrimSpace(r.Description) == "" && strings.TrimSpace(r.MerchantName) == ""
}

// LabeledTransaction is a TransactionRecord with a known category, used as
// training data and as user feedback.
type LabeledTransaction struct {
	TransactionRecord `yaml:",inline"`
	Category          Category `json:"category" yaml:"category"`
}

// ClassificationResult is a classifier's top prediction. Confidence is a
// relative score in [0,1], not a calibrated probability.
type ClassificationResult struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
}

// Uncategorized is the zero-confidence default result.
func Uncategorized() ClassificationResult {
	return ClassificationResult{Category: CategoryUncategorized, Confidence: 0}
}

// ZeroShotResult is the top label chosen by a zero-shot classifier from a
// candidate label set, with its score in [0,1].
type ZeroShotResult struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}
