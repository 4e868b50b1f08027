package models

import (
	"intellifinance/fincat/internal/logging"
)

// CategorizationStats tracks which stage answered during a batch run.
type CategorizationStats struct {
	Total         int // Total number of transactions processed
	Primary       int // Answered by the trained model
	Fallback      int // Answered by the zero-shot classifier
	Uncategorized int // Left UNCATEGORIZED
	ByCategory    map[Category]int
}

// NewCategorizationStats creates an empty CategorizationStats.
func NewCategorizationStats() *CategorizationStats {
	return &CategorizationStats{ByCategory: make(map[Category]int)}
}

// Record counts one decision. source is "primary", "fallback" or anything
// else for the default path.
func (cs *CategorizationStats) Record(source string, category Category) {
	cs.Total++
	if cs.ByCategory == nil {
		cs.ByCategory = make(map[Category]int)
	}
	cs.ByCategory[category]++
	if category == CategoryUncategorized {
		cs.Uncategorized++
	}
	switch source {
	case "primary":
		cs.Primary++
	case "fallback":
		cs.Fallback++
	}
}

// GetSuccessRate returns the share of transactions given a real category,
// as a percentage.
func (cs CategorizationStats) GetSuccessRate() float64 {
	if cs.Total == 0 {
		return 0.0
	}
	return float64(cs.Total-cs.Uncategorized) / float64(cs.Total) * 100.0
}

// LogSummary logs a summary of categorization statistics.
func (cs CategorizationStats) LogSummary(logger logging.Logger, input string) {
	if logger == nil {
		return
	}

	logger.Info("Categorization summary",
		logging.Field{Key: logging.FieldInputFile, Value: input},
		logging.Field{Key: "total_transactions", Value: cs.Total},
		logging.Field{Key: "primary", Value: cs.Primary},
		logging.Field{Key: "fallback", Value: cs.Fallback},
		logging.Field{Key: "uncategorized", Value: cs.Uncategorized},
		logging.Field{Key: "success_rate", Value: cs.GetSuccessRate()},
	)
}
