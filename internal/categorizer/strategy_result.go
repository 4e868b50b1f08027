package categorizer

import (
	"fmt"
	"strings"

	"intellifinance/fincat/internal/models"
)

// StrategyResult records one stage's attempt during a decision.
type StrategyResult struct {
	Strategy   Source
	Category   models.Category
	Confidence float64
	Accepted   bool
	Err        error
}

// StrategyResults aggregates the attempts of a single decision.
type StrategyResults struct {
	Results []StrategyResult
}

func (sr *StrategyResults) add(r StrategyResult) {
	sr.Results = append(sr.Results, r)
}

// Errors returns every error encountered, prefixed with its stage.
func (sr StrategyResults) Errors() []error {
	var errs []error
	for _, result := range sr.Results {
		if result.Err != nil {
			errs = append(errs, fmt.Errorf("%s strategy: %w", result.Strategy, result.Err))
		}
	}
	return errs
}

// Summary returns a compact description of the attempts for logging.
func (sr StrategyResults) Summary() string {
	var parts []string
	for _, result := range sr.Results {
		status := "below_threshold"
		switch {
		case result.Err == errPrimaryUntrained:
			status = "skipped"
		case result.Err != nil:
			status = "failed"
		case result.Accepted:
			status = "accepted"
		}
		parts = append(parts, fmt.Sprintf("%s:%s(%.2f)", result.Strategy, status, result.Confidence))
	}
	return strings.Join(parts, ", ")
}
