package common

import (
	"context"

	"intellifinance/fincat/internal/categorizer"
	"intellifinance/fincat/internal/logging"
	"intellifinance/fincat/internal/models"
	"intellifinance/fincat/internal/parsererror"
)

// BatchDecider categorizes many records at once.
type BatchDecider interface {
	PredictBatch(ctx context.Context, recs []models.TransactionRecord) []categorizer.Decision
}

// CategorizeRows runs every row through the decider and tracks which stage
// answered. Rows with an unparseable amount are rejected before any
// categorization happens.
func CategorizeRows(
	ctx context.Context,
	rows []TransactionRow,
	decider BatchDecider,
	logger logging.Logger,
	input string,
) ([]DecisionRow, *models.CategorizationStats, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	recs := make([]models.TransactionRecord, len(rows))
	for i, row := range rows {
		rec, err := row.Record()
		if err != nil {
			return nil, nil, &parsererror.RowError{Row: i + 1, Err: err}
		}
		recs[i] = rec
	}

	decisions := decider.PredictBatch(ctx, recs)

	stats := models.NewCategorizationStats()
	out := make([]DecisionRow, len(rows))
	for i, d := range decisions {
		stats.Record(string(d.Source), d.Category)
		out[i] = NewDecisionRow(rows[i], d)
		logger.Debug("Transaction categorized",
			logging.F(logging.FieldDescription, recs[i].Description),
			logging.F(logging.FieldCategory, d.Category),
			logging.F(logging.FieldSource, d.Source),
			logging.F(logging.FieldConfidence, d.Confidence))
	}

	stats.LogSummary(logger, input)
	return out, stats, nil
}
