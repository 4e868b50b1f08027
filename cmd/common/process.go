// Package common contains shared functionality for command handlers
package common

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"intellifinance/fincat/internal/common"
	"intellifinance/fincat/internal/logging"
	"intellifinance/fincat/internal/models"
)

// ProcessFile categorizes every row of a transaction CSV and writes the
// decisions to outputFile.
func ProcessFile(ctx context.Context, decider common.BatchDecider, inputFile, outputFile string, log logging.Logger) (*models.CategorizationStats, error) {
	if inputFile == "" || outputFile == "" {
		return nil, fmt.Errorf("both input and output files are required")
	}
	if log == nil {
		log = logging.NewNop()
	}

	rows, err := common.ReadCSVFile[common.TransactionRow](inputFile, log)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no transactions found in %s", inputFile)
	}

	out, stats, err := common.CategorizeRows(ctx, rows, decider, log, inputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to categorize %s: %w", inputFile, err)
	}
	if err := common.WriteCSVFile(out, outputFile, log); err != nil {
		return nil, err
	}
	log.Info("Batch categorization completed",
		logging.F(logging.FieldInputFile, inputFile),
		logging.F(logging.FieldOutputFile, outputFile),
		logging.F(logging.FieldCount, len(out)))
	return stats, nil
}

// ReadLabeledFile loads a CSV of categorized transactions.
func ReadLabeledFile(inputFile string, log logging.Logger) ([]models.LabeledTransaction, error) {
	if inputFile == "" {
		return nil, fmt.Errorf("input file is required")
	}
	rows, err := common.ReadCSVFile[common.TransactionRow](inputFile, log)
	if err != nil {
		return nil, err
	}
	examples, err := common.LabeledFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", inputFile, err)
	}
	return examples, nil
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintStats writes a one-line summary of a batch run.
func PrintStats(w io.Writer, stats *models.CategorizationStats) {
	if stats == nil {
		return
	}
	fmt.Fprintf(w, "Categorized %d transactions: %d by model, %d by fallback, %d uncategorized (%.1f%% categorized)\n",
		stats.Total, stats.Primary, stats.Fallback, stats.Uncategorized, stats.GetSuccessRate())
}
