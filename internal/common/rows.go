package common

import (
	"strconv"
	"strings"

	"intellifinance/fincat/internal/categorizer"
	"intellifinance/fincat/internal/currencyutils"
	"intellifinance/fincat/internal/models"
	"intellifinance/fincat/internal/parsererror"
)

// TransactionRow is one CSV line of transaction input. Category is only
// required for training and feedback import.
type TransactionRow struct {
	Description string `csv:"description"`
	Merchant    string `csv:"merchant_name"`
	Amount      string `csv:"amount"`
	Category    string `csv:"category"`
}

// Record converts the row into a TransactionRecord. An empty amount is zero;
// currency marks and thousand separators are accepted.
func (r TransactionRow) Record() (models.TransactionRecord, error) {
	rec := models.TransactionRecord{
		Description:  strings.TrimSpace(r.Description),
		MerchantName: strings.TrimSpace(r.Merchant),
	}
	if amount := strings.TrimSpace(r.Amount); amount != "" {
		d, err := currencyutils.ParseAmount(amount)
		if err != nil {
			return rec, &parsererror.ParseError{Field: "amount", Value: r.Amount, Err: err}
		}
		rec.Amount = d
	}
	return rec, nil
}

// Labeled converts the row into a LabeledTransaction. The category is kept
// as written so training can coerce it and feedback can reject it.
func (r TransactionRow) Labeled() (models.LabeledTransaction, error) {
	rec, err := r.Record()
	if err != nil {
		return models.LabeledTransaction{}, err
	}
	return models.LabeledTransaction{
		TransactionRecord: rec,
		Category:          models.Category(strings.TrimSpace(r.Category)),
	}, nil
}

// LabeledFromRows converts rows, reporting the 1-based data line of the
// first bad row.
func LabeledFromRows(rows []TransactionRow) ([]models.LabeledTransaction, error) {
	out := make([]models.LabeledTransaction, 0, len(rows))
	for i, row := range rows {
		lt, err := row.Labeled()
		if err != nil {
			return nil, &parsererror.RowError{Row: i + 1, Err: err}
		}
		out = append(out, lt)
	}
	return out, nil
}

// DecisionRow is one CSV line of batch categorization output.
type DecisionRow struct {
	Description string `csv:"description"`
	Merchant    string `csv:"merchant_name"`
	Amount      string `csv:"amount"`
	Category    string `csv:"category"`
	Confidence  string `csv:"confidence"`
	Source      string `csv:"source"`
	Reason      string `csv:"reason"`
}

// NewDecisionRow pairs an input row with its decision.
func NewDecisionRow(in TransactionRow, d categorizer.Decision) DecisionRow {
	return DecisionRow{
		Description: in.Description,
		Merchant:    in.Merchant,
		Amount:      in.Amount,
		Category:    string(d.Category),
		Confidence:  strconv.FormatFloat(d.Confidence, 'f', 4, 64),
		Source:      string(d.Source),
		Reason:      d.Reason,
	}
}
