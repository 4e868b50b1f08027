package common

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"intellifinance/fincat/internal/categorizer"
	"intellifinance/fincat/internal/logging"
	"intellifinance/fincat/internal/models"
	"intellifinance/fincat/internal/parsererror"
)

type MockDecider struct {
	mock.Mock
}

func (m *MockDecider) PredictBatch(ctx context.Context, recs []models.TransactionRecord) []categorizer.Decision {
	args := m.Called(ctx, recs)
	return args.Get(0).([]categorizer.Decision)
}

func TestCategorizeRows(t *testing.T) {
	rows := []TransactionRow{
		{Description: " STARBUCKS STORE 12345 ", Merchant: "Starbucks", Amount: "5.50"},
		{Description: "ZZZ unknown", Amount: ""},
		{Description: "Uber trip", Amount: "12"},
	}
	expectedRecs := []models.TransactionRecord{
		{Description: "STARBUCKS STORE 12345", MerchantName: "Starbucks", Amount: decimal.RequireFromString("5.50")},
		{Description: "ZZZ unknown"},
		{Description: "Uber trip", Amount: decimal.RequireFromString("12")},
	}

	decider := &MockDecider{}
	decider.On("PredictBatch", mock.Anything, mock.MatchedBy(func(recs []models.TransactionRecord) bool {
		if len(recs) != len(expectedRecs) {
			return false
		}
		for i := range recs {
			if recs[i].Description != expectedRecs[i].Description ||
				recs[i].MerchantName != expectedRecs[i].MerchantName ||
				!recs[i].Amount.Equal(expectedRecs[i].Amount) {
				return false
			}
		}
		return true
	})).Return([]categorizer.Decision{
		{Category: models.CategoryCoffeeShops, Confidence: 0.91, Source: categorizer.SourcePrimary, Reason: categorizer.ReasonConfident},
		{Category: models.CategoryUncategorized, Source: categorizer.SourceDefault, Reason: categorizer.ReasonBelowThreshold},
		{Category: models.CategoryPublicTransportation, Confidence: 0.62, Source: categorizer.SourceFallback, Reason: categorizer.ReasonConfident},
	})

	logger := &logging.MockLogger{}
	out, stats, err := CategorizeRows(context.Background(), rows, decider, logger, "in.csv")
	require.NoError(t, err)
	decider.AssertExpectations(t)

	require.Len(t, out, 3)
	assert.Equal(t, "coffee_shops", out[0].Category)
	assert.Equal(t, "0.9100", out[0].Confidence)
	assert.Equal(t, "primary", out[0].Source)
	assert.Equal(t, " STARBUCKS STORE 12345 ", out[0].Description)
	assert.Equal(t, "uncategorized", out[1].Category)
	assert.Equal(t, "fallback", out[2].Source)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Primary)
	assert.Equal(t, 1, stats.Fallback)
	assert.Equal(t, 1, stats.Uncategorized)
	assert.True(t, logger.HasEntry("INFO", "Categorization summary"))
}

func TestCategorizeRows_BadAmount(t *testing.T) {
	decider := &MockDecider{}
	_, _, err := CategorizeRows(context.Background(), []TransactionRow{{Description: "x", Amount: "five"}}, decider, nil, "in.csv")
	var rowErr *parsererror.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 1, rowErr.Row)
	var parseErr *parsererror.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "five", parseErr.Value)
	decider.AssertNotCalled(t, "PredictBatch", mock.Anything, mock.Anything)
}

func TestLabeledFromRows(t *testing.T) {
	rows := []TransactionRow{
		{Description: "Shell", Amount: "40", Category: " GAS "},
		{Description: "Rent", Category: "rent"},
		{Description: "Laptop", Amount: "CHF 1'299.90", Category: "electronics"},
	}
	got, err := LabeledFromRows(rows)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, models.Category("GAS"), got[0].Category)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(40)))
	assert.True(t, got[1].Amount.IsZero())
	assert.True(t, got[2].Amount.Equal(decimal.RequireFromString("1299.90")))

	_, err = LabeledFromRows([]TransactionRow{{Description: "ok"}, {Description: "bad", Amount: "1.2.3"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}
