package assistant

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intellifinance/fincat/internal/logging"
	"intellifinance/fincat/internal/models"
)

var testNow = time.Date(2025, time.March, 12, 15, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

func date(m time.Month, d int) time.Time { return time.Date(2025, m, d, 10, 0, 0, 0, time.UTC) }

func testLedger() *MemoryLedger {
	updated := date(time.March, 1)
	target := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)
	return &MemoryLedger{
		TransactionList: []models.Transaction{
			{ID: "1", TransactionDate: date(time.March, 5), Description: "STARBUCKS #123", MerchantName: "Starbucks", Amount: dec("5.50"), Category: models.CategoryCoffeeShops},
			{ID: "2", TransactionDate: date(time.March, 8), Description: "Whole Foods Market", Amount: dec("120.00"), Category: models.CategoryGroceries},
			{ID: "3", TransactionDate: date(time.March, 10), Description: "Whole Foods Market", Amount: dec("80.00"), Category: models.CategoryGroceries},
			{ID: "4", TransactionDate: date(time.February, 15), Description: "Shell Oil", Amount: dec("40.00"), Category: models.CategoryGas},
			{ID: "5", TransactionDate: date(time.March, 11), Description: "Payroll deposit", Amount: dec("-3000"), Category: models.CategorySalary},
			{ID: "6", TransactionDate: date(time.March, 9), Description: "Starbucks Reserve", Amount: dec("4.50"), Category: models.CategoryCoffeeShops},
		},
		AccountList: []models.Account{
			{Name: "Checking", AccountType: "checking", CurrentBalance: dec("5000"), InstitutionName: "Chase", IsActive: true, UpdatedAt: &updated},
			{Name: "Visa", AccountType: "credit_card", CurrentBalance: dec("-1200.50"), IsManual: true, IsActive: true},
			{Name: "Savings", AccountType: "savings", CurrentBalance: dec("10000"), InstitutionName: "Ally", IsActive: true, UpdatedAt: &updated},
			{Name: "Closed", AccountType: "checking", CurrentBalance: dec("999"), IsActive: false},
		},
		BudgetList: []models.Budget{
			{Category: models.CategoryGroceries, Amount: dec("150"), StartDate: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2025, time.March, 31, 23, 59, 59, 0, time.UTC), IsActive: true},
			{Category: models.CategoryRestaurants, Amount: dec("100"), StartDate: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2025, time.March, 31, 23, 59, 59, 0, time.UTC), IsActive: false},
			{Category: models.CategoryGas, Amount: dec("60"), StartDate: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2025, time.January, 31, 23, 59, 59, 0, time.UTC), IsActive: true},
		},
		GoalList: []models.Goal{
			{Name: "Emergency fund", TargetAmount: dec("10000"), CurrentAmount: dec("2500"), TargetDate: &target, IsActive: true},
			{Name: "Old goal", TargetAmount: dec("500"), CurrentAmount: dec("500"), IsActive: false},
		},
	}
}

type stubAdvisor struct {
	reply  string
	err    error
	prompt string
}

func (s *stubAdvisor) Generate(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.reply, s.err
}

type failingLedger struct{ *MemoryLedger }

func (failingLedger) Transactions(context.Context) ([]models.Transaction, error) {
	return nil, errors.New("ledger offline")
}

func newTestAssistant(t *testing.T, advisor Advisor, logger logging.Logger) *Assistant {
	t.Helper()
	opts := Options{Ledger: testLedger(), Logger: logger, Now: func() time.Time { return testNow }}
	if advisor != nil {
		opts.Advisor = advisor
	}
	a, err := New(opts)
	require.NoError(t, err)
	return a
}

func TestNewRequiresLedger(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestSpendingSummary(t *testing.T) {
	a := newTestAssistant(t, nil, nil)

	tests := []struct {
		name    string
		query   string
		total   string
		count   int
		message string
	}{
		{
			name:    "this month",
			query:   "How much did I spend this month?",
			total:   "210",
			count:   4,
			message: "You spent $210.00 this month across 4 transactions. Your biggest expense category was groceries at $200.00.",
		},
		{
			name:    "last month",
			query:   "How much did I spend last month?",
			total:   "40",
			count:   1,
			message: "You spent $40.00 last month across 1 transactions. Your biggest expense category was gas at $40.00.",
		},
		{
			name:    "empty period",
			query:   "What did I spend last year?",
			total:   "0",
			count:   0,
			message: "You spent $0.00 last year across 0 transactions.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := a.Ask(context.Background(), tt.query)
			require.NoError(t, err)
			summary, ok := resp.(*SpendingSummary)
			require.True(t, ok, "got %T", resp)
			assert.Equal(t, IntentSpendingSummary, summary.Intent())
			assertDecimal(t, tt.total, summary.TotalSpent)
			assert.Equal(t, tt.count, summary.TransactionCount)
			assert.Equal(t, tt.message, summary.Message())
		})
	}
}

func TestSpendingSummaryTopCategoriesOrdered(t *testing.T) {
	a := newTestAssistant(t, nil, nil)
	resp, err := a.Ask(context.Background(), "spending this month")
	require.NoError(t, err)
	summary := resp.(*SpendingSummary)
	require.Len(t, summary.TopCategories, 2)
	assert.Equal(t, models.CategoryGroceries, summary.TopCategories[0].Category)
	assert.Equal(t, models.CategoryCoffeeShops, summary.TopCategories[1].Category)
	assertDecimal(t, "10", summary.TopCategories[1].Total)
}

func TestBudgetStatus(t *testing.T) {
	a := newTestAssistant(t, nil, nil)
	resp, err := a.Ask(context.Background(), "Show me my budget status")
	require.NoError(t, err)
	status, ok := resp.(*BudgetStatus)
	require.True(t, ok, "got %T", resp)

	require.Len(t, status.Budgets, 1)
	line := status.Budgets[0]
	assert.Equal(t, models.CategoryGroceries, line.Category)
	assertDecimal(t, "200", line.Spent)
	assertDecimal(t, "-50", line.Remaining)
	assert.True(t, line.OverBudget)
	assert.InDelta(t, 133.33, line.PercentageUsed, 0.01)
	assertDecimal(t, "-50", status.OverallRemaining)
	assert.Equal(t, "You have 1 active budgets. You've spent $200.00 out of $150.00 budgeted this month.", status.Message())
}

func TestTransactionSearch(t *testing.T) {
	a := newTestAssistant(t, nil, nil)

	tests := []struct {
		name  string
		query string
		terms []string
		ids   []string
	}{
		{"description match newest first", "Find transactions at Starbucks", []string{"starbucks"}, []string{"STARBUCKS #123", "Starbucks Reserve"}},
		{"category match", "find groceries", []string{"groceries"}, []string{"Whole Foods Market", "Whole Foods Market"}},
		{"no match", "search for netflix", []string{"netflix"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := a.Ask(context.Background(), tt.query)
			require.NoError(t, err)
			search, ok := resp.(*TransactionSearch)
			require.True(t, ok, "got %T", resp)
			assert.Equal(t, tt.terms, search.SearchTerms)
			assert.Equal(t, len(tt.ids), search.Count)
			var got []string
			for _, m := range search.Transactions {
				got = append(got, m.Description)
			}
			assert.ElementsMatch(t, tt.ids, got)
		})
	}
}

func TestTransactionSearchOrderAndLimit(t *testing.T) {
	ledger := &MemoryLedger{}
	for i := 0; i < 25; i++ {
		ledger.TransactionList = append(ledger.TransactionList, models.Transaction{
			TransactionDate: testNow.AddDate(0, 0, -i),
			Description:     "Uber trip",
			Amount:          dec("12"),
			Category:        models.CategoryPublicTransportation,
		})
	}
	a, err := New(Options{Ledger: ledger, Now: func() time.Time { return testNow }})
	require.NoError(t, err)

	resp, err := a.Ask(context.Background(), "find uber")
	require.NoError(t, err)
	search := resp.(*TransactionSearch)
	require.Len(t, search.Transactions, maxSearchResults)
	assert.Equal(t, "2025-03-12", search.Transactions[0].Date)
	assert.Equal(t, "2025-02-21", search.Transactions[maxSearchResults-1].Date)
}

func TestFinancialAdvice(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		a := newTestAssistant(t, nil, nil)
		resp, err := a.Ask(context.Background(), "What do you recommend?")
		require.NoError(t, err)
		advice := resp.(*FinancialAdvice)
		assert.Contains(t, advice.Message(), "not configured")
		assert.Nil(t, advice.Context)
	})

	t.Run("advisor reply", func(t *testing.T) {
		advisor := &stubAdvisor{reply: "  Cook at home more often.  "}
		a := newTestAssistant(t, advisor, nil)
		resp, err := a.Ask(context.Background(), "What do you recommend?")
		require.NoError(t, err)
		advice := resp.(*FinancialAdvice)
		assert.Equal(t, "Cook at home more often.", advice.Message())
		require.NotNil(t, advice.Context)
		assert.Equal(t, 4, advice.Context.AccountCount)
		assert.Equal(t, 2, advice.Context.BudgetCount)
		assert.Equal(t, 1, advice.Context.GoalCount)
		assertDecimal(t, "250", advice.Context.RecentSpending)
		assert.Equal(t, models.CategoryGroceries, advice.Context.TopCategories[0])
		assert.Contains(t, advisor.prompt, "User Question: What do you recommend?")
		assert.Contains(t, advisor.prompt, "Recent Spending: $250.00")
	})

	t.Run("advisor failure", func(t *testing.T) {
		logger := &logging.MockLogger{}
		a := newTestAssistant(t, &stubAdvisor{err: errors.New("quota exceeded")}, logger)
		resp, err := a.Ask(context.Background(), "should i refinance?")
		require.NoError(t, err)
		advice := resp.(*FinancialAdvice)
		assert.Contains(t, advice.Message(), "having trouble")
		assert.Equal(t, "quota exceeded", advice.Error)
		assert.True(t, logger.HasEntry("WARN", "Advisor request failed"))
	})
}

func TestGoalProgress(t *testing.T) {
	a := newTestAssistant(t, nil, nil)
	resp, err := a.Ask(context.Background(), "How are my savings goals doing?")
	require.NoError(t, err)
	goals := resp.(*GoalProgress)
	require.Len(t, goals.Goals, 1)
	assert.Equal(t, "Emergency fund", goals.Goals[0].Name)
	assert.InDelta(t, 25.0, goals.Goals[0].ProgressPercentage, 1e-9)
	assertDecimal(t, "7500", goals.Goals[0].Remaining)
	assert.Equal(t, "2025-12-31", goals.Goals[0].TargetDate)
	assert.Equal(t, "You have 1 active savings goals.", goals.Message())
}

func TestCategoryAnalysis(t *testing.T) {
	a := newTestAssistant(t, nil, nil)
	resp, err := a.Ask(context.Background(), "Break it down by category this month")
	require.NoError(t, err)
	analysis := resp.(*CategoryAnalysis)
	assert.Equal(t, PeriodThisMonth, analysis.Period)
	require.Len(t, analysis.Categories, 2)
	assert.Equal(t, models.CategoryGroceries, analysis.Categories[0].Category)
	assert.Equal(t, 2, analysis.Categories[0].TransactionCount)
	assertDecimal(t, "100", analysis.Categories[0].AveragePerTransaction)
	assertDecimal(t, "5", analysis.Categories[1].AveragePerTransaction)
	assert.Equal(t, "Here's your spending breakdown by category for this month.", analysis.Message())
}

func TestNetWorth(t *testing.T) {
	a := newTestAssistant(t, nil, nil)
	resp, err := a.Ask(context.Background(), "What is my net worth?")
	require.NoError(t, err)
	nw := resp.(*NetWorth)
	assertDecimal(t, "15000", nw.TotalAssets)
	assertDecimal(t, "1200.50", nw.TotalLiabilities)
	assertDecimal(t, "13799.50", nw.NetWorth)
	assert.Len(t, nw.Accounts, 3)
	assert.Equal(t,
		"Your current net worth is $13,799.50. You have $15,000.00 in assets and $1,200.50 in liabilities across 3 accounts.",
		nw.Message())
}

func TestAccountSummary(t *testing.T) {
	a := newTestAssistant(t, nil, nil)
	resp, err := a.Ask(context.Background(), "Show my account balances")
	require.NoError(t, err)
	summary := resp.(*AccountSummary)
	require.Len(t, summary.Accounts, 3)
	assert.Equal(t, "Savings", summary.Accounts[0].Name)
	assert.Equal(t, "Checking", summary.Accounts[1].Name)
	assert.Equal(t, "Visa", summary.Accounts[2].Name)
	assert.Equal(t, "Manual Account", summary.Accounts[2].Institution)
	assert.Equal(t, "Never", summary.Accounts[2].LastUpdated)
	assert.Equal(t, 2, summary.LinkedAccounts)
	assert.Equal(t, 1, summary.ManualAccounts)
	assertDecimal(t, "13799.50", summary.TotalBalance)
}

func TestGeneralChat(t *testing.T) {
	a := newTestAssistant(t, nil, nil)
	resp, err := a.Ask(context.Background(), "hello")
	require.NoError(t, err)
	chat := resp.(*GeneralChat)
	assert.Equal(t, IntentGeneralChat, chat.Intent())
	assert.Len(t, chat.Suggestions, 5)
}

func TestAskPropagatesLedgerErrors(t *testing.T) {
	a, err := New(Options{Ledger: failingLedger{testLedger()}, Now: func() time.Time { return testNow }})
	require.NoError(t, err)

	_, err = a.Ask(context.Background(), "How much did I spend?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger offline")

	// Intents that do not read transactions still answer.
	resp, err := a.Ask(context.Background(), "net worth")
	require.NoError(t, err)
	assert.Equal(t, IntentNetWorth, resp.Intent())
}

func TestLoadLedgerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	content := `transactions:
  - id: "t1"
    transaction_date: 2025-03-05T10:00:00Z
    description: Starbucks
    amount: "5.50"
    category: COFFEE_SHOPS
accounts:
  - name: Checking
    account_type: checking
    current_balance: "100.25"
    is_active: true
goals:
  - name: Trip
    target_amount: "1000"
    current_amount: "100"
    is_active: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	ledger, err := LoadLedgerFile(path)
	require.NoError(t, err)

	txs, err := ledger.Transactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.CategoryCoffeeShops, txs[0].Category)
	assertDecimal(t, "5.50", txs[0].Amount)

	accounts, _ := ledger.Accounts(context.Background())
	require.Len(t, accounts, 1)
	assertDecimal(t, "100.25", accounts[0].CurrentBalance)

	goals, _ := ledger.Goals(context.Background())
	assert.Len(t, goals, 1)
}

func TestLoadLedgerFileErrors(t *testing.T) {
	_, err := LoadLedgerFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transactions: [:"), 0o600))
	_, err = LoadLedgerFile(path)
	assert.Error(t, err)
}
