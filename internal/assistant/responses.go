package assistant

import (
	"time"

	"github.com/shopspring/decimal"

	"intellifinance/fincat/internal/models"
)

// Response is the answer to a query. The concrete type depends on the
// detected intent.
type Response interface {
	Intent() Intent
	Message() string
}

// CategoryTotal is the amount spent in one category.
type CategoryTotal struct {
	Category models.Category `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// SpendingSummary totals expenses over a period.
type SpendingSummary struct {
	Period           Period          `json:"period"`
	TotalSpent       decimal.Decimal `json:"total_spent"`
	TransactionCount int             `json:"transaction_count"`
	TopCategories    []CategoryTotal `json:"top_categories"`
	Text             string          `json:"message"`
}

func (r *SpendingSummary) Intent() Intent  { return IntentSpendingSummary }
func (r *SpendingSummary) Message() string { return r.Text }

// BudgetLine is the state of one active budget.
type BudgetLine struct {
	Category       models.Category `json:"category"`
	Budgeted       decimal.Decimal `json:"budgeted"`
	Spent          decimal.Decimal `json:"spent"`
	Remaining      decimal.Decimal `json:"remaining"`
	PercentageUsed float64         `json:"percentage_used"`
	OverBudget     bool            `json:"over_budget"`
}

// BudgetStatus reports the budgets active this month.
type BudgetStatus struct {
	Budgets          []BudgetLine    `json:"budgets"`
	TotalBudgeted    decimal.Decimal `json:"total_budgeted"`
	TotalSpent       decimal.Decimal `json:"total_spent"`
	OverallRemaining decimal.Decimal `json:"overall_remaining"`
	Text             string          `json:"message"`
}

func (r *BudgetStatus) Intent() Intent  { return IntentBudgetStatus }
func (r *BudgetStatus) Message() string { return r.Text }

// TransactionMatch is one search hit.
type TransactionMatch struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    models.Category `json:"category"`
	Merchant    string          `json:"merchant,omitempty"`
}

// TransactionSearch lists transactions matching the query terms.
type TransactionSearch struct {
	Transactions []TransactionMatch `json:"transactions"`
	Count        int                `json:"count"`
	SearchTerms  []string           `json:"search_terms"`
	Text         string             `json:"message"`
}

func (r *TransactionSearch) Intent() Intent  { return IntentTransactionSearch }
func (r *TransactionSearch) Message() string { return r.Text }

// FinancialContext summarizes the ledger for the advice prompt.
type FinancialContext struct {
	RecentSpending decimal.Decimal   `json:"recent_spending"`
	TopCategories  []models.Category `json:"top_categories"`
	AccountCount   int               `json:"account_count"`
	BudgetCount    int               `json:"budget_count"`
	GoalCount      int               `json:"goal_count"`
}

// FinancialAdvice is generated advice. Error is set when the advisor failed.
type FinancialAdvice struct {
	Context *FinancialContext `json:"context,omitempty"`
	Error   string            `json:"error,omitempty"`
	Text    string            `json:"message"`
}

func (r *FinancialAdvice) Intent() Intent  { return IntentFinancialAdvice }
func (r *FinancialAdvice) Message() string { return r.Text }

// GoalLine is the progress of one savings goal.
type GoalLine struct {
	Name               string          `json:"name"`
	TargetAmount       decimal.Decimal `json:"target_amount"`
	CurrentAmount      decimal.Decimal `json:"current_amount"`
	Remaining          decimal.Decimal `json:"remaining"`
	ProgressPercentage float64         `json:"progress_percentage"`
	TargetDate         string          `json:"target_date,omitempty"`
}

// GoalProgress reports active savings goals.
type GoalProgress struct {
	Goals []GoalLine `json:"goals"`
	Text  string     `json:"message"`
}

func (r *GoalProgress) Intent() Intent  { return IntentGoalProgress }
func (r *GoalProgress) Message() string { return r.Text }

// CategoryLine is the spending breakdown of one category.
type CategoryLine struct {
	Category              models.Category `json:"category"`
	Total                 decimal.Decimal `json:"total"`
	TransactionCount      int             `json:"transaction_count"`
	AveragePerTransaction decimal.Decimal `json:"average_per_transaction"`
}

// CategoryAnalysis breaks down expenses by category over a period.
type CategoryAnalysis struct {
	Period     Period         `json:"period"`
	Categories []CategoryLine `json:"categories"`
	Text       string         `json:"message"`
}

func (r *CategoryAnalysis) Intent() Intent  { return IntentCategoryAnalysis }
func (r *CategoryAnalysis) Message() string { return r.Text }

// AccountLine describes one account.
type AccountLine struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Balance     decimal.Decimal `json:"balance"`
	Institution string          `json:"institution"`
	Kind        string          `json:"category,omitempty"` // asset or liability
	IsLinked    bool            `json:"is_linked"`
	LastUpdated string          `json:"last_updated,omitempty"`
}

// NetWorth is assets minus liabilities across active accounts.
type NetWorth struct {
	NetWorth         decimal.Decimal `json:"net_worth"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	Accounts         []AccountLine   `json:"accounts"`
	Text             string          `json:"message"`
}

func (r *NetWorth) Intent() Intent  { return IntentNetWorth }
func (r *NetWorth) Message() string { return r.Text }

// AccountSummary lists active accounts, highest balance first.
type AccountSummary struct {
	Accounts       []AccountLine   `json:"accounts"`
	TotalAccounts  int             `json:"total_accounts"`
	TotalBalance   decimal.Decimal `json:"total_balance"`
	LinkedAccounts int             `json:"linked_accounts"`
	ManualAccounts int             `json:"manual_accounts"`
	Text           string          `json:"message"`
}

func (r *AccountSummary) Intent() Intent  { return IntentAccountSummary }
func (r *AccountSummary) Message() string { return r.Text }

// GeneralChat is the fallback answer with example questions.
type GeneralChat struct {
	Suggestions []string `json:"suggestions"`
	Text        string   `json:"message"`
}

func (r *GeneralChat) Intent() Intent  { return IntentGeneralChat }
func (r *GeneralChat) Message() string { return r.Text }

const dateLayout = "2006-01-02"

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
