package assistant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"intellifinance/fincat/internal/logging"
	"intellifinance/fincat/internal/models"
)

const (
	maxSearchResults = 20
	maxTopCategories = 5
	adviceWindowDays = 30
)

var hundred = decimal.NewFromInt(100)

var chatSuggestions = []string{
	"How much did I spend last month?",
	"Show me my budget status",
	"Find transactions at Starbucks",
	"What's my biggest expense category?",
	"How are my savings goals doing?",
}

// Advisor generates free-text advice from a prompt.
type Advisor interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Options configures an Assistant.
type Options struct {
	Ledger   Ledger
	Advisor  Advisor // optional
	Logger   logging.Logger
	Language language.Tag
	Now      func() time.Time
}

// Assistant answers finance questions from a Ledger.
type Assistant struct {
	ledger  Ledger
	advisor Advisor
	logger  logging.Logger
	printer *message.Printer
	now     func() time.Time
}

// New creates an Assistant. A Ledger is required.
func New(opts Options) (*Assistant, error) {
	if opts.Ledger == nil {
		return nil, errors.New("ledger is required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Language == language.Und {
		opts.Language = language.English
	}
	return &Assistant{
		ledger:  opts.Ledger,
		advisor: opts.Advisor,
		logger:  opts.Logger,
		printer: message.NewPrinter(opts.Language),
		now:     opts.Now,
	}, nil
}

// Ask routes the query to the handler for its detected intent. Errors come
// only from the Ledger; an advisor failure is reported inside the response.
func (a *Assistant) Ask(ctx context.Context, query string) (Response, error) {
	intent := DetectIntent(query)
	var (
		resp Response
		err  error
	)
	switch intent {
	case IntentSpendingSummary:
		resp, err = a.spendingSummary(ctx, query)
	case IntentBudgetStatus:
		resp, err = a.budgetStatus(ctx)
	case IntentTransactionSearch:
		resp, err = a.searchTransactions(ctx, query)
	case IntentFinancialAdvice:
		resp, err = a.financialAdvice(ctx, query)
	case IntentGoalProgress:
		resp, err = a.goalProgress(ctx)
	case IntentCategoryAnalysis:
		resp, err = a.categoryAnalysis(ctx, query)
	case IntentNetWorth:
		resp, err = a.netWorth(ctx)
	case IntentAccountSummary:
		resp, err = a.accountSummary(ctx)
	default:
		resp = a.generalChat()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to answer %s query: %w", intent, err)
	}
	a.logger.Debug("Assistant query answered", logging.F(logging.FieldIntent, string(intent)))
	return resp, nil
}

func (a *Assistant) money(d decimal.Decimal) string {
	return a.printer.Sprintf("$%.2f", d.InexactFloat64())
}

// expensesIn returns the expense transactions booked within [start, end].
func (a *Assistant) expensesIn(ctx context.Context, start, end time.Time) ([]models.Transaction, error) {
	txs, err := a.ledger.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Transaction
	for _, t := range txs {
		if t.IsExpense() && inRange(t.TransactionDate, start, end) {
			out = append(out, t)
		}
	}
	return out, nil
}

// totalsByCategory sums amounts per category, largest first, ties by name.
func totalsByCategory(txs []models.Transaction) []CategoryLine {
	idx := map[models.Category]int{}
	var lines []CategoryLine
	for _, t := range txs {
		i, ok := idx[t.Category]
		if !ok {
			i = len(lines)
			idx[t.Category] = i
			lines = append(lines, CategoryLine{Category: t.Category})
		}
		lines[i].Total = lines[i].Total.Add(t.Amount)
		lines[i].TransactionCount++
	}
	for i := range lines {
		lines[i].AveragePerTransaction = lines[i].Total.Div(decimal.NewFromInt(int64(lines[i].TransactionCount))).Round(2)
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if c := lines[i].Total.Cmp(lines[j].Total); c != 0 {
			return c > 0
		}
		return lines[i].Category < lines[j].Category
	})
	return lines
}

func (a *Assistant) spendingSummary(ctx context.Context, query string) (*SpendingSummary, error) {
	period := ExtractPeriod(query)
	start, end := period.Range(a.now())
	txs, err := a.expensesIn(ctx, start, end)
	if err != nil {
		return nil, err
	}
	resp := &SpendingSummary{Period: period, TransactionCount: len(txs), TopCategories: []CategoryTotal{}}
	for _, t := range txs {
		resp.TotalSpent = resp.TotalSpent.Add(t.Amount)
	}
	for i, line := range totalsByCategory(txs) {
		if i == maxTopCategories {
			break
		}
		resp.TopCategories = append(resp.TopCategories, CategoryTotal{Category: line.Category, Total: line.Total})
	}
	resp.Text = a.printer.Sprintf("You spent %s %s across %d transactions.", a.money(resp.TotalSpent), period, len(txs))
	if len(resp.TopCategories) > 0 {
		top := resp.TopCategories[0]
		resp.Text += a.printer.Sprintf(" Your biggest expense category was %s at %s.", top.Category, a.money(top.Total))
	}
	return resp, nil
}

func (a *Assistant) budgetStatus(ctx context.Context) (*BudgetStatus, error) {
	now := a.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	budgets, err := a.ledger.Budgets(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := a.ledger.Transactions(ctx)
	if err != nil {
		return nil, err
	}

	resp := &BudgetStatus{Budgets: []BudgetLine{}}
	for _, b := range budgets {
		if !b.IsActive || b.StartDate.After(monthStart) || b.EndDate.Before(monthStart) {
			continue
		}
		var spent decimal.Decimal
		for _, t := range txs {
			if t.IsExpense() && t.Category == b.Category && inRange(t.TransactionDate, b.StartDate, b.EndDate) {
				spent = spent.Add(t.Amount)
			}
		}
		line := BudgetLine{
			Category:   b.Category,
			Budgeted:   b.Amount,
			Spent:      spent,
			Remaining:  b.Amount.Sub(spent),
			OverBudget: spent.GreaterThan(b.Amount),
		}
		if b.Amount.IsPositive() {
			line.PercentageUsed = spent.Div(b.Amount).Mul(hundred).InexactFloat64()
		}
		resp.Budgets = append(resp.Budgets, line)
		resp.TotalBudgeted = resp.TotalBudgeted.Add(b.Amount)
		resp.TotalSpent = resp.TotalSpent.Add(spent)
	}
	resp.OverallRemaining = resp.TotalBudgeted.Sub(resp.TotalSpent)
	resp.Text = a.printer.Sprintf("You have %d active budgets. You've spent %s out of %s budgeted this month.",
		len(resp.Budgets), a.money(resp.TotalSpent), a.money(resp.TotalBudgeted))
	return resp, nil
}

func (a *Assistant) searchTransactions(ctx context.Context, query string) (*TransactionSearch, error) {
	terms := ExtractSearchTerms(query)
	start, end := ExtractPeriod(query).Range(a.now())

	txs, err := a.ledger.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	var hits []models.Transaction
	for _, t := range txs {
		if inRange(t.TransactionDate, start, end) && matchesTerms(t, terms) {
			hits = append(hits, t)
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].TransactionDate.After(hits[j].TransactionDate)
	})
	if len(hits) > maxSearchResults {
		hits = hits[:maxSearchResults]
	}

	resp := &TransactionSearch{Transactions: make([]TransactionMatch, 0, len(hits)), SearchTerms: terms}
	if resp.SearchTerms == nil {
		resp.SearchTerms = []string{}
	}
	for _, t := range hits {
		resp.Transactions = append(resp.Transactions, TransactionMatch{
			Date:        t.TransactionDate.Format(dateLayout),
			Description: t.Description,
			Amount:      t.Amount,
			Category:    t.Category,
			Merchant:    t.MerchantName,
		})
	}
	resp.Count = len(resp.Transactions)
	resp.Text = a.printer.Sprintf("Found %d transactions matching your search.", resp.Count)
	return resp, nil
}

// matchesTerms reports whether any term is a substring of the description
// or names the transaction's category. No terms matches everything.
func matchesTerms(t models.Transaction, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	desc := strings.ToLower(t.Description)
	for _, term := range terms {
		if strings.Contains(desc, term) || string(t.Category) == term {
			return true
		}
	}
	return false
}

func (a *Assistant) financialAdvice(ctx context.Context, query string) (*FinancialAdvice, error) {
	if a.advisor == nil {
		return &FinancialAdvice{Text: "AI assistant is not configured. Please set GEMINI_API_KEY."}, nil
	}
	fc, err := a.financialContext(ctx)
	if err != nil {
		return nil, err
	}

	advice, err := a.advisor.Generate(ctx, a.advicePrompt(fc, query))
	if err != nil {
		a.logger.WithError(err).Warn("Advisor request failed")
		return &FinancialAdvice{
			Context: fc,
			Error:   err.Error(),
			Text:    "I'm having trouble accessing my AI capabilities right now. Please try again later.",
		}, nil
	}
	return &FinancialAdvice{Context: fc, Text: strings.TrimSpace(advice)}, nil
}

func (a *Assistant) advicePrompt(fc *FinancialContext, query string) string {
	top := make([]string, 0, 3)
	for i, c := range fc.TopCategories {
		if i == 3 {
			break
		}
		top = append(top, string(c))
	}
	var b strings.Builder
	b.WriteString("You are a personal finance advisor. Based on the user's financial data, provide helpful advice.\n\n")
	b.WriteString("User's Financial Context:\n")
	fmt.Fprintf(&b, "- Total Accounts: %d\n", fc.AccountCount)
	fmt.Fprintf(&b, "- Recent Spending: %s in the last %d days\n", a.money(fc.RecentSpending), adviceWindowDays)
	fmt.Fprintf(&b, "- Top Spending Categories: %s\n", strings.Join(top, ", "))
	fmt.Fprintf(&b, "- Active Budgets: %d\n", fc.BudgetCount)
	fmt.Fprintf(&b, "- Savings Goals: %d\n\n", fc.GoalCount)
	fmt.Fprintf(&b, "User Question: %s\n\n", query)
	b.WriteString("Provide specific, actionable financial advice in 2-3 sentences.")
	return b.String()
}

func (a *Assistant) financialContext(ctx context.Context) (*FinancialContext, error) {
	now := a.now()
	recent, err := a.expensesIn(ctx, now.AddDate(0, 0, -adviceWindowDays), now)
	if err != nil {
		return nil, err
	}
	accounts, err := a.ledger.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	budgets, err := a.ledger.Budgets(ctx)
	if err != nil {
		return nil, err
	}
	goals, err := a.ledger.Goals(ctx)
	if err != nil {
		return nil, err
	}

	fc := &FinancialContext{AccountCount: len(accounts), TopCategories: []models.Category{}}
	for _, t := range recent {
		fc.RecentSpending = fc.RecentSpending.Add(t.Amount)
	}
	for _, line := range totalsByCategory(recent) {
		fc.TopCategories = append(fc.TopCategories, line.Category)
	}
	for _, b := range budgets {
		if b.IsActive {
			fc.BudgetCount++
		}
	}
	for _, g := range goals {
		if g.IsActive {
			fc.GoalCount++
		}
	}
	return fc, nil
}

func (a *Assistant) goalProgress(ctx context.Context) (*GoalProgress, error) {
	goals, err := a.ledger.Goals(ctx)
	if err != nil {
		return nil, err
	}
	resp := &GoalProgress{Goals: []GoalLine{}}
	for _, g := range goals {
		if !g.IsActive {
			continue
		}
		line := GoalLine{
			Name:          g.Name,
			TargetAmount:  g.TargetAmount,
			CurrentAmount: g.CurrentAmount,
			Remaining:     g.TargetAmount.Sub(g.CurrentAmount),
			TargetDate:    formatDate(g.TargetDate),
		}
		if g.TargetAmount.IsPositive() {
			line.ProgressPercentage = g.CurrentAmount.Div(g.TargetAmount).Mul(hundred).InexactFloat64()
		}
		resp.Goals = append(resp.Goals, line)
	}
	resp.Text = a.printer.Sprintf("You have %d active savings goals.", len(resp.Goals))
	return resp, nil
}

func (a *Assistant) categoryAnalysis(ctx context.Context, query string) (*CategoryAnalysis, error) {
	period := ExtractPeriod(query)
	start, end := period.Range(a.now())
	txs, err := a.expensesIn(ctx, start, end)
	if err != nil {
		return nil, err
	}
	lines := totalsByCategory(txs)
	if lines == nil {
		lines = []CategoryLine{}
	}
	return &CategoryAnalysis{
		Period:     period,
		Categories: lines,
		Text:       a.printer.Sprintf("Here's your spending breakdown by category for %s.", period),
	}, nil
}

func activeAccounts(accounts []models.Account) []models.Account {
	var out []models.Account
	for _, acc := range accounts {
		if acc.IsActive {
			out = append(out, acc)
		}
	}
	return out
}

func (a *Assistant) netWorth(ctx context.Context) (*NetWorth, error) {
	accounts, err := a.ledger.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	active := activeAccounts(accounts)

	resp := &NetWorth{Accounts: make([]AccountLine, 0, len(active))}
	for _, acc := range active {
		line := AccountLine{
			Name:        acc.Name,
			Type:        acc.AccountType,
			Balance:     acc.CurrentBalance,
			Institution: acc.InstitutionName,
			IsLinked:    !acc.IsManual,
		}
		if acc.IsLiability() {
			resp.TotalLiabilities = resp.TotalLiabilities.Add(acc.CurrentBalance.Abs())
			line.Kind = "liability"
		} else {
			resp.TotalAssets = resp.TotalAssets.Add(acc.CurrentBalance)
			line.Kind = "asset"
		}
		resp.Accounts = append(resp.Accounts, line)
	}
	resp.NetWorth = resp.TotalAssets.Sub(resp.TotalLiabilities)
	resp.Text = a.printer.Sprintf("Your current net worth is %s. You have %s in assets and %s in liabilities across %d accounts.",
		a.money(resp.NetWorth), a.money(resp.TotalAssets), a.money(resp.TotalLiabilities), len(active))
	return resp, nil
}

func (a *Assistant) accountSummary(ctx context.Context) (*AccountSummary, error) {
	accounts, err := a.ledger.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	active := activeAccounts(accounts)

	resp := &AccountSummary{Accounts: make([]AccountLine, 0, len(active)), TotalAccounts: len(active)}
	for _, acc := range active {
		institution := acc.InstitutionName
		if institution == "" {
			institution = "Manual Account"
		}
		lastUpdated := formatDate(acc.UpdatedAt)
		if lastUpdated == "" {
			lastUpdated = "Never"
		}
		resp.Accounts = append(resp.Accounts, AccountLine{
			Name:        acc.Name,
			Type:        acc.AccountType,
			Balance:     acc.CurrentBalance,
			Institution: institution,
			IsLinked:    !acc.IsManual,
			LastUpdated: lastUpdated,
		})
		resp.TotalBalance = resp.TotalBalance.Add(acc.CurrentBalance)
		if acc.IsManual {
			resp.ManualAccounts++
		} else {
			resp.LinkedAccounts++
		}
	}
	sort.SliceStable(resp.Accounts, func(i, j int) bool {
		return resp.Accounts[i].Balance.GreaterThan(resp.Accounts[j].Balance)
	})
	resp.Text = a.printer.Sprintf("You have %d accounts with a total balance of %s. %d are linked and %d are manual.",
		resp.TotalAccounts, a.money(resp.TotalBalance), resp.LinkedAccounts, resp.ManualAccounts)
	return resp, nil
}

func (a *Assistant) generalChat() *GeneralChat {
	return &GeneralChat{
		Suggestions: append([]string(nil), chatSuggestions...),
		Text: "I'm your personal finance assistant! I can help you with spending summaries, budget tracking, " +
			"transaction searches, and financial advice. What would you like to know about your finances?",
	}
}
