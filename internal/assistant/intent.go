// Package assistant answers natural-language questions about a user's
// finances by routing them to a fixed set of keyword-detected intents.
package assistant

import "strings"

// Intent identifies which handler answers a query.
type Intent string

// Supported intents.
const (
	IntentSpendingSummary   Intent = "spending_summary"
	IntentBudgetStatus      Intent = "budget_status"
	IntentTransactionSearch Intent = "transaction_search"
	IntentFinancialAdvice   Intent = "financial_advice"
	IntentGoalProgress      Intent = "goal_progress"
	IntentCategoryAnalysis  Intent = "category_analysis"
	IntentNetWorth          Intent = "net_worth"
	IntentAccountSummary    Intent = "account_summary"
	IntentGeneralChat       Intent = "general_chat"
)

type intentRule struct {
	intent   Intent
	keywords []string
}

// Checked in order; the first rule with a matching keyword wins.
var intentRules = []intentRule{
	{IntentNetWorth, []string{"net worth", "worth", "assets", "liabilities"}},
	{IntentAccountSummary, []string{"account", "accounts", "balance", "balances"}},
	{IntentSpendingSummary, []string{"spend", "spent", "spending", "expense"}},
	{IntentBudgetStatus, []string{"budget", "budgets", "remaining"}},
	{IntentTransactionSearch, []string{"find", "search", "show me", "transactions"}},
	{IntentFinancialAdvice, []string{"advice", "recommend", "suggest", "should i"}},
	{IntentGoalProgress, []string{"goal", "goals", "save", "saving"}},
	{IntentCategoryAnalysis, []string{"category", "categories", "groceries", "restaurants"}},
}

// DetectIntent classifies a query by case-insensitive substring match
// against the keyword groups. Unmatched queries are general chat.
func DetectIntent(query string) Intent {
	q := strings.ToLower(query)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(q, kw) {
				return rule.intent
			}
		}
	}
	return IntentGeneralChat
}

var searchStopWords = map[string]struct{}{
	"show": {}, "me": {}, "find": {}, "search": {}, "for": {}, "transactions": {},
	"at": {}, "from": {}, "in": {}, "the": {}, "a": {}, "an": {},
}

// ExtractSearchTerms lowercases the query and keeps words longer than two
// characters that are not search stop words. Surrounding punctuation is
// stripped from each word.
func ExtractSearchTerms(query string) []string {
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if len(word) <= 2 {
			continue
		}
		if _, stop := searchStopWords[word]; stop {
			continue
		}
		terms = append(terms, word)
	}
	return terms
}
