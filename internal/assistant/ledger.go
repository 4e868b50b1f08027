package assistant

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"intellifinance/fincat/internal/models"
)

// Ledger supplies the financial data the assistant reasons about.
type Ledger interface {
	Transactions(ctx context.Context) ([]models.Transaction, error)
	Accounts(ctx context.Context) ([]models.Account, error)
	Budgets(ctx context.Context) ([]models.Budget, error)
	Goals(ctx context.Context) ([]models.Goal, error)
}

// MemoryLedger is a read-only in-memory Ledger.
type MemoryLedger struct {
	TransactionList []models.Transaction `yaml:"transactions"`
	AccountList     []models.Account     `yaml:"accounts"`
	BudgetList      []models.Budget      `yaml:"budgets"`
	GoalList        []models.Goal        `yaml:"goals"`
}

// LoadLedgerFile reads a YAML ledger with top-level transactions, accounts,
// budgets and goals lists.
func LoadLedgerFile(path string) (*MemoryLedger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger file %s: %w", path, err)
	}
	var l MemoryLedger
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse ledger file %s: %w", path, err)
	}
	for i, t := range l.TransactionList {
		if !t.Category.IsValid() {
			l.TransactionList[i].Category = models.CoerceCategory(string(t.Category))
		}
	}
	return &l, nil
}

func (l *MemoryLedger) Transactions(context.Context) ([]models.Transaction, error) {
	return l.TransactionList, nil
}

func (l *MemoryLedger) Accounts(context.Context) ([]models.Account, error) {
	return l.AccountList, nil
}

func (l *MemoryLedger) Budgets(context.Context) ([]models.Budget, error) {
	return l.BudgetList, nil
}

func (l *MemoryLedger) Goals(context.Context) ([]models.Goal, error) {
	return l.GoalList, nil
}
