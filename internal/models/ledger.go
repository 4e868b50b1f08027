package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Account types treated as liabilities when computing net worth.
const (
	AccountTypeCreditCard = "credit_card"
	AccountTypeLoan       = "loan"
	AccountTypeMortgage   = "mortgage"
)

// Account is a user's financial account as seen by the assistant.
type Account struct {
	Name            string          `yaml:"name" json:"name"`
	AccountType     string          `yaml:"account_type" json:"account_type"`
	CurrentBalance  decimal.Decimal `yaml:"current_balance" json:"current_balance"`
	InstitutionName string          `yaml:"institution_name" json:"institution_name,omitempty"`
	IsManual        bool            `yaml:"is_manual" json:"is_manual"`
	IsActive        bool            `yaml:"is_active" json:"is_active"`
	UpdatedAt       *time.Time      `yaml:"updated_at" json:"updated_at,omitempty"`
}

// IsLiability reports whether the account balance is money owed.
func (a Account) IsLiability() bool {
	switch strings.ToLower(a.AccountType) {
	case AccountTypeCreditCard, AccountTypeLoan, AccountTypeMortgage:
		return true
	}
	return false
}

// Transaction is a booked transaction. Positive amounts are expenses.
type Transaction struct {
	ID              string          `yaml:"id" json:"id"`
	TransactionDate time.Time       `yaml:"transaction_date" json:"transaction_date"`
	Description     string          `yaml:"description" json:"description"`
	MerchantName    string          `yaml:"merchant_name" json:"merchant_name,omitempty"`
	Amount          decimal.Decimal `yaml:"amount" json:"amount"`
	Category        Category        `yaml:"category" json:"category"`
}

// IsExpense reports whether the transaction is money spent.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsPositive()
}

// Budget caps spending in one category over a date range.
type Budget struct {
	Category  Category        `yaml:"category" json:"category"`
	Amount    decimal.Decimal `yaml:"amount" json:"amount"`
	StartDate time.Time       `yaml:"start_date" json:"start_date"`
	EndDate   time.Time       `yaml:"end_date" json:"end_date"`
	IsActive  bool            `yaml:"is_active" json:"is_active"`
}

// Goal is a savings target.
type Goal struct {
	Name          string          `yaml:"name" json:"name"`
	TargetAmount  decimal.Decimal `yaml:"target_amount" json:"target_amount"`
	CurrentAmount decimal.Decimal `yaml:"current_amount" json:"current_amount"`
	TargetDate    *time.Time      `yaml:"target_date" json:"target_date,omitempty"`
	IsActive      bool            `yaml:"is_active" json:"is_active"`
}
