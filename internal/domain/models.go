// Package domain provides core domain models and types.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a cash movement
type TransactionType string

const (
	TransactionIncome  TransactionType = "INCOME"
	TransactionExpense TransactionType = "EXPENSE"
)

// AccountType represents one of the five standard ledger account types
type AccountType string

const (
	AccountAsset     AccountType = "ASSET"
	AccountLiability AccountType = "LIABILITY"
	AccountEquity    AccountType = "EQUITY"
	AccountRevenue   AccountType = "REVENUE"
	AccountExpense   AccountType = "EXPENSE"
)

// ProfileKind distinguishes personal and business ledgers.
// It only affects display naming (e.g. the equity account).
type ProfileKind string

const (
	ProfilePersonal ProfileKind = "PERSONAL"
	ProfileBusiness ProfileKind = "BUSINESS"
)

// RecurringStatus is the payment state of a recurring charge
type RecurringStatus string

const (
	RecurringPaid    RecurringStatus = "PAID"
	RecurringDue     RecurringStatus = "DUE"
	RecurringOverdue RecurringStatus = "OVERDUE"
)

// ReconciliationStatus is the state of a monthly reconciliation.
// Derived reconciliations are always COMPLETED: there is no external
// bank feed to diff against, so the rollup is self-consistent by construction.
type ReconciliationStatus string

const (
	ReconciliationCompleted ReconciliationStatus = "COMPLETED"
	ReconciliationPending   ReconciliationStatus = "PENDING"
)

// Partition identifies one ledger partition: a user plus one of their
// business profiles. All derivation runs operate on a single partition
// at a time.
type Partition struct {
	UserID    string      `json:"user_id"`
	ProfileID string      `json:"profile_id"`
	Kind      ProfileKind `json:"kind"`
}

// Transaction is an immutable-once-recorded cash movement.
// Amount is signed: positive for income, negative for expenses.
// Type is redundant metadata validated against the sign at read time.
type Transaction struct {
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	UserID      string          `json:"user_id"`
	ProfileID   string          `json:"profile_id"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
}

// Magnitude returns the unsigned size of the transaction
func (t Transaction) Magnitude() decimal.Decimal {
	return t.Amount.Abs()
}

// SignedAmount returns the amount with the sign implied by the
// transaction type, regardless of how the raw amount was stored.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionExpense {
		return t.Amount.Abs().Neg()
	}
	return t.Amount.Abs()
}

// Category is a named transaction grouping scoped to a profile
type Category struct {
	Name      string          `json:"name"`
	UserID    string          `json:"user_id"`
	ProfileID string          `json:"profile_id"`
	Type      TransactionType `json:"type"`
}

// Account is a single row in the chart of accounts.
// Code is unique per user across all their profiles.
type Account struct {
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	UserID      string      `json:"user_id"`
	ProfileID   string      `json:"profile_id"`
	Type        AccountType `json:"type"`
	ID          int64       `json:"id"`
}

// JournalEntry is one balanced double-entry record derived from a
// single transaction. TotalDebit always equals TotalCredit.
type JournalEntry struct {
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
	EntryNumber string          `json:"entry_number"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"` // source transaction id
	UserID      string          `json:"user_id"`
	ProfileID   string          `json:"profile_id"`
	Lines       []JournalLine   `json:"lines"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	ID          int64           `json:"id"`
}

// Balanced reports whether the entry satisfies the double-entry invariant:
// totals match each other and the sums of the child lines.
func (e JournalEntry) Balanced() bool {
	if !e.TotalDebit.Equal(e.TotalCredit) {
		return false
	}
	debits := decimal.Zero
	credits := decimal.Zero
	for _, l := range e.Lines {
		debits = debits.Add(l.DebitAmount)
		credits = credits.Add(l.CreditAmount)
	}
	return debits.Equal(e.TotalDebit) && credits.Equal(e.TotalCredit)
}

// JournalLine is one side of a journal entry. Exactly one of
// DebitAmount / CreditAmount is nonzero.
type JournalLine struct {
	Description  string          `json:"description"`
	AccountID    int64           `json:"account_id"`
	DebitAmount  decimal.Decimal `json:"debit_amount"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
	ID           int64           `json:"id"`
}

// Reconciliation is a monthly cash rollup for one partition.
// One row per (user, profile, year, month).
type Reconciliation struct {
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	UserID         string               `json:"user_id"`
	ProfileID      string               `json:"profile_id"`
	Notes          string               `json:"notes"`
	Status         ReconciliationStatus `json:"status"`
	OpeningBalance decimal.Decimal      `json:"opening_balance"`
	ClosingBalance decimal.Decimal      `json:"closing_balance"`
	BankBalance    decimal.Decimal      `json:"bank_balance"`
	Difference     decimal.Decimal      `json:"difference"`
	Year           int                  `json:"year"`
	Month          int                  `json:"month"` // 1-12
	ID             int64                `json:"id"`
}

// Debt is an external liability consumed read-only by the credit model
type Debt struct {
	CreatedAt    time.Time       `json:"created_at"`
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Type         string          `json:"type"` // e.g. CREDIT_CARD, LOAN, MORTGAGE
	Balance      decimal.Decimal `json:"balance"`
	InterestRate float64         `json:"interest_rate"`
}

// RecurringCharge is a subscription-like obligation consumed read-only
// by the credit model
type RecurringCharge struct {
	CreatedAt    time.Time       `json:"created_at"`
	LastPaidDate *time.Time      `json:"last_paid_date,omitempty"`
	NextDueDate  *time.Time      `json:"next_due_date,omitempty"`
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Name         string          `json:"name"`
	Status       RecurringStatus `json:"status"`
}

// PaidOnTime reports whether the charge was settled by its due date
func (c RecurringCharge) PaidOnTime() bool {
	if c.Status != RecurringPaid || c.LastPaidDate == nil || c.NextDueDate == nil {
		return false
	}
	return !c.LastPaidDate.After(*c.NextDueDate)
}
