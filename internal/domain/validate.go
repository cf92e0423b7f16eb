package domain

import (
	"errors"
	"fmt"
)

// ErrAmountTypeMismatch is returned when a transaction's signed amount
// contradicts its declared type.
var ErrAmountTypeMismatch = errors.New("transaction amount sign contradicts its type")

// ErrZeroAmount is returned for transactions with a zero amount.
var ErrZeroAmount = errors.New("transaction amount is zero")

// ValidateTransaction checks a transaction for upstream data anomalies.
// The signed amount is the source of truth; the type enum must agree
// with it. Callers treat a validation failure as skip-with-warning,
// not a crash.
func ValidateTransaction(t Transaction) error {
	if t.Amount.IsZero() {
		return fmt.Errorf("transaction %s: %w", t.ID, ErrZeroAmount)
	}
	switch t.Type {
	case TransactionIncome:
		if t.Amount.Sign() < 0 {
			return fmt.Errorf("transaction %s: %w (INCOME with negative amount)", t.ID, ErrAmountTypeMismatch)
		}
	case TransactionExpense:
		if t.Amount.Sign() > 0 {
			return fmt.Errorf("transaction %s: %w (EXPENSE with positive amount)", t.ID, ErrAmountTypeMismatch)
		}
	default:
		return fmt.Errorf("transaction %s: unknown type %q", t.ID, t.Type)
	}
	if t.Category == "" {
		return fmt.Errorf("transaction %s: empty category", t.ID)
	}
	return nil
}
