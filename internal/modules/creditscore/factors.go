// Package creditscore estimates a synthetic FICO-style score from the
// user's own recorded data. No external bureau is consulted; the score
// is a deterministic, explainable function of the current snapshot.
package creditscore

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quillbooks/quill/internal/domain"
	"github.com/quillbooks/quill/internal/utils"
)

// Factor weights. They sum to 1.0, so the aggregate score is bounded
// to [300, 850] by construction.
const (
	weightPaymentHistory    = 0.35
	weightCreditUtilization = 0.30
	weightHistoryLength     = 0.15
	weightCreditMix         = 0.10
	weightNewCredit         = 0.10
)

// newCreditMonths is how far back a debt counts as recently opened
const newCreditMonths = 6

// Snapshot is the point-in-time data a score is computed from.
// Now is injected so tests can pin the clock.
type Snapshot struct {
	Now              time.Time
	Transactions     []domain.Transaction
	Debts            []domain.Debt
	RecurringCharges []domain.RecurringCharge
}

// Factor is one scored sub-component of the model
type Factor struct {
	Name   string  `json:"name"`
	Detail string  `json:"detail"`
	Score  float64 `json:"score"` // in [0, 1]
	Weight float64 `json:"weight"`
}

// paymentHistory scores the fraction of recurring charges paid by
// their due date. Users with no recurring charges get a neutral 0.5.
func paymentHistory(s Snapshot) Factor {
	f := Factor{Name: "payment_history", Weight: weightPaymentHistory}

	if len(s.RecurringCharges) == 0 {
		f.Score = 0.5
		f.Detail = "No recurring charges on record"
		return f
	}

	onTime := 0
	for _, c := range s.RecurringCharges {
		if c.PaidOnTime() {
			onTime++
		}
	}
	fraction := float64(onTime) / float64(len(s.RecurringCharges))

	switch {
	case fraction >= 0.95:
		f.Score = 1.0
	case fraction >= 0.85:
		f.Score = 0.85
	case fraction >= 0.70:
		f.Score = 0.70
	default:
		f.Score = 0.50
	}
	f.Detail = describePercent("On-time payment rate", fraction)
	return f
}

// creditUtilization scores total debt against total recorded income.
// No income at all is scored neutral rather than maximally bad.
func creditUtilization(s Snapshot) Factor {
	f := Factor{Name: "credit_utilization", Weight: weightCreditUtilization}

	income := totalIncome(s.Transactions)
	if !income.IsPositive() {
		f.Score = 0.5
		f.Detail = "No income recorded"
		return f
	}

	ratio, _ := totalDebt(s.Debts).Div(income).Float64()
	switch {
	case ratio <= 0.10:
		f.Score = 1.0
	case ratio <= 0.30:
		f.Score = 0.85
	case ratio <= 0.50:
		f.Score = 0.65
	default:
		f.Score = 0.40
	}
	f.Detail = describePercent("Debt-to-income ratio", ratio)
	return f
}

// historyLength scores the months elapsed since the earliest
// transaction
func historyLength(s Snapshot) Factor {
	f := Factor{Name: "credit_history_length", Weight: weightHistoryLength}

	earliest, ok := earliestTransaction(s.Transactions)
	if !ok {
		f.Score = 0.3
		f.Detail = "No transaction history"
		return f
	}

	months := utils.MonthsBetween(earliest, s.Now)
	switch {
	case months >= 84:
		f.Score = 1.0
	case months >= 60:
		f.Score = 0.85
	case months >= 36:
		f.Score = 0.70
	case months >= 12:
		f.Score = 0.50
	default:
		f.Score = 0.30
	}
	f.Detail = describeMonths(months)
	return f
}

// creditMix scores the variety of open account types: distinct debt
// types plus one synthetic SUBSCRIPTION type when recurring charges exist
func creditMix(s Snapshot) Factor {
	f := Factor{Name: "credit_mix", Weight: weightCreditMix}

	types := make(map[string]struct{})
	for _, d := range s.Debts {
		types[d.Type] = struct{}{}
	}
	if len(s.RecurringCharges) > 0 {
		types["SUBSCRIPTION"] = struct{}{}
	}

	switch n := len(types); {
	case n >= 5:
		f.Score = 1.0
	case n >= 3:
		f.Score = 0.80
	case n >= 2:
		f.Score = 0.60
	case n == 1:
		f.Score = 0.40
	default:
		f.Score = 0.30
	}
	f.Detail = describeCount("Distinct credit types", len(types))
	return f
}

// newCredit scores how many debts were opened in the last six months.
// Fewer recent openings score higher.
func newCredit(s Snapshot) Factor {
	f := Factor{Name: "new_credit", Weight: weightNewCredit}

	cutoff := s.Now.AddDate(0, -newCreditMonths, 0)
	recent := 0
	for _, d := range s.Debts {
		if d.CreatedAt.After(cutoff) {
			recent++
		}
	}

	switch {
	case recent == 0:
		f.Score = 1.0
	case recent == 1:
		f.Score = 0.85
	case recent <= 3:
		f.Score = 0.70
	default:
		f.Score = 0.50
	}
	f.Detail = describeCount("Debts opened in the last 6 months", recent)
	return f
}

func totalIncome(txs []domain.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Type == domain.TransactionIncome {
			total = total.Add(tx.Magnitude())
		}
	}
	return total
}

func totalDebt(debts []domain.Debt) decimal.Decimal {
	total := decimal.Zero
	for _, d := range debts {
		total = total.Add(d.Balance)
	}
	return total
}

func earliestTransaction(txs []domain.Transaction) (time.Time, bool) {
	if len(txs) == 0 {
		return time.Time{}, false
	}
	earliest := txs[0].Date
	for _, tx := range txs[1:] {
		if tx.Date.Before(earliest) {
			earliest = tx.Date
		}
	}
	return earliest, true
}
