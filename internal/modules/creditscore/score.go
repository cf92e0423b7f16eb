package creditscore

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Rating bands map the numeric score to the familiar consumer labels
const (
	RatingExceptional = "Exceptional"
	RatingVeryGood    = "Very Good"
	RatingGood        = "Good"
	RatingFair        = "Fair"
	RatingPoor        = "Poor"
)

// Result is one computed credit score with its full factor breakdown
// and summary metrics
type Result struct {
	ComputedAt        time.Time       `json:"computed_at"`
	Rating            string          `json:"rating"`
	Factors           []Factor        `json:"factors"`
	TotalDebt         decimal.Decimal `json:"total_debt"`
	CreditUtilization float64         `json:"credit_utilization"` // rounded percentage
	AvgAccountAge     float64         `json:"avg_account_age"`    // months
	Score             int             `json:"score"`
	Accounts          int             `json:"accounts"`
	// Inquiries is always 0: there is no bureau integration that could
	// report hard pulls. Kept in the output as a known gap.
	Inquiries int `json:"inquiries"`
}

// Compute scores a snapshot. Pure function: same snapshot, same result.
func Compute(s Snapshot) Result {
	factors := []Factor{
		paymentHistory(s),
		creditUtilization(s),
		historyLength(s),
		creditMix(s),
		newCredit(s),
	}

	weighted := 0.0
	for _, f := range factors {
		weighted += f.Score * f.Weight
	}
	score := int(math.Round(300 + 550*weighted))

	return Result{
		ComputedAt:        s.Now,
		Score:             score,
		Rating:            rating(score),
		Factors:           factors,
		TotalDebt:         totalDebt(s.Debts),
		CreditUtilization: utilizationPercent(s),
		Accounts:          len(s.Debts) + len(s.RecurringCharges),
		Inquiries:         0,
		AvgAccountAge:     avgAccountAgeMonths(s),
	}
}

func rating(score int) string {
	switch {
	case score >= 800:
		return RatingExceptional
	case score >= 740:
		return RatingVeryGood
	case score >= 670:
		return RatingGood
	case score >= 580:
		return RatingFair
	default:
		return RatingPoor
	}
}

// utilizationPercent is totalDebt/totalIncome as a rounded percentage,
// 0 when there is no income to measure against
func utilizationPercent(s Snapshot) float64 {
	income := totalIncome(s.Transactions)
	if !income.IsPositive() {
		return 0
	}
	ratio, _ := totalDebt(s.Debts).Div(income).Float64()
	return math.Round(ratio * 100)
}

// avgAccountAgeMonths averages the age of all debts and recurring
// charges, in months
func avgAccountAgeMonths(s Snapshot) float64 {
	count := len(s.Debts) + len(s.RecurringCharges)
	if count == 0 {
		return 0
	}

	totalMonths := 0.0
	for _, d := range s.Debts {
		totalMonths += monthsSince(d.CreatedAt, s.Now)
	}
	for _, c := range s.RecurringCharges {
		totalMonths += monthsSince(c.CreatedAt, s.Now)
	}
	return math.Round(totalMonths/float64(count)*10) / 10
}

func monthsSince(from, to time.Time) float64 {
	if from.After(to) {
		return 0
	}
	return to.Sub(from).Hours() / (24 * 30.44)
}

func describePercent(label string, fraction float64) string {
	return fmt.Sprintf("%s: %.0f%%", label, fraction*100)
}

func describeMonths(months int) string {
	return fmt.Sprintf("Oldest activity: %d months ago", months)
}

func describeCount(label string, n int) string {
	return fmt.Sprintf("%s: %d", label, n)
}
