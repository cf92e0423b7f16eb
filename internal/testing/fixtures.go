package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quillbooks/quill/internal/domain"
)

// NewPartitionFixture returns a business partition used across tests
func NewPartitionFixture() domain.Partition {
	return domain.Partition{
		UserID:    "user-1",
		ProfileID: "profile-abcd1234",
		Kind:      domain.ProfileBusiness,
	}
}

// NewTransactionFixtures returns the canonical test transaction set:
// one January sale, one January expense, one February sale.
func NewTransactionFixtures(p domain.Partition) []domain.Transaction {
	return []domain.Transaction{
		{
			ID:          "tx-1",
			UserID:      p.UserID,
			ProfileID:   p.ProfileID,
			Date:        time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			Amount:      decimal.NewFromInt(1000),
			Description: "Invoice #1001",
			Category:    "Sales",
			Type:        domain.TransactionIncome,
			CreatedAt:   time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:          "tx-2",
			UserID:      p.UserID,
			ProfileID:   p.ProfileID,
			Date:        time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
			Amount:      decimal.NewFromInt(-400),
			Description: "Printer paper and toner",
			Category:    "Office Supplies",
			Type:        domain.TransactionExpense,
			CreatedAt:   time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:          "tx-3",
			UserID:      p.UserID,
			ProfileID:   p.ProfileID,
			Date:        time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC),
			Amount:      decimal.NewFromInt(200),
			Description: "Invoice #1002",
			Category:    "Sales",
			Type:        domain.TransactionIncome,
			CreatedAt:   time.Date(2024, 2, 3, 12, 0, 0, 0, time.UTC),
		},
	}
}

// NewCategoryFixtures returns categories matching the transaction fixtures
func NewCategoryFixtures(p domain.Partition) []domain.Category {
	return []domain.Category{
		{UserID: p.UserID, ProfileID: p.ProfileID, Name: "Sales", Type: domain.TransactionIncome},
		{UserID: p.UserID, ProfileID: p.ProfileID, Name: "Office Supplies", Type: domain.TransactionExpense},
	}
}

// NewDebtFixtures returns a mixed set of debts for credit model tests
func NewDebtFixtures(userID string, now time.Time) []domain.Debt {
	return []domain.Debt{
		{
			ID:        "debt-1",
			UserID:    userID,
			Type:      "CREDIT_CARD",
			Balance:   decimal.NewFromInt(1200),
			CreatedAt: now.AddDate(-2, 0, 0),
		},
		{
			ID:        "debt-2",
			UserID:    userID,
			Type:      "LOAN",
			Balance:   decimal.NewFromInt(8000),
			CreatedAt: now.AddDate(0, -3, 0),
		},
	}
}

// NewRecurringChargeFixtures returns recurring charges with a mix of
// on-time and late payments
func NewRecurringChargeFixtures(userID string, now time.Time) []domain.RecurringCharge {
	due := now.AddDate(0, 0, -10)
	onTime := due.AddDate(0, 0, -1)
	late := due.AddDate(0, 0, 3)
	return []domain.RecurringCharge{
		{
			ID:           "rc-1",
			UserID:       userID,
			Name:         "Accounting software",
			Status:       domain.RecurringPaid,
			LastPaidDate: &onTime,
			NextDueDate:  &due,
			CreatedAt:    now.AddDate(-1, 0, 0),
		},
		{
			ID:           "rc-2",
			UserID:       userID,
			Name:         "Web hosting",
			Status:       domain.RecurringPaid,
			LastPaidDate: &late,
			NextDueDate:  &due,
			CreatedAt:    now.AddDate(0, -8, 0),
		},
	}
}
