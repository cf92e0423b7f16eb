// Package accounts derives the chart of accounts for a ledger partition:
// the fixed standard accounts plus one account per transaction category.
package accounts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quillbooks/quill/internal/domain"
)

// Category account numerics start above the standard blocks and step by
// 10 to leave room for manual insertion between derived accounts.
const (
	revenueCategoryStart = 4100
	expenseCategoryStart = 5000
	categoryCodeStep     = 10
)

// standardAccount is a fixed account emitted for every partition
type standardAccount struct {
	numeric     int
	name        string
	accountType domain.AccountType
	description string
}

// standardAccounts returns the fixed account set for a partition.
// The profile kind only changes the equity account's display name.
func standardAccounts(kind domain.ProfileKind) []standardAccount {
	equityName := "Owner's Equity"
	if kind == domain.ProfilePersonal {
		equityName = "Personal Equity"
	}

	return []standardAccount{
		{1000, "Cash", domain.AccountAsset, "Cash on hand"},
		{1010, "Checking", domain.AccountAsset, "Primary checking account"},
		{1020, "Savings", domain.AccountAsset, "Savings account"},
		{1030, "Accounts Receivable", domain.AccountAsset, "Amounts owed by customers"},
		{2000, "Accounts Payable", domain.AccountLiability, "Amounts owed to suppliers"},
		{2010, "Credit Cards", domain.AccountLiability, "Credit card balances"},
		{2020, "Loans Payable", domain.AccountLiability, "Outstanding loan balances"},
		{3000, equityName, domain.AccountEquity, "Owner contributions and draws"},
		{3010, "Retained Earnings", domain.AccountEquity, "Accumulated earnings"},
		{4000, "Sales Revenue", domain.AccountRevenue, "Revenue from sales"},
		{4010, "Service Revenue", domain.AccountRevenue, "Revenue from services"},
		{4020, "Other Income", domain.AccountRevenue, "Miscellaneous income"},
	}
}

// formatCode builds the full account code: numeric body plus the last
// four characters of the profile id, so codes stay unique within a user
// even when two profiles derive the same numeric body.
func formatCode(numeric int, profileID string) string {
	return fmt.Sprintf("%d-%s", numeric, profileSuffix(profileID))
}

func profileSuffix(profileID string) string {
	if len(profileID) <= 4 {
		return profileID
	}
	return profileID[len(profileID)-4:]
}

// categoryStart returns the first numeric body for category accounts of
// the given transaction type
func categoryStart(t domain.TransactionType) int {
	if t == domain.TransactionIncome {
		return revenueCategoryStart
	}
	return expenseCategoryStart
}

// categoryAccountType maps a category's transaction type to the ledger
// account type of its derived account
func categoryAccountType(t domain.TransactionType) domain.AccountType {
	if t == domain.TransactionIncome {
		return domain.AccountRevenue
	}
	return domain.AccountExpense
}

// nextNumeric returns the next free numeric body for a category account
// of the given transaction type, given the accounts already present in
// the partition. Both the chart builder and the journal builder's
// on-the-fly creation use this, so their codes never collide.
func nextNumeric(existing []domain.Account, t domain.TransactionType) int {
	start := categoryStart(t)
	max := start - categoryCodeStep
	for _, a := range existing {
		numeric, ok := parseNumeric(a.Code)
		if !ok || numeric < start {
			continue
		}
		// Revenue category numerics must not run into the expense block
		if t == domain.TransactionIncome && numeric >= expenseCategoryStart {
			continue
		}
		if numeric > max {
			max = numeric
		}
	}
	return max + categoryCodeStep
}

func parseNumeric(code string) (int, bool) {
	body, _, found := strings.Cut(code, "-")
	if !found {
		body = code
	}
	n, err := strconv.Atoi(body)
	if err != nil {
		return 0, false
	}
	return n, true
}
