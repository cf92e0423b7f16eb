package reconciliation

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/quillbooks/quill/internal/domain"
	"github.com/quillbooks/quill/internal/utils"
)

// BuildReport summarizes one reconciliation derivation pass
type BuildReport struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Builder rolls transactions up into one reconciliation per calendar
// month. The running balance starts at zero at the first transaction
// and each month opens with the prior month's closing balance, so the
// chain stays continuous across the whole history.
type Builder struct {
	repo *Repository
	log  zerolog.Logger
}

// NewBuilder creates a new reconciliation builder
func NewBuilder(repo *Repository, log zerolog.Logger) *Builder {
	return &Builder{
		repo: repo,
		log:  log.With().Str("component", "reconciliation_builder").Logger(),
	}
}

type monthBucket struct {
	year  int
	month int
	net   decimal.Decimal
}

// Build derives the partition's monthly reconciliations. Months are
// walked in order; invalid transactions are excluded from the rollup.
// There is no external bank feed, so the bank balance mirrors the
// closing balance and every row completes with a zero difference.
func (b *Builder) Build(p domain.Partition, txs []domain.Transaction) (BuildReport, error) {
	var report BuildReport

	buckets := bucketByMonth(txs, b.log)
	if len(buckets) == 0 {
		b.log.Debug().
			Str("user_id", p.UserID).
			Str("profile_id", p.ProfileID).
			Msg("No transactions to reconcile")
		return report, nil
	}

	running := decimal.Zero
	for _, bucket := range buckets {
		opening := running
		running = running.Add(bucket.net)

		rec := domain.Reconciliation{
			UserID:         p.UserID,
			ProfileID:      p.ProfileID,
			Year:           bucket.year,
			Month:          bucket.month,
			OpeningBalance: opening,
			ClosingBalance: running,
			BankBalance:    running,
			Difference:     decimal.Zero,
			Status:         domain.ReconciliationCompleted,
			Notes:          fmt.Sprintf("Derived from transactions for %d-%02d", bucket.year, bucket.month),
		}

		created, err := b.repo.Upsert(rec)
		if err != nil {
			b.log.Error().Err(err).
				Int("year", bucket.year).
				Int("month", bucket.month).
				Msg("Failed to upsert reconciliation, skipping month")
			report.Skipped++
			continue
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}

	b.log.Info().
		Str("user_id", p.UserID).
		Str("profile_id", p.ProfileID).
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("skipped", report.Skipped).
		Msg("Reconciliations derived")

	return report, nil
}

// bucketByMonth groups valid transactions into calendar-month buckets
// sorted chronologically. Net flow per month uses the type-implied sign.
func bucketByMonth(txs []domain.Transaction, log zerolog.Logger) []monthBucket {
	byKey := make(map[[2]int]*monthBucket)
	for _, tx := range txs {
		if err := domain.ValidateTransaction(tx); err != nil {
			log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Excluding invalid transaction from reconciliation")
			continue
		}
		year, month := utils.MonthKey(tx.Date)
		key := [2]int{year, month}
		bucket, ok := byKey[key]
		if !ok {
			bucket = &monthBucket{year: year, month: month, net: decimal.Zero}
			byKey[key] = bucket
		}
		bucket.net = bucket.net.Add(tx.SignedAmount())
	}

	buckets := make([]monthBucket, 0, len(byKey))
	for _, bucket := range byKey {
		buckets = append(buckets, *bucket)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].year != buckets[j].year {
			return buckets[i].year < buckets[j].year
		}
		return buckets[i].month < buckets[j].month
	})
	return buckets
}
