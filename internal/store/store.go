// Package store defines the persistence contract the forecasting core
// depends on: a document-style abstraction with upsert-by-id writes,
// filtered lists, deletes, and full-replace change subscriptions. The
// core never issues queries beyond equality and date-range filters, so
// any backend that can do that much qualifies.
package store

import (
	"context"
	"time"

	"github.com/runwayhq/runway/internal/domain"
)

// Filter narrows a List call. Zero values mean "no constraint".
// From/To bound the transaction date or the estimate week anchor,
// inclusive on both ends.
type Filter struct {
	Scenario string
	From     time.Time
	To       time.Time
}

// Unsubscribe detaches a subscription. Safe to call more than once.
type Unsubscribe func()

// Store is the persisted source of truth for transactions and
// estimates.
//
// Put upserts by id and is idempotent. Subscriptions deliver the full
// replacement collection on every change, never a patch; the core
// recomputes from scratch on each push. Callbacks run on the store's
// goroutine and must not block.
type Store interface {
	PutTransactions(ctx context.Context, txs []domain.Transaction) error
	ListTransactions(ctx context.Context, f Filter) ([]domain.Transaction, error)
	DeleteTransactions(ctx context.Context, ids []string) error
	SubscribeTransactions(ctx context.Context, fn func([]domain.Transaction)) (Unsubscribe, error)

	PutEstimates(ctx context.Context, ests []domain.Estimate) error
	ListEstimates(ctx context.Context, f Filter) ([]domain.Estimate, error)
	DeleteEstimates(ctx context.Context, ids []string) error
	SubscribeEstimates(ctx context.Context, fn func([]domain.Estimate)) (Unsubscribe, error)

	// Hashes returns every persisted transaction hash, for seeding the
	// exact-dedup index before an import.
	Hashes(ctx context.Context) ([]string, error)

	Close() error
}

// MatchTransaction reports whether a transaction passes the filter.
// Shared by backends that filter in process.
func MatchTransaction(tx domain.Transaction, f Filter) bool {
	if !f.From.IsZero() && tx.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && tx.Date.After(f.To) {
		return false
	}
	return true
}

// MatchEstimate reports whether an estimate passes the filter.
func MatchEstimate(e domain.Estimate, f Filter) bool {
	if f.Scenario != "" && e.Scenario != f.Scenario {
		return false
	}
	if !f.From.IsZero() && e.WeekStart.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.WeekStart.After(f.To) {
		return false
	}
	return true
}
