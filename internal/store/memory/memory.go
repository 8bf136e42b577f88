// Package memory is the in-process Store backend, used by tests, the
// CSV preview flow, and single-session runs that do not need
// durability.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/runwayhq/runway/internal/domain"
	"github.com/runwayhq/runway/internal/store"
)

// Store keeps both collections in maps guarded by one mutex.
// Subscribers receive the full replacement collection synchronously
// on every write, matching the contract's full-replace semantics.
type Store struct {
	mu sync.RWMutex

	transactions map[string]domain.Transaction
	estimates    map[string]domain.Estimate

	nextSub int
	txSubs  map[int]func([]domain.Transaction)
	estSubs map[int]func([]domain.Estimate)
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		transactions: make(map[string]domain.Transaction),
		estimates:    make(map[string]domain.Estimate),
		txSubs:       make(map[int]func([]domain.Transaction)),
		estSubs:      make(map[int]func([]domain.Estimate)),
	}
}

func (s *Store) PutTransactions(ctx context.Context, txs []domain.Transaction) error {
	s.mu.Lock()
	for _, tx := range txs {
		s.transactions[tx.ID] = tx
	}
	subs, snapshot := s.txSubscribersLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, f store.Filter) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		if store.MatchTransaction(tx, f) {
			out = append(out, tx)
		}
	}
	sortTransactions(out)
	return out, nil
}

func (s *Store) DeleteTransactions(ctx context.Context, ids []string) error {
	s.mu.Lock()
	for _, id := range ids {
		delete(s.transactions, id)
	}
	subs, snapshot := s.txSubscribersLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
	return nil
}

func (s *Store) SubscribeTransactions(ctx context.Context, fn func([]domain.Transaction)) (store.Unsubscribe, error) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.txSubs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.txSubs, id)
			s.mu.Unlock()
		})
	}, nil
}

func (s *Store) PutEstimates(ctx context.Context, ests []domain.Estimate) error {
	s.mu.Lock()
	for _, e := range ests {
		s.estimates[e.ID] = e
	}
	subs, snapshot := s.estSubscribersLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
	return nil
}

func (s *Store) ListEstimates(ctx context.Context, f store.Filter) ([]domain.Estimate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Estimate, 0, len(s.estimates))
	for _, e := range s.estimates {
		if store.MatchEstimate(e, f) {
			out = append(out, e)
		}
	}
	sortEstimates(out)
	return out, nil
}

func (s *Store) DeleteEstimates(ctx context.Context, ids []string) error {
	s.mu.Lock()
	for _, id := range ids {
		delete(s.estimates, id)
	}
	subs, snapshot := s.estSubscribersLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
	return nil
}

func (s *Store) SubscribeEstimates(ctx context.Context, fn func([]domain.Estimate)) (store.Unsubscribe, error) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.estSubs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.estSubs, id)
			s.mu.Unlock()
		})
	}, nil
}

func (s *Store) Hashes(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.transactions))
	for _, tx := range s.transactions {
		out = append(out, tx.Hash)
	}
	return out, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) txSubscribersLocked() ([]func([]domain.Transaction), []domain.Transaction) {
	subs := make([]func([]domain.Transaction), 0, len(s.txSubs))
	for _, fn := range s.txSubs {
		subs = append(subs, fn)
	}
	snapshot := make([]domain.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		snapshot = append(snapshot, tx)
	}
	sortTransactions(snapshot)
	return subs, snapshot
}

func (s *Store) estSubscribersLocked() ([]func([]domain.Estimate), []domain.Estimate) {
	subs := make([]func([]domain.Estimate), 0, len(s.estSubs))
	for _, fn := range s.estSubs {
		subs = append(subs, fn)
	}
	snapshot := make([]domain.Estimate, 0, len(s.estimates))
	for _, e := range s.estimates {
		snapshot = append(snapshot, e)
	}
	sortEstimates(snapshot)
	return subs, snapshot
}

func sortTransactions(txs []domain.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].ID < txs[j].ID
	})
}

func sortEstimates(ests []domain.Estimate) {
	sort.Slice(ests, func(i, j int) bool {
		if !ests[i].WeekStart.Equal(ests[j].WeekStart) {
			return ests[i].WeekStart.Before(ests[j].WeekStart)
		}
		return ests[i].ID < ests[j].ID
	})
}
