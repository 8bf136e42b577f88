package bigquery

import (
	"context"
	"fmt"
	"sync"
	"time"

	bq "cloud.google.com/go/bigquery"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"

	"github.com/runwayhq/runway/internal/domain"
	"github.com/runwayhq/runway/internal/store"
)

const (
	transactionsTable = "transactions"
	estimatesTable    = "estimates"
	dateFormat        = "2006-01-02"

	// pollInterval drives subscription freshness. BigQuery has no
	// change feed, so subscribers are served by periodic re-reads.
	pollInterval = 30 * time.Second
)

// Store reads and writes the forecast collections in a BigQuery
// dataset. Upserts are modelled as delete-then-insert inside one
// logical operation; streaming-buffer limitations make true in-place
// updates impractical for this volume.
type Store struct {
	client  *bq.Client
	dataset string
	log     zerolog.Logger

	wg sync.WaitGroup
}

// New connects to the given project and dataset.
func New(ctx context.Context, projectID, dataset string, log zerolog.Logger) (*Store, error) {
	client, err := bq.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("bigquery client: %w", err)
	}
	return &Store{client: client, dataset: dataset, log: log}, nil
}

func (s *Store) PutTransactions(ctx context.Context, txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	ids := make([]string, len(txs))
	rows := make([]*transactionRow, len(txs))
	for i, tx := range txs {
		ids[i] = tx.ID
		rows[i] = toTransactionRow(tx)
	}

	if err := s.deleteByID(ctx, transactionsTable, "transaction_id", ids); err != nil {
		return err
	}
	inserter := s.client.Dataset(s.dataset).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("insert transactions: %w", err)
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, f store.Filter) ([]domain.Transaction, error) {
	query := fmt.Sprintf(`
		SELECT *
		FROM %s.%s
		WHERE transaction_date >= @from_date
		  AND transaction_date <= @to_date
		ORDER BY transaction_date, transaction_id
	`, s.dataset, transactionsTable)

	from, to := f.From, f.To
	if from.IsZero() {
		from = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
	}

	q := s.client.Query(query)
	q.Parameters = []bq.QueryParameter{
		{Name: "from_date", Value: from.UTC().Format(dateFormat)},
		{Name: "to_date", Value: to.UTC().Format(dateFormat)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	var out []domain.Transaction
	for {
		var r transactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list transactions: iter: %w", err)
		}
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) DeleteTransactions(ctx context.Context, ids []string) error {
	return s.deleteByID(ctx, transactionsTable, "transaction_id", ids)
}

func (s *Store) SubscribeTransactions(ctx context.Context, fn func([]domain.Transaction)) (store.Unsubscribe, error) {
	return s.poll(ctx, func(ctx context.Context) error {
		txs, err := s.ListTransactions(ctx, store.Filter{})
		if err != nil {
			return err
		}
		fn(txs)
		return nil
	})
}

func (s *Store) PutEstimates(ctx context.Context, ests []domain.Estimate) error {
	if len(ests) == 0 {
		return nil
	}
	ids := make([]string, len(ests))
	rows := make([]*estimateRow, len(ests))
	for i, e := range ests {
		ids[i] = e.ID
		rows[i] = toEstimateRow(e)
	}

	if err := s.deleteByID(ctx, estimatesTable, "estimate_id", ids); err != nil {
		return err
	}
	inserter := s.client.Dataset(s.dataset).Table(estimatesTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("insert estimates: %w", err)
	}
	return nil
}

func (s *Store) ListEstimates(ctx context.Context, f store.Filter) ([]domain.Estimate, error) {
	query := fmt.Sprintf(`
		SELECT *
		FROM %s.%s
		WHERE (@scenario = '' OR scenario = @scenario)
		  AND week_start >= @from_date
		  AND week_start <= @to_date
		ORDER BY week_start, estimate_id
	`, s.dataset, estimatesTable)

	from, to := f.From, f.To
	if from.IsZero() {
		from = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
	}

	q := s.client.Query(query)
	q.Parameters = []bq.QueryParameter{
		{Name: "scenario", Value: f.Scenario},
		{Name: "from_date", Value: from.UTC().Format(dateFormat)},
		{Name: "to_date", Value: to.UTC().Format(dateFormat)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("list estimates: %w", err)
	}

	var out []domain.Estimate
	for {
		var r estimateRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list estimates: iter: %w", err)
		}
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) DeleteEstimates(ctx context.Context, ids []string) error {
	return s.deleteByID(ctx, estimatesTable, "estimate_id", ids)
}

func (s *Store) SubscribeEstimates(ctx context.Context, fn func([]domain.Estimate)) (store.Unsubscribe, error) {
	return s.poll(ctx, func(ctx context.Context) error {
		ests, err := s.ListEstimates(ctx, store.Filter{})
		if err != nil {
			return err
		}
		fn(ests)
		return nil
	})
}

func (s *Store) Hashes(ctx context.Context) ([]string, error) {
	q := s.client.Query(fmt.Sprintf(`SELECT DISTINCT hash FROM %s.%s`, s.dataset, transactionsTable))
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("list hashes: %w", err)
	}

	var out []string
	for {
		var row struct {
			Hash string `bigquery:"hash"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list hashes: iter: %w", err)
		}
		out = append(out, row.Hash)
	}
	return out, nil
}

// Close waits for active subscription pollers to observe their
// cancelled contexts, then releases the client. Callers should cancel
// subscription contexts before closing.
func (s *Store) Close() error {
	s.wg.Wait()
	return s.client.Close()
}

func (s *Store) deleteByID(ctx context.Context, table, column string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	q := s.client.Query(fmt.Sprintf(`DELETE FROM %s.%s WHERE %s IN UNNEST(@ids)`, s.dataset, table, column))
	q.Parameters = []bq.QueryParameter{{Name: "ids", Value: ids}}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("delete from %s: wait: %w", table, err)
	}
	if status.Err() != nil {
		return fmt.Errorf("delete from %s: %w", table, status.Err())
	}
	return nil
}

// poll runs refresh on an interval until the subscription is torn down
// or the parent context ends. The first refresh happens immediately so
// subscribers start from current state.
func (s *Store) poll(ctx context.Context, refresh func(context.Context) error) (store.Unsubscribe, error) {
	if err := refresh(ctx); err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-subCtx.Done():
				return
			case <-ticker.C:
				if err := refresh(subCtx); err != nil && subCtx.Err() == nil {
					s.log.Warn().Err(err).Msg("subscription refresh failed")
				}
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(cancel) }, nil
}
