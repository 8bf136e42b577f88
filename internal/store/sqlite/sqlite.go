// Package sqlite is the single-node durable Store backend, backed by a
// local SQLite file. Suited to the CLI tools and small deployments
// that do not warrant a warehouse.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/runwayhq/runway/internal/domain"
	"github.com/runwayhq/runway/internal/store"
)

const dateLayout = "2006-01-02"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		id            TEXT PRIMARY KEY,
		hash          TEXT NOT NULL,
		date          TEXT NOT NULL,
		amount        TEXT NOT NULL,
		direction     TEXT NOT NULL,
		category      TEXT NOT NULL DEFAULT '',
		subcategory   TEXT NOT NULL DEFAULT '',
		balance_after TEXT,
		source_line   INTEGER NOT NULL DEFAULT 0,
		source_marker TEXT NOT NULL DEFAULT '',
		source_posted TEXT NOT NULL DEFAULT '',
		source_desc   TEXT NOT NULL DEFAULT '',
		source_amount TEXT NOT NULL DEFAULT '',
		source_balance TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_hash ON transactions (hash)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions (date)`,
	`CREATE TABLE IF NOT EXISTS estimates (
		id                TEXT PRIMARY KEY,
		amount            TEXT NOT NULL,
		direction         TEXT NOT NULL,
		category          TEXT NOT NULL DEFAULT '',
		description       TEXT NOT NULL DEFAULT '',
		notes             TEXT NOT NULL DEFAULT '',
		week_start        TEXT NOT NULL,
		scenario          TEXT NOT NULL,
		is_recurring      INTEGER NOT NULL DEFAULT 0,
		recurrence_period TEXT NOT NULL DEFAULT '',
		created_at        TEXT NOT NULL,
		updated_at        TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_estimates_scenario ON estimates (scenario)`,
}

// Store wraps a SQLite database file. Change notifications are
// in-process only: subscribers in the same process hear writes made
// through this Store, not writes from other processes.
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	nextSub int
	txSubs  map[int]func([]domain.Transaction)
	estSubs map[int]func([]domain.Estimate)
}

// Open opens or creates the database at path and applies migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite allows one writer; serialize through a single connection.
	db.SetMaxOpenConns(1)

	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return &Store{
		db:      db,
		txSubs:  make(map[int]func([]domain.Transaction)),
		estSubs: make(map[int]func([]domain.Estimate)),
	}, nil
}

func (s *Store) PutTransactions(ctx context.Context, txs []domain.Transaction) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer dbtx.Rollback()

	const q = `INSERT INTO transactions
		(id, hash, date, amount, direction, category, subcategory, balance_after,
		 source_line, source_marker, source_posted, source_desc, source_amount, source_balance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			hash = excluded.hash,
			date = excluded.date,
			amount = excluded.amount,
			direction = excluded.direction,
			category = excluded.category,
			subcategory = excluded.subcategory,
			balance_after = excluded.balance_after`

	for _, tx := range txs {
		var balance interface{}
		if tx.BalanceAfter.Valid {
			balance = tx.BalanceAfter.Decimal.String()
		}
		_, err := dbtx.ExecContext(ctx, q,
			tx.ID, tx.Hash, tx.Date.UTC().Format(dateLayout), tx.Amount.String(),
			string(tx.Direction), tx.Category, tx.Subcategory, balance,
			tx.Source.Line, tx.Source.Marker, tx.Source.PostedAt,
			tx.Source.Description, tx.Source.Amount, tx.Source.Balance,
		)
		if err != nil {
			return fmt.Errorf("upsert transaction %s: %w", tx.ID, err)
		}
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.notifyTransactions(ctx)
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, f store.Filter) ([]domain.Transaction, error) {
	q := `SELECT id, hash, date, amount, direction, category, subcategory, balance_after,
		source_line, source_marker, source_posted, source_desc, source_amount, source_balance
		FROM transactions WHERE 1=1`
	var args []interface{}
	if !f.From.IsZero() {
		q += ` AND date >= ?`
		args = append(args, f.From.UTC().Format(dateLayout))
	}
	if !f.To.IsZero() {
		q += ` AND date <= ?`
		args = append(args, f.To.UTC().Format(dateLayout))
	}
	q += ` ORDER BY date, id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *Store) DeleteTransactions(ctx context.Context, ids []string) error {
	if err := s.deleteByID(ctx, "transactions", ids); err != nil {
		return err
	}
	s.notifyTransactions(ctx)
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
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer dbtx.Rollback()

	const q = `INSERT INTO estimates
		(id, amount, direction, category, description, notes, week_start, scenario,
		 is_recurring, recurrence_period, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			direction = excluded.direction,
			category = excluded.category,
			description = excluded.description,
			notes = excluded.notes,
			week_start = excluded.week_start,
			scenario = excluded.scenario,
			is_recurring = excluded.is_recurring,
			recurrence_period = excluded.recurrence_period,
			updated_at = excluded.updated_at`

	for _, e := range ests {
		recurring := 0
		if e.IsRecurring {
			recurring = 1
		}
		_, err := dbtx.ExecContext(ctx, q,
			e.ID, e.Amount.String(), string(e.Direction), e.Category,
			e.Description, e.Notes, e.WeekStart.UTC().Format(dateLayout),
			e.Scenario, recurring, string(e.RecurrencePeriod),
			e.CreatedAt.UTC().Format(time.RFC3339), e.UpdatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("upsert estimate %s: %w", e.ID, err)
		}
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.notifyEstimates(ctx)
	return nil
}

func (s *Store) ListEstimates(ctx context.Context, f store.Filter) ([]domain.Estimate, error) {
	q := `SELECT id, amount, direction, category, description, notes, week_start, scenario,
		is_recurring, recurrence_period, created_at, updated_at
		FROM estimates WHERE 1=1`
	var args []interface{}
	if f.Scenario != "" {
		q += ` AND scenario = ?`
		args = append(args, f.Scenario)
	}
	if !f.From.IsZero() {
		q += ` AND week_start >= ?`
		args = append(args, f.From.UTC().Format(dateLayout))
	}
	if !f.To.IsZero() {
		q += ` AND week_start <= ?`
		args = append(args, f.To.UTC().Format(dateLayout))
	}
	q += ` ORDER BY week_start, id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list estimates: %w", err)
	}
	defer rows.Close()

	var out []domain.Estimate
	for rows.Next() {
		e, err := scanEstimate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) DeleteEstimates(ctx context.Context, ids []string) error {
	if err := s.deleteByID(ctx, "estimates", ids); err != nil {
		return err
	}
	s.notifyEstimates(ctx)
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
	rows, err := s.db.QueryContext(ctx, `SELECT hash FROM transactions`)
	if err != nil {
		return nil, fmt.Errorf("list hashes: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) deleteByID(ctx context.Context, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer dbtx.Rollback()

	for _, id := range ids {
		if _, err := dbtx.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete %s %s: %w", table, id, err)
		}
	}
	return dbtx.Commit()
}

func (s *Store) notifyTransactions(ctx context.Context) {
	s.mu.Lock()
	subs := make([]func([]domain.Transaction), 0, len(s.txSubs))
	for _, fn := range s.txSubs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	if len(subs) == 0 {
		return
	}

	txs, err := s.ListTransactions(ctx, store.Filter{})
	if err != nil {
		return
	}
	for _, fn := range subs {
		fn(txs)
	}
}

func (s *Store) notifyEstimates(ctx context.Context) {
	s.mu.Lock()
	subs := make([]func([]domain.Estimate), 0, len(s.estSubs))
	for _, fn := range s.estSubs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	if len(subs) == 0 {
		return
	}

	ests, err := s.ListEstimates(ctx, store.Filter{})
	if err != nil {
		return
	}
	for _, fn := range subs {
		fn(ests)
	}
}

func scanTransaction(rows *sql.Rows) (domain.Transaction, error) {
	var (
		tx           domain.Transaction
		dateStr      string
		amountStr    string
		directionStr string
		balance      sql.NullString
	)
	err := rows.Scan(
		&tx.ID, &tx.Hash, &dateStr, &amountStr, &directionStr,
		&tx.Category, &tx.Subcategory, &balance,
		&tx.Source.Line, &tx.Source.Marker, &tx.Source.PostedAt,
		&tx.Source.Description, &tx.Source.Amount, &tx.Source.Balance,
	)
	if err != nil {
		return tx, fmt.Errorf("scan transaction: %w", err)
	}

	tx.Date, err = time.ParseInLocation(dateLayout, dateStr, time.UTC)
	if err != nil {
		return tx, fmt.Errorf("transaction %s date: %w", tx.ID, err)
	}
	tx.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return tx, fmt.Errorf("transaction %s amount: %w", tx.ID, err)
	}
	tx.Direction = domain.Direction(directionStr)
	if balance.Valid {
		d, err := decimal.NewFromString(balance.String)
		if err != nil {
			return tx, fmt.Errorf("transaction %s balance: %w", tx.ID, err)
		}
		tx.BalanceAfter = decimal.NullDecimal{Decimal: d, Valid: true}
	}
	return tx, nil
}

func scanEstimate(rows *sql.Rows) (domain.Estimate, error) {
	var (
		e            domain.Estimate
		amountStr    string
		directionStr string
		weekStr      string
		recurring    int
		periodStr    string
		createdStr   string
		updatedStr   string
	)
	err := rows.Scan(
		&e.ID, &amountStr, &directionStr, &e.Category, &e.Description, &e.Notes,
		&weekStr, &e.Scenario, &recurring, &periodStr, &createdStr, &updatedStr,
	)
	if err != nil {
		return e, fmt.Errorf("scan estimate: %w", err)
	}

	e.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return e, fmt.Errorf("estimate %s amount: %w", e.ID, err)
	}
	e.Direction = domain.Direction(directionStr)
	e.WeekStart, err = time.ParseInLocation(dateLayout, weekStr, time.UTC)
	if err != nil {
		return e, fmt.Errorf("estimate %s week_start: %w", e.ID, err)
	}
	e.IsRecurring = recurring != 0
	e.RecurrencePeriod = domain.RecurrencePeriod(periodStr)
	if e.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return e, fmt.Errorf("estimate %s created_at: %w", e.ID, err)
	}
	if e.UpdatedAt, err = time.Parse(time.RFC3339, updatedStr); err != nil {
		return e, fmt.Errorf("estimate %s updated_at: %w", e.ID, err)
	}
	return e, nil
}
