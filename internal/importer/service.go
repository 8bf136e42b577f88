package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/runwayhq/runway/internal/categorize"
	"github.com/runwayhq/runway/internal/dedup"
	"github.com/runwayhq/runway/internal/domain"
	"github.com/runwayhq/runway/internal/normalize"
	"github.com/runwayhq/runway/internal/store"
)

// Counts summarizes one import batch for the confirmation screen.
type Counts struct {
	Total     int `json:"total"`
	Unique    int `json:"unique"`
	Duplicate int `json:"duplicate"`
	Errored   int `json:"errored"`
}

// Preview is the side-effect-free result of parsing and reconciling an
// upload. Nothing has been written; the user confirms or abandons it.
type Preview struct {
	Transactions []domain.Transaction `json:"transactions"`
	Removed      []dedup.Removed      `json:"removed"`
	RowErrors    []RowError           `json:"row_errors"`
	Counts       Counts               `json:"counts"`
}

// Step is one stage of the import pipeline, mutating shared state.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// State is the shared state threaded through the pipeline steps.
type State struct {
	Input io.Reader

	Rows         []domain.SourceRow
	RowErrors    []RowError
	Transactions []domain.Transaction
	Index        *dedup.HashIndex
	Removed      []dedup.Removed
}

// Service runs the import pipeline against a store. Classifier is
// optional; when nil, unmatched descriptions stay in the catch-all
// category.
type Service struct {
	store      store.Store
	classifier categorize.Classifier
	fuzzy      dedup.Config
	log        zerolog.Logger
}

func NewService(st store.Store, classifier categorize.Classifier, fuzzy dedup.Config, log zerolog.Logger) *Service {
	return &Service{store: st, classifier: classifier, fuzzy: fuzzy, log: log}
}

// Preview runs the full pipeline without writing anything. Duplicate
// filtering is complete by the time this returns, so a subsequent
// Commit never has to reconcile against itself.
func (s *Service) Preview(ctx context.Context, input io.Reader) (*Preview, error) {
	state := &State{Input: input}

	steps := []Step{
		&ParseStep{},
		&NormalizeStep{},
		&CategorizeStep{Classifier: s.classifier, Log: s.log},
		&LoadHashIndexStep{Store: s.store},
		&ExactDedupStep{},
		&FuzzyDedupStep{Config: s.fuzzy},
	}
	for _, step := range steps {
		if err := step.Execute(ctx, state); err != nil {
			return nil, err
		}
	}

	p := &Preview{
		Transactions: state.Transactions,
		Removed:      state.Removed,
		RowErrors:    state.RowErrors,
		Counts: Counts{
			Total:     len(state.Transactions) + len(state.Removed) + len(state.RowErrors),
			Unique:    len(state.Transactions),
			Duplicate: len(state.Removed),
			Errored:   len(state.RowErrors),
		},
	}
	s.log.Info().
		Int("total", p.Counts.Total).
		Int("unique", p.Counts.Unique).
		Int("duplicate", p.Counts.Duplicate).
		Int("errored", p.Counts.Errored).
		Msg("import preview ready")
	return p, nil
}

// Commit persists a confirmed preview. On failure the preview is left
// intact so the user can retry without re-uploading.
func (s *Service) Commit(ctx context.Context, p *Preview) error {
	if len(p.Transactions) == 0 {
		return nil
	}
	if err := s.store.PutTransactions(ctx, p.Transactions); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	s.log.Info().Int("count", len(p.Transactions)).Msg("import committed")
	return nil
}

// ParseStep reads and structurally validates the uploaded file.
type ParseStep struct{}

func (st *ParseStep) Execute(ctx context.Context, state *State) error {
	rows, rowErrs, err := ParseRows(state.Input)
	if err != nil {
		return err
	}
	state.Rows = rows
	state.RowErrors = rowErrs
	return nil
}

// NormalizeStep converts raw rows into canonical transactions. Rows
// whose dates no format matches are recorded, not fatal.
type NormalizeStep struct{}

func (st *NormalizeStep) Execute(ctx context.Context, state *State) error {
	for _, row := range state.Rows {
		tx, err := normalize.Normalize(row)
		if err != nil {
			state.RowErrors = append(state.RowErrors, RowError{Line: row.Line, Err: err.Error()})
			continue
		}
		state.Transactions = append(state.Transactions, tx)
	}
	return nil
}

// CategorizeStep assigns categories, consulting the model fallback for
// rows the rule table cannot place.
type CategorizeStep struct {
	Classifier categorize.Classifier
	Log        zerolog.Logger
}

func (st *CategorizeStep) Execute(ctx context.Context, state *State) error {
	state.Transactions = categorize.Batch(ctx, state.Transactions, st.Classifier, st.Log)
	return nil
}

// LoadHashIndexStep seeds the exact-dedup index from persisted
// history. Read happens before any write in the same operation.
type LoadHashIndexStep struct {
	Store store.Store
}

func (st *LoadHashIndexStep) Execute(ctx context.Context, state *State) error {
	hashes, err := st.Store.Hashes(ctx)
	if err != nil {
		return fmt.Errorf("load hash index: %w", err)
	}
	state.Index = dedup.NewHashIndex(hashes)
	return nil
}

// ExactDedupStep drops rows already imported.
type ExactDedupStep struct{}

func (st *ExactDedupStep) Execute(ctx context.Context, state *State) error {
	kept, removed := dedup.ExactFilter(state.Transactions, state.Index)
	state.Transactions = kept
	state.Removed = append(state.Removed, removed...)
	return nil
}

// FuzzyDedupStep groups near-identical rows within the batch.
type FuzzyDedupStep struct {
	Config dedup.Config
}

func (st *FuzzyDedupStep) Execute(ctx context.Context, state *State) error {
	kept, removed := dedup.FuzzyFilter(state.Transactions, st.Config)
	state.Transactions = kept
	state.Removed = append(state.Removed, removed...)
	return nil
}
