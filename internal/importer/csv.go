// Package importer turns uploaded bank CSV exports into persisted
// transactions: structural validation, row normalization, rule
// categorization, then exact and fuzzy dedup against history. Parse
// and preview are side-effect-free; only an explicit commit writes.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/runwayhq/runway/internal/domain"
)

// Column synonyms accepted in the header row, lowercased. Banks do not
// agree on naming.
var columnSynonyms = map[string][]string{
	"marker":      {"marker", "direction", "type", "transaction type", "dr/cr", "debit/credit"},
	"date":        {"date", "posting date", "posted", "transaction date", "value date"},
	"description": {"description", "memo", "details", "narrative", "payee"},
	"amount":      {"amount", "value", "transaction amount"},
	"balance":     {"balance", "running balance", "balance after", "closing balance"},
}

var requiredColumns = []string{"marker", "date", "description", "amount", "balance"}

// RowError records one unusable row. The batch continues without it.
type RowError struct {
	Line int    `json:"line"`
	Err  string `json:"error"`
}

// ParseRows reads the delimited file and maps each data row to a
// SourceRow by header position. A header missing required columns
// aborts the batch with a single ValidationError naming everything
// absent. Rows missing a date or description are skipped and recorded,
// never fatal.
func ParseRows(r io.Reader) ([]domain.SourceRow, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, &domain.ValidationError{MissingColumns: requiredColumns}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	positions, missing := mapHeader(header)
	if len(missing) > 0 {
		return nil, nil, &domain.ValidationError{MissingColumns: missing}
	}

	var (
		rows    []domain.SourceRow
		rowErrs []RowError
		line    = 1
	)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err.Error()})
			continue
		}

		row := domain.SourceRow{
			Line:        line,
			Marker:      field(record, positions["marker"]),
			PostedAt:    field(record, positions["date"]),
			Description: field(record, positions["description"]),
			Amount:      field(record, positions["amount"]),
			Balance:     field(record, positions["balance"]),
		}
		if strings.TrimSpace(row.PostedAt) == "" || strings.TrimSpace(row.Description) == "" {
			rowErrs = append(rowErrs, RowError{Line: line, Err: "missing date or description"})
			continue
		}
		rows = append(rows, row)
	}
	return rows, rowErrs, nil
}

func mapHeader(header []string) (map[string]int, []string) {
	positions := make(map[string]int, len(requiredColumns))
	var missing []string

	for _, col := range requiredColumns {
		idx := -1
		for i, h := range header {
			if matchesColumn(col, h) {
				idx = i
				break
			}
		}
		if idx == -1 {
			missing = append(missing, col)
			continue
		}
		positions[col] = idx
	}
	return positions, missing
}

func matchesColumn(col, header string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, syn := range columnSynonyms[col] {
		if h == syn {
			return true
		}
	}
	return false
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
