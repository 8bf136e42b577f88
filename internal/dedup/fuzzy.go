package dedup

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/runwayhq/runway/internal/domain"
)

// Config tunes fuzzy duplicate grouping.
type Config struct {
	// MaxGap is the largest posting-date difference two rows may have
	// and still be the same event.
	MaxGap time.Duration
	// MaxAmountVariance is the largest absolute amount difference
	// allowed within a group. The default of zero requires exact
	// amounts: rows whose amounts differ are never grouped, no matter
	// how similar their descriptions are.
	MaxAmountVariance decimal.Decimal
	// MinSimilarity is the description similarity threshold in [0,1].
	MinSimilarity float64
}

// DefaultConfig returns the production thresholds: 72 hours, exact
// amounts, 0.85 similarity.
func DefaultConfig() Config {
	return Config{
		MaxGap:            72 * time.Hour,
		MaxAmountVariance: decimal.Zero,
		MinSimilarity:     0.85,
	}
}

// FuzzyFilter groups near-identical transactions within one batch and
// keeps exactly one representative per group: the first encountered.
// The survivors depend on input order but the grouping and removal
// counts are deterministic for a given input. A pass finding nothing
// returns the input unchanged.
func FuzzyFilter(txs []domain.Transaction, cfg Config) ([]domain.Transaction, []Removed) {
	var removed []Removed
	kept := txs[:0:0]

	for _, tx := range txs {
		rep, score := matchRepresentative(tx, kept, cfg)
		if rep != nil {
			removed = append(removed, Removed{
				Transaction: tx,
				KeptID:      rep.ID,
				Reason: fmt.Sprintf("near-duplicate of %s (similarity %.2f, %s apart)",
					rep.Hash, score, tx.Date.Sub(rep.Date).Abs()),
			})
			continue
		}
		kept = append(kept, tx)
	}

	if len(removed) == 0 {
		return txs, nil
	}
	return kept, removed
}

func matchRepresentative(tx domain.Transaction, kept []domain.Transaction, cfg Config) (*domain.Transaction, float64) {
	for i := range kept {
		rep := &kept[i]
		if tx.Date.Sub(rep.Date).Abs() > cfg.MaxGap {
			continue
		}
		if tx.Amount.Sub(rep.Amount).Abs().Cmp(cfg.MaxAmountVariance) > 0 {
			continue
		}
		score := Similarity(tx.Source.Description, rep.Source.Description)
		if score >= cfg.MinSimilarity {
			return rep, score
		}
	}
	return nil, 0
}

// Similarity blends two Jaccard measures over the descriptions:
// word overlap with digits stripped from tokens (so "PAYMENT #1234"
// and "PAYMENT #1235" count as the same words — reference numbers
// churn between exports of the same event), and the raw character-set
// Jaccard, which still sees the digits and pulls genuinely different
// references apart. Equal weights; result in [0,1].
func Similarity(a, b string) float64 {
	wordScore := jaccard(wordSet(a), wordSet(b))
	charScore := jaccard(charSet(a), charSet(b))
	return 0.5*wordScore + 0.5*charScore
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	common := 0
	for k := range a {
		if _, ok := b[k]; ok {
			common++
		}
	}
	union := len(a) + len(b) - common
	return float64(common) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToUpper(s)) {
		word := strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) {
				return -1
			}
			return r
		}, field)
		if word != "" {
			set[word] = struct{}{}
		}
	}
	return set
}

func charSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, r := range strings.ToUpper(s) {
		if unicode.IsSpace(r) {
			continue
		}
		set[string(r)] = struct{}{}
	}
	return set
}
