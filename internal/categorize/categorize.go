// Package categorize assigns categories to transactions by matching
// uppercased description substrings against an ordered keyword table,
// separately per direction. Rule order is part of the contract: a
// description can match several keyword sets and the highest-priority
// rule must win.
package categorize

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/runwayhq/runway/internal/domain"
)

// Categorize returns the transaction with Category (and Subcategory
// when the matching rule carries one) assigned. No match yields the
// designated Other category. Pure.
func Categorize(tx domain.Transaction) domain.Transaction {
	rules := outflowRules
	if tx.Direction == domain.Inflow {
		rules = inflowRules
	}

	desc := strings.ToUpper(tx.Source.Description)
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(desc, kw) {
				tx.Category = rule.Category
				tx.Subcategory = rule.Subcategory
				return tx
			}
		}
	}

	tx.Category = CategoryOther
	tx.Subcategory = ""
	return tx
}

// Batch categorizes every transaction. When a classifier is provided,
// rows the rule table could not place are offered to it; classifier
// failures degrade to Other and never fail the batch.
func Batch(ctx context.Context, txs []domain.Transaction, classifier Classifier, log zerolog.Logger) []domain.Transaction {
	out := make([]domain.Transaction, len(txs))
	for i, tx := range txs {
		tx = Categorize(tx)
		if tx.Category == CategoryOther && classifier != nil {
			category, subcategory, err := classifier.Classify(ctx, tx.Source.Description, tx.Direction)
			if err != nil {
				log.Warn().Err(err).Str("description", tx.Source.Description).
					Msg("Model classification failed, keeping Other")
			} else if category != "" {
				tx.Category = category
				tx.Subcategory = subcategory
			}
		}
		out[i] = tx
	}
	return out
}

// Categories returns the category names for a direction in priority
// order, ending with Other. Used to build model prompts and for the
// taxonomy endpoint.
func Categories(dir domain.Direction) []string {
	rules := outflowRules
	if dir == domain.Inflow {
		rules = inflowRules
	}
	seen := make(map[string]bool)
	var names []string
	for _, rule := range rules {
		if !seen[rule.Category] {
			seen[rule.Category] = true
			names = append(names, rule.Category)
		}
	}
	return append(names, CategoryOther)
}
