package dedup

import (
	"github.com/runwayhq/runway/internal/domain"
)

// Removed records one transaction dropped by a dedup pass, with the id
// of the representative it duplicated (empty for exact-index hits) and
// a human-readable reason, kept for audit and undo.
type Removed struct {
	Transaction domain.Transaction `json:"transaction"`
	KeptID      string             `json:"kept_id,omitempty"`
	Reason      string             `json:"reason"`
}

// ExactFilter drops every transaction whose hash is already in the
// index, including repeats inside the batch itself. Accepted hashes are
// added to the index as they pass, so a second occurrence in the same
// batch is also dropped. A pass finding nothing returns the input
// unchanged.
func ExactFilter(txs []domain.Transaction, idx *HashIndex) ([]domain.Transaction, []Removed) {
	var removed []Removed
	kept := txs[:0:0]

	for _, tx := range txs {
		if idx.Seen(tx.Hash) {
			removed = append(removed, Removed{
				Transaction: tx,
				Reason:      "hash " + tx.Hash + " already imported",
			})
			continue
		}
		idx.Add(tx.Hash)
		kept = append(kept, tx)
	}

	if len(removed) == 0 {
		return txs, nil
	}
	return kept, removed
}
