package services

import (
	"slices"

	"listings-etl/models"
	"listings-etl/utils"
)

// Deduplicate keeps one listing per (date, item_id), taking the last
// occurrence in input order. Survivors stay ordered by that last position.
func Deduplicate(rows []*models.Listing) []*models.Listing {
	seen := make(map[string]struct{}, len(rows))
	out := make([]*models.Listing, 0, len(rows))

	for i := len(rows) - 1; i >= 0; i-- {
		key := rows[i].DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rows[i])
	}

	slices.Reverse(out)
	return out
}

// Deduplicator wraps Deduplicate with logging and accounting.
type Deduplicator struct {
	logger *utils.Logger
}

func NewDeduplicator(logger *utils.Logger) *Deduplicator {
	return &Deduplicator{logger: logger}
}

func (d *Deduplicator) Deduplicate(rows []*models.Listing, tally Tally) ([]*models.Listing, Tally) {
	out := Deduplicate(rows)
	if removed := len(rows) - len(out); removed > 0 {
		d.logger.Info("[dedup] Collapsed %d duplicate (date, item_id) rows", removed)
	}
	return out, tally.Deduplicated(len(out))
}
