package services

import (
	"strings"

	"listings-etl/models"
	"listings-etl/utils"
)

// LookupColumns are the columns a category lookup source must carry.
var LookupColumns = []string{models.ColCategory, models.ColSegment}

// LookupFromTable reads lookup entries from a normalised table. Rows with a
// blank category are skipped.
func LookupFromTable(t *models.Table) ([]models.LookupEntry, error) {
	if missing := t.Missing(LookupColumns); len(missing) > 0 {
		return nil, &SchemaError{Source: t.Source, Missing: missing}
	}

	idx := t.Index()
	entries := make([]models.LookupEntry, 0, len(t.Records))
	for _, rec := range t.Records {
		category, ok := present(models.Cell(rec, idx[models.ColCategory]))
		if !ok {
			continue
		}
		segment, _ := present(models.Cell(rec, idx[models.ColSegment]))
		entries = append(entries, models.LookupEntry{Category: category, Segment: segment})
	}
	return entries, nil
}

// Lookup resolves a category to its segment. Keys are case-folded.
type Lookup struct {
	segments   map[string]string
	duplicates []string
}

// NewLookup indexes entries. The first entry for a category wins; later ones
// are reported by Duplicates.
func NewLookup(entries []models.LookupEntry) *Lookup {
	l := &Lookup{segments: make(map[string]string, len(entries))}
	for _, e := range entries {
		key := categoryKey(e.Category)
		if _, dup := l.segments[key]; dup {
			l.duplicates = append(l.duplicates, e.Category)
			continue
		}
		l.segments[key] = e.Segment
	}
	return l
}

// Segment returns the segment for category and whether one matched.
func (l *Lookup) Segment(category string) (string, bool) {
	s, ok := l.segments[categoryKey(category)]
	return s, ok
}

// Duplicates lists the categories that were ignored because an earlier entry
// already defined them.
func (l *Lookup) Duplicates() []string {
	return l.duplicates
}

// Len returns the number of distinct categories.
func (l *Lookup) Len() int {
	return len(l.segments)
}

func categoryKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Enricher left-joins listings against the category lookup.
type Enricher struct {
	logger *utils.Logger
}

func NewEnricher(logger *utils.Logger) *Enricher {
	return &Enricher{logger: logger}
}

// Enrich returns exactly one EnrichedListing per input row. Segment is empty
// when the category has no lookup entry.
func (e *Enricher) Enrich(rows []*models.Listing, lookup *Lookup) []*models.EnrichedListing {
	out := make([]*models.EnrichedListing, 0, len(rows))
	unmatched := 0

	for _, r := range rows {
		segment, ok := lookup.Segment(r.Category)
		if !ok {
			unmatched++
		}
		out = append(out, &models.EnrichedListing{
			Date:     r.Date,
			SellerID: r.SellerID,
			Region:   r.Region,
			Category: r.Category,
			ItemID:   r.ItemID,
			PriceGBP: r.PriceGBP,
			Segment:  segment,
		})
	}

	if unmatched > 0 {
		e.logger.Warn("[enricher] %d of %d listings have no segment for their category", unmatched, len(rows))
	}
	return out
}
