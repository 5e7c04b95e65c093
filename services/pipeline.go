package services

import (
	"fmt"
	"strings"

	"listings-etl/models"
	"listings-etl/utils"
)

// SchemaError reports a source that lacks required columns entirely.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: %s is missing required column(s): %s",
		e.Source, strings.Join(e.Missing, ", "))
}

// Result is the output of one pipeline run.
type Result struct {
	// Columns is the normalised listings header, used for the rejects file.
	Columns  []string
	Rows     []*models.EnrichedListing
	Report   models.QualityReport
	Rejected []*models.Rejected
	Issues   models.ValidationIssues
}

// Pipeline runs validate → dedup → enrich over one batch.
type Pipeline struct {
	logger   *utils.Logger
	cleaner  *Cleaner
	dedup    *Deduplicator
	enricher *Enricher
}

// NewPipeline wires the stages with a shared logger.
func NewPipeline(logger *utils.Logger) *Pipeline {
	return &Pipeline{
		logger:   logger,
		cleaner:  NewCleaner(logger),
		dedup:    NewDeduplicator(logger),
		enricher: NewEnricher(logger),
	}
}

// Run checks both schemas, then validates, deduplicates and enriches the
// listings. It returns a *SchemaError before touching any row when a required
// column is absent from either source.
func (p *Pipeline) Run(listings, lookupTable *models.Table) (*Result, error) {
	listings.NormaliseColumns()
	lookupTable.NormaliseColumns()

	if missing := listings.Missing(models.RequiredColumns); len(missing) > 0 {
		return nil, &SchemaError{Source: listings.Source, Missing: missing}
	}

	entries, err := LookupFromTable(lookupTable)
	if err != nil {
		return nil, err
	}
	lookup := NewLookup(entries)
	if dups := lookup.Duplicates(); len(dups) > 0 {
		p.logger.Warn("[pipeline] Lookup repeats %d category entries, keeping the first of each: %s",
			len(dups), strings.Join(dups, ", "))
	}
	p.logger.Info("[pipeline] Loaded %d lookup categories", lookup.Len())

	raw := RawListings(listings)

	var tally Tally
	cleaned, tally := p.cleaner.Clean(raw, tally)
	deduped, tally := p.dedup.Deduplicate(cleaned.Valid, tally)
	enriched := p.enricher.Enrich(deduped, lookup)

	return &Result{
		Columns:  listings.Columns,
		Rows:     enriched,
		Report:   tally.Report(),
		Rejected: cleaned.Rejected,
		Issues:   cleaned.Issues,
	}, nil
}

// RawListings maps the records of a normalised listings table onto raw rows.
// Line numbers come from the table when it recorded them; otherwise one line
// per record after a single header line is assumed.
func RawListings(t *models.Table) []*models.RawListing {
	idx := t.Index()
	pos := func(col string) int {
		if i, ok := idx[col]; ok {
			return i
		}
		return -1
	}

	raw := make([]*models.RawListing, 0, len(t.Records))
	for i, rec := range t.Records {
		line := i + 2
		if i < len(t.Lines) {
			line = t.Lines[i]
		}
		raw = append(raw, &models.RawListing{
			Line:     line,
			Date:     models.Cell(rec, pos(models.ColDate)),
			SellerID: models.Cell(rec, pos(models.ColSellerID)),
			Region:   models.Cell(rec, pos(models.ColRegion)),
			Category: models.Cell(rec, pos(models.ColCategory)),
			ItemID:   models.Cell(rec, pos(models.ColItemID)),
			PriceGBP: models.Cell(rec, pos(models.ColPrice)),
			Record:   rec,
		})
	}
	return raw
}
