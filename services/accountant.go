package services

import "listings-etl/models"

// Tally accumulates stage counts for one run. It is a value: every method
// returns an updated copy, so the pipeline threads it from stage to stage.
type Tally struct {
	source      int
	valid       int
	missing     int
	nonPositive int
	afterDedup  int
}

// Classified records the outcome of one raw row.
func (t Tally) Classified(o models.Outcome) Tally {
	t.source++
	switch o {
	case models.Valid:
		t.valid++
	case models.MissingRequired:
		t.missing++
	case models.NonPositivePrice:
		t.nonPositive++
	}
	return t
}

// Deduplicated records the row count left after deduplication.
func (t Tally) Deduplicated(after int) Tally {
	t.afterDedup = after
	return t
}

// Report freezes the tally into the five-counter quality report.
func (t Tally) Report() models.QualityReport {
	return models.QualityReport{
		SourceRows:              t.source,
		ValidRowsAfterClean:     t.valid,
		RowsAfterDedup:          t.afterDedup,
		DroppedNonPositivePrice: t.nonPositive,
		DroppedMissingRequired:  t.missing,
	}
}
