package models

// Outcome is the classification of one raw row.
type Outcome int

const (
	Valid Outcome = iota
	MissingRequired
	NonPositivePrice
)

func (o Outcome) String() string {
	switch o {
	case Valid:
		return "valid"
	case MissingRequired:
		return "missing_required"
	case NonPositivePrice:
		return "non_positive_price"
	}
	return "unknown"
}

// QualityReport is the data-quality record for one run.
type QualityReport struct {
	SourceRows              int `json:"source_rows"`
	ValidRowsAfterClean     int `json:"valid_rows_after_clean"`
	RowsAfterDedup          int `json:"rows_after_dedup"`
	DroppedNonPositivePrice int `json:"dropped_non_positive_price"`
	DroppedMissingRequired  int `json:"dropped_missing_required"`
}

// Rejected is a dropped row with the reason it was dropped.
type Rejected struct {
	Line    int
	Outcome Outcome
	Reason  string
	Record  []string
}

// ValidationIssues counts defects per check across all source rows. A row
// can appear under several checks, so these totals do not sum to the drop
// counters of QualityReport.
type ValidationIssues struct {
	MissingNulls map[string]int `json:"missing_nulls"`
	MissingEmpty map[string]int `json:"missing_empty"`
	InvalidDate  int            `json:"invalid_date"`
	InvalidPrice int            `json:"invalid_price"`
}

// NewValidationIssues starts every column at zero.
func NewValidationIssues(columns []string) ValidationIssues {
	vi := ValidationIssues{
		MissingNulls: make(map[string]int, len(columns)),
		MissingEmpty: make(map[string]int, len(columns)),
	}
	for _, c := range columns {
		vi.MissingNulls[c] = 0
		vi.MissingEmpty[c] = 0
	}
	return vi
}

// Add records the defects of one row.
func (vi *ValidationIssues) Add(absent, empty []string, invalidDate, invalidPrice bool) {
	for _, c := range absent {
		vi.MissingNulls[c]++
	}
	for _, c := range empty {
		vi.MissingEmpty[c]++
	}
	if invalidDate {
		vi.InvalidDate++
	}
	if invalidPrice {
		vi.InvalidPrice++
	}
}

// PriceStats summarises the output prices. Fields are nil for an empty output.
type PriceStats struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
	Avg *float64 `json:"avg"`
	P50 *float64 `json:"p50"`
	P95 *float64 `json:"p95"`
}

// OutputProfile holds descriptive statistics over the cleaned dataset.
type OutputProfile struct {
	RunID      string         `json:"run_id"`
	RowCount   int            `json:"row_count"`
	Price      PriceStats     `json:"price"`
	ByRegion   map[string]int `json:"by_region"`
	ByCategory map[string]int `json:"by_category"`
	BySegment  map[string]int `json:"by_segment"`

	ValidationIssues *ValidationIssues `json:"validation_issues,omitempty"`
}

// Output is everything one successful run hands to the sinks.
type Output struct {
	RunID    string
	Columns  []string
	Rows     []*EnrichedListing
	Report   QualityReport
	Rejected []*Rejected
	Profile  *OutputProfile
}

// RejectedCount returns the number of rows dropped during cleaning.
func (o *Output) RejectedCount() int {
	return o.Report.SourceRows - o.Report.ValidRowsAfterClean
}
