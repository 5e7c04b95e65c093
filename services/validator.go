package services

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"listings-etl/models"
	"listings-etl/utils"
)

// RowIssues lists every defect found on one row, whatever its final outcome.
type RowIssues struct {
	// Absent holds required columns the record is too short to carry.
	Absent []string
	// Empty holds required columns present but blank after trimming.
	Empty        []string
	InvalidPrice bool
	InvalidDate  bool
}

// Validation is the result of classifying one raw row. Listing is set only
// when Outcome is models.Valid.
type Validation struct {
	Outcome models.Outcome
	Reason  string
	Listing *models.Listing
	Issues  RowIssues
}

// ValidateRow classifies a raw row. Every check runs so Issues is complete,
// but required-field presence takes precedence over price and date: a row
// failing both counts as MissingRequired.
func ValidateRow(r *models.RawListing) Validation {
	var v Validation
	firstMissing := ""

	values := make(map[string]string, len(models.RequiredColumns))
	for _, col := range models.RequiredColumns {
		p := r.Field(col)
		if p == nil {
			v.Issues.Absent = append(v.Issues.Absent, col)
		} else if val, ok := present(p); ok {
			values[col] = val
			continue
		} else {
			v.Issues.Empty = append(v.Issues.Empty, col)
		}
		if firstMissing == "" {
			firstMissing = col
		}
	}

	var price float64
	priceReason := ""
	if raw, ok := values[models.ColPrice]; ok {
		price, priceReason = coercePrice(raw)
		v.Issues.InvalidPrice = priceReason != ""
	}

	var date time.Time
	if raw, ok := values[models.ColDate]; ok {
		// time.Parse rejects out-of-range days such as 2024-02-30.
		d, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			v.Issues.InvalidDate = true
		}
		date = d
	}

	switch {
	case firstMissing != "":
		v.Outcome, v.Reason = models.MissingRequired, "missing_"+firstMissing
	case priceReason != "":
		v.Outcome, v.Reason = models.NonPositivePrice, priceReason
	case v.Issues.InvalidDate:
		v.Outcome, v.Reason = models.NonPositivePrice, "invalid_date"
	default:
		v.Outcome = models.Valid
		v.Listing = &models.Listing{
			Line:     r.Line,
			Date:     date,
			SellerID: values[models.ColSellerID],
			Region:   values[models.ColRegion],
			Category: values[models.ColCategory],
			ItemID:   values[models.ColItemID],
			PriceGBP: price,
		}
	}
	return v
}

// coercePrice parses a price cell. It returns a non-empty reason when the
// value is not a finite, strictly positive float64.
func coercePrice(raw string) (float64, string) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, "non_numeric_price"
	}
	if d.Sign() <= 0 {
		return 0, "non_positive_price"
	}
	// Magnitudes outside float64 range collapse to 0 or +Inf.
	f := d.InexactFloat64()
	if f <= 0 || math.IsInf(f, 0) {
		return 0, "price_out_of_range"
	}
	return f, ""
}

func present(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	v := strings.TrimSpace(*p)
	return v, v != ""
}

// Cleaned is the output of the cleaning stage.
type Cleaned struct {
	Valid    []*models.Listing
	Rejected []*models.Rejected
	Issues   models.ValidationIssues
}

// Cleaner validates raw rows and keeps the ones that pass.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean classifies every raw row in order, records each outcome on the tally
// and returns the valid listings, the rejected rows and the issue breakdown.
func (c *Cleaner) Clean(raw []*models.RawListing, tally Tally) (*Cleaned, Tally) {
	out := &Cleaned{
		Valid:  make([]*models.Listing, 0, len(raw)),
		Issues: models.NewValidationIssues(models.RequiredColumns),
	}

	for _, r := range raw {
		v := ValidateRow(r)
		tally = tally.Classified(v.Outcome)
		out.Issues.Add(v.Issues.Absent, v.Issues.Empty, v.Issues.InvalidDate, v.Issues.InvalidPrice)

		if v.Outcome != models.Valid {
			c.logger.Debug("[cleaner] Dropping line %d: %s", r.Line, v.Reason)
			out.Rejected = append(out.Rejected, &models.Rejected{
				Line:    r.Line,
				Outcome: v.Outcome,
				Reason:  v.Reason,
				Record:  r.Record,
			})
			continue
		}
		out.Valid = append(out.Valid, v.Listing)
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (dropped %d)",
		len(raw), len(out.Valid), len(out.Rejected))
	return out, tally
}
