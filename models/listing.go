package models

import "time"

// Listing column names as they appear in the source header.
const (
	ColDate     = "date"
	ColSellerID = "seller_id"
	ColRegion   = "region"
	ColCategory = "category"
	ColItemID   = "item_id"
	ColPrice    = "price_gbp"
	ColSegment  = "segment"
)

// RequiredColumns is the set of listing columns every source must carry and
// every row must fill.
var RequiredColumns = []string{ColDate, ColSellerID, ColRegion, ColCategory, ColItemID, ColPrice}

// DateLayout is the only accepted date format.
const DateLayout = "2006-01-02"

// RawListing holds one unvalidated row of the listings extract. A nil field
// means the cell was absent from the record.
type RawListing struct {
	Line     int
	Date     *string
	SellerID *string
	Region   *string
	Category *string
	ItemID   *string
	PriceGBP *string

	// Record is the untouched source record, kept for the rejects artifact.
	Record []string
}

// Field returns the raw cell for a required column.
func (r *RawListing) Field(col string) *string {
	switch col {
	case ColDate:
		return r.Date
	case ColSellerID:
		return r.SellerID
	case ColRegion:
		return r.Region
	case ColCategory:
		return r.Category
	case ColItemID:
		return r.ItemID
	case ColPrice:
		return r.PriceGBP
	}
	return nil
}

// Listing is a validated row: every field trimmed and present, the date parsed
// and the price strictly positive.
type Listing struct {
	Line     int
	Date     time.Time
	SellerID string
	Region   string
	Category string
	ItemID   string
	PriceGBP float64
}

// DedupKey identifies a logical listing record.
func (l *Listing) DedupKey() string {
	return l.Date.Format(DateLayout) + "|" + l.ItemID
}

// EnrichedListing is the cleaned record written to the columnar output.
type EnrichedListing struct {
	Date     time.Time `parquet:"date,date"`
	SellerID string    `parquet:"seller_id,snappy,dict"`
	Region   string    `parquet:"region,snappy,dict"`
	Category string    `parquet:"category,snappy,dict"`
	ItemID   string    `parquet:"item_id,snappy"`
	PriceGBP float64   `parquet:"price_gbp,snappy"`
	// Segment is empty when the category had no lookup match; written as null.
	Segment string `parquet:"segment,optional,snappy,dict"`
}

// LookupEntry maps a category to its business segment.
type LookupEntry struct {
	Category string
	Segment  string
}
