package storage

import (
	"database/sql"

	"listings-etl/models"
)

// OutputWriter is the interface any mirror backend must satisfy.
type OutputWriter interface {
	Write(out *models.Output) error
	Close() error
}

// listingColumns is the column order shared by the database mirrors.
var listingColumns = []string{
	"run_id", "date", "seller_id", "region", "category", "item_id", "price_gbp", "segment",
}

func listingArgs(runID string, l *models.EnrichedListing) []any {
	return []any{
		runID,
		l.Date.Format(models.DateLayout),
		l.SellerID,
		l.Region,
		l.Category,
		l.ItemID,
		l.PriceGBP,
		sql.NullString{String: l.Segment, Valid: l.Segment != ""},
	}
}

func reportArgs(runID string, r models.QualityReport) []any {
	return []any{
		runID,
		r.SourceRows,
		r.ValidRowsAfterClean,
		r.RowsAfterDedup,
		r.DroppedNonPositivePrice,
		r.DroppedMissingRequired,
	}
}
