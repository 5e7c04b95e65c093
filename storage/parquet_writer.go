package storage

import (
	"io"

	"github.com/parquet-go/parquet-go"
	"github.com/rotisserie/eris"

	"listings-etl/models"
)

// WriteParquet writes rows as a snappy-compressed parquet file. An empty
// slice still produces a file carrying the full schema.
func WriteParquet(w io.Writer, rows []*models.EnrichedListing) error {
	pw := parquet.NewGenericWriter[models.EnrichedListing](w)

	if len(rows) > 0 {
		batch := make([]models.EnrichedListing, 0, len(rows))
		for _, r := range rows {
			batch = append(batch, *r)
		}
		if _, err := pw.Write(batch); err != nil {
			return eris.Wrap(err, "parquet: write rows")
		}
	}

	if err := pw.Close(); err != nil {
		return eris.Wrap(err, "parquet: close")
	}
	return nil
}
