package storage

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"listings-etl/models"
)

// CSVWriter writes rejected source rows, as they were read, followed by the
// source line number and the rejection reason.
type CSVWriter struct {
	writer *csv.Writer
	width  int
}

// NewCSVWriter writes the header row: the source columns plus line and reason.
func NewCSVWriter(w io.Writer, columns []string) (*CSVWriter, error) {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(columns)+2)
	header = append(header, columns...)
	header = append(header, "line", "reason")
	if err := cw.Write(header); err != nil {
		return nil, eris.Wrap(err, "csv: write header")
	}

	return &CSVWriter{writer: cw, width: len(columns)}, nil
}

// WriteRejected writes one row per rejected record. Short records are padded
// and long ones truncated to the header width.
func (c *CSVWriter) WriteRejected(rejected []*models.Rejected) error {
	for _, r := range rejected {
		row := make([]string, c.width, c.width+2)
		copy(row, r.Record)
		row = append(row, strconv.Itoa(r.Line), r.Reason)
		if err := c.writer.Write(row); err != nil {
			return eris.Wrap(err, "csv: write row")
		}
	}
	return nil
}

// Flush flushes buffered rows and reports any write error.
func (c *CSVWriter) Flush() error {
	c.writer.Flush()
	return c.writer.Error()
}
