package storage

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"listings-etl/models"
)

// ReadTable loads a CSV file with a header row. Records may be shorter or
// longer than the header; missing trailing cells read as absent.
func ReadTable(path string) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: open %q", path)
	}
	defer f.Close()

	t, err := ParseTable(f)
	if err != nil {
		return nil, eris.Wrapf(err, "csv: read %q", path)
	}
	t.Source = path
	return t, nil
}

// ParseTable reads a header and all records from r.
func ParseTable(r io.Reader) (*models.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, eris.New("no header row")
	}
	if err != nil {
		return nil, eris.Wrap(err, "header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &models.Table{Columns: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "record")
		}
		line, _ := cr.FieldPos(0)
		t.Records = append(t.Records, rec)
		t.Lines = append(t.Lines, line)
	}
	return t, nil
}
