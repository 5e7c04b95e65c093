package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"

	"listings-etl/models"
)

func sampleOutput() *models.Output {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &models.Output{
		RunID:   "6f1c2a4e-8d7b-4c1e-9a55-0f3e2b1d9c77",
		Columns: []string{"date", "seller_id", "region", "category", "item_id", "price_gbp"},
		Rows: []*models.EnrichedListing{
			{Date: d, SellerID: "S1", Region: "North", Category: "electronics", ItemID: "I1", PriceGBP: 10.5, Segment: "Tech"},
			{Date: d, SellerID: "S2", Region: "South", Category: "toys", ItemID: "I2", PriceGBP: 3},
		},
		Report: models.QualityReport{
			SourceRows: 3, ValidRowsAfterClean: 2, RowsAfterDedup: 2, DroppedNonPositivePrice: 1,
		},
		Rejected: []*models.Rejected{
			{Line: 4, Outcome: models.NonPositivePrice, Reason: "non_positive_price",
				Record: []string{"2024-03-01", "S3", "East", "books", "I3", "-5"}},
		},
		Profile: &models.OutputProfile{RowCount: 2},
	}
}

func TestFileSinkCommit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink, err := NewFileSink(dir, true)
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}

	out := sampleOutput()
	if err := sink.Stage(out); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, ParquetFile)); !os.IsNotExist(err) {
		t.Error("parquet file visible before Commit")
	}

	published, err := sink.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(published) != 5 {
		t.Errorf("published %d files, want 5", len(published))
	}

	rows, err := parquet.ReadFile[models.EnrichedListing](filepath.Join(dir, ParquetFile))
	if err != nil {
		t.Fatalf("read parquet: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("parquet rows: got %d, want 2", len(rows))
	}
	if rows[0].Segment != "Tech" || rows[1].Segment != "" || rows[0].PriceGBP != 10.5 {
		t.Errorf("unexpected parquet rows: %+v", rows)
	}
	if !rows[0].Date.Equal(out.Rows[0].Date) {
		t.Errorf("date round trip: got %v", rows[0].Date)
	}

	data, err := os.ReadFile(filepath.Join(dir, ReportFile))
	if err != nil {
		t.Fatal(err)
	}
	var report map[string]int
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("report json: %v", err)
	}
	if len(report) != 5 {
		t.Errorf("report should carry exactly five counters, got %v", report)
	}
	if report["dropped_non_positive_price"] != 1 || report["source_rows"] != 3 {
		t.Errorf("unexpected report: %v", report)
	}

	rejects, err := os.ReadFile(filepath.Join(dir, RejectsFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(rejects), "I3,-5,4,non_positive_price") {
		t.Errorf("rejects file missing row: %s", rejects)
	}

	readme, err := os.ReadFile(filepath.Join(dir, ReadmeFile))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{out.RunID, ParquetFile + ": 2 clean", RejectsFile + ": rows dropped during validation (1)"} {
		if !strings.Contains(string(readme), want) {
			t.Errorf("README missing %q:\n%s", want, readme)
		}
	}

	assertNoLeftovers(t, dir)
}

func assertNoLeftovers(t *testing.T, dir string) {
	t.Helper()
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") || strings.HasSuffix(e.Name(), ".bak") {
			t.Errorf("staged file left behind: %s", e.Name())
		}
	}
}

func TestFileSinkParquetDateLogicalType(t *testing.T) {
	dir := t.TempDir()
	sink, _ := NewFileSink(dir, false)
	if err := sink.Stage(sampleOutput()); err != nil {
		t.Fatal(err)
	}
	if _, err := sink.Commit(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, ParquetFile))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	st, _ := f.Stat()
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		t.Fatal(err)
	}

	leaf, ok := pf.Schema().Lookup("date")
	if !ok {
		t.Fatal("schema missing date column")
	}
	lt := leaf.Node.Type().LogicalType()
	if lt == nil || lt.Date == nil {
		t.Errorf("date column logical type: got %v, want DATE", lt)
	}
}

func TestFileSinkCommitFailureRestoresEarlierRun(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, ReportFile)
	if err := os.WriteFile(report, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	orig := rename
	defer func() { rename = orig }()
	rename = func(from, to string) error {
		if filepath.Base(to) == ProfileFile {
			return os.ErrPermission
		}
		return orig(from, to)
	}

	sink, _ := NewFileSink(dir, true)
	if err := sink.Stage(sampleOutput()); err != nil {
		t.Fatal(err)
	}
	if _, err := sink.Commit(); err == nil {
		t.Fatal("expected Commit to fail")
	}

	if _, err := os.Stat(filepath.Join(dir, ParquetFile)); !os.IsNotExist(err) {
		t.Error("parquet file from the failed run is still published")
	}
	data, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("earlier report not restored: %v", err)
	}
	if string(data) != "old" {
		t.Errorf("report: got %q, want the earlier contents", data)
	}
	assertNoLeftovers(t, dir)
}

func TestFileSinkEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir, true)
	if err != nil {
		t.Fatal(err)
	}

	out := &models.Output{RunID: "r", Columns: []string{"date"}}
	if err := sink.Stage(out); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if _, err := sink.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, ParquetFile))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	st, _ := f.Stat()
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		t.Fatalf("empty parquet is not readable: %v", err)
	}
	if pf.NumRows() != 0 {
		t.Errorf("NumRows: got %d, want 0", pf.NumRows())
	}
	for _, col := range []string{"date", "seller_id", "region", "category", "item_id", "price_gbp", "segment"} {
		if _, ok := pf.Schema().Lookup(col); !ok {
			t.Errorf("schema missing column %q", col)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, RejectsFile)); !os.IsNotExist(err) {
		t.Error("rejects file written for a run without rejects")
	}
}

func TestFileSinkRemovesStaleRejects(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, RejectsFile)
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	sink, _ := NewFileSink(dir, true)
	if err := sink.Stage(&models.Output{RunID: "r"}); err != nil {
		t.Fatal(err)
	}
	if _, err := sink.Commit(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale rejects file should be removed")
	}
}

func TestFileSinkDiscard(t *testing.T) {
	dir := t.TempDir()
	sink, _ := NewFileSink(dir, false)
	if err := sink.Stage(sampleOutput()); err != nil {
		t.Fatal(err)
	}
	sink.Discard()

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected empty dir after Discard, found %d entries", len(entries))
	}
}
