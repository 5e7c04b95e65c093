package services

import (
	"testing"
	"time"

	"listings-etl/models"
)

func sampleOutput() []*models.EnrichedListing {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return []*models.EnrichedListing{
		{Date: d, Region: "North", Category: "electronics", ItemID: "I1", PriceGBP: 10, Segment: "Tech"},
		{Date: d, Region: "North", Category: "electronics", ItemID: "I2", PriceGBP: 20, Segment: "Tech"},
		{Date: d, Region: "South", Category: "toys", ItemID: "I3", PriceGBP: 30},
		{Date: d, Region: "East", Category: "books", ItemID: "I4", PriceGBP: 40, Segment: "Media"},
	}
}

func TestProfilePrices(t *testing.T) {
	svc := NewProfileService(newTestLogger())
	p := svc.Generate("run-1", sampleOutput())

	if p.RowCount != 4 || p.RunID != "run-1" {
		t.Errorf("RowCount/RunID: got %d/%q", p.RowCount, p.RunID)
	}
	checks := []struct {
		name string
		got  *float64
		want float64
	}{
		{"min", p.Price.Min, 10},
		{"max", p.Price.Max, 40},
		{"avg", p.Price.Avg, 25},
		{"p50", p.Price.P50, 25},
		{"p95", p.Price.P95, 38.5},
	}
	for _, c := range checks {
		if c.got == nil {
			t.Errorf("%s: nil", c.name)
			continue
		}
		if *c.got != c.want {
			t.Errorf("%s: got %.2f, want %.2f", c.name, *c.got, c.want)
		}
	}
}

func TestProfileGrouping(t *testing.T) {
	svc := NewProfileService(newTestLogger())
	p := svc.Generate("run-1", sampleOutput())

	if p.ByRegion["North"] != 2 {
		t.Errorf("North: got %d, want 2", p.ByRegion["North"])
	}
	if p.ByCategory["toys"] != 1 {
		t.Errorf("toys: got %d, want 1", p.ByCategory["toys"])
	}
	if p.BySegment["Tech"] != 2 || p.BySegment[NoSegment] != 1 {
		t.Errorf("BySegment: got %v", p.BySegment)
	}
}

func TestProfileEmptyInput(t *testing.T) {
	svc := NewProfileService(newTestLogger())
	p := svc.Generate("run-1", nil)
	if p.RowCount != 0 {
		t.Errorf("expected 0 rows")
	}
	if p.Price.Min != nil || p.Price.Avg != nil {
		t.Error("price stats should be nil for empty output")
	}
}

func TestQuantileSingleValue(t *testing.T) {
	if got := quantile([]float64{7}, 0.95); got != 7 {
		t.Errorf("got %v, want 7", got)
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Électronique grand public", 10, "Électro..."},
		{"Maison", 10, "Maison"},
		{"家庭用品と台所用品", 6, "家庭用..."},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q; want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
