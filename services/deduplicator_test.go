package services

import (
	"testing"
	"time"

	"listings-etl/models"
)

func listing(date, item string, price float64) *models.Listing {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return &models.Listing{Date: d, SellerID: "S1", Region: "North", Category: "electronics", ItemID: item, PriceGBP: price}
}

func TestDeduplicateKeepsLastOccurrence(t *testing.T) {
	rows := []*models.Listing{
		listing("2024-03-01", "I1", 10),
		listing("2024-03-01", "I2", 20),
		listing("2024-03-01", "I1", 15),
	}

	out := Deduplicate(rows)
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	// Ordered by the position of the retained occurrence.
	if out[0].ItemID != "I2" || out[1].ItemID != "I1" {
		t.Errorf("order: got %s, %s; want I2, I1", out[0].ItemID, out[1].ItemID)
	}
	if out[1].PriceGBP != 15 {
		t.Errorf("kept price %.2f; want 15 (later row)", out[1].PriceGBP)
	}
}

func TestDeduplicateKeyIsDateAndItem(t *testing.T) {
	rows := []*models.Listing{
		listing("2024-03-01", "I1", 10),
		listing("2024-03-02", "I1", 10),
	}
	rows[1].SellerID = "S2"

	if out := Deduplicate(rows); len(out) != 2 {
		t.Errorf("different dates must not collapse, got %d rows", len(out))
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	rows := []*models.Listing{
		listing("2024-03-01", "I1", 10),
		listing("2024-03-01", "I1", 11),
		listing("2024-03-02", "I3", 12),
		listing("2024-03-01", "I1", 13),
	}

	once := Deduplicate(rows)
	twice := Deduplicate(once)
	if len(once) != len(twice) {
		t.Fatalf("second pass changed length: %d -> %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Errorf("row %d differs after second pass", i)
		}
	}
}

func TestDeduplicateEmpty(t *testing.T) {
	if out := Deduplicate(nil); len(out) != 0 {
		t.Errorf("expected empty output, got %d", len(out))
	}
}

func TestDeduplicatorRecordsCount(t *testing.T) {
	d := NewDeduplicator(newTestLogger())
	rows := []*models.Listing{
		listing("2024-03-01", "I1", 10),
		listing("2024-03-01", "I1", 11),
	}

	out, tally := d.Deduplicate(rows, Tally{})
	if got := tally.Report().RowsAfterDedup; got != len(out) || got != 1 {
		t.Errorf("RowsAfterDedup: got %d, want 1", got)
	}
}
