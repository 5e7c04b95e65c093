package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"listings-etl/models"
	"listings-etl/utils"
)

// NoSegment is the by_segment key for listings without a lookup match.
const NoSegment = "(none)"

type ProfileService struct {
	logger *utils.Logger
}

func NewProfileService(logger *utils.Logger) *ProfileService {
	return &ProfileService{logger: logger}
}

// Generate computes descriptive statistics over the cleaned output.
func (s *ProfileService) Generate(runID string, rows []*models.EnrichedListing) *models.OutputProfile {
	p := &models.OutputProfile{
		RunID:      runID,
		RowCount:   len(rows),
		ByRegion:   make(map[string]int),
		ByCategory: make(map[string]int),
		BySegment:  make(map[string]int),
	}

	if len(rows) == 0 {
		return p
	}

	prices := make([]float64, 0, len(rows))
	var total float64
	for _, r := range rows {
		prices = append(prices, r.PriceGBP)
		total += r.PriceGBP

		p.ByRegion[r.Region]++
		p.ByCategory[r.Category]++
		if r.Segment == "" {
			p.BySegment[NoSegment]++
		} else {
			p.BySegment[r.Segment]++
		}
	}
	sort.Float64s(prices)

	p.Price = models.PriceStats{
		Min: ptr(round2(prices[0])),
		Max: ptr(round2(prices[len(prices)-1])),
		Avg: ptr(round2(total / float64(len(prices)))),
		P50: ptr(round2(quantile(prices, 0.5))),
		P95: ptr(round2(quantile(prices, 0.95))),
	}
	return p
}

// quantile interpolates linearly between the two closest ranks of a sorted
// slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Print writes a console summary of the run.
func (s *ProfileService) Print(r models.QualityReport, p *models.OutputProfile) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  LISTINGS INGEST SUMMARY\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Data quality\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Source rows              : \033[1m%d\033[0m\n", r.SourceRows)
	fmt.Printf("  Valid after clean        : \033[1m%d\033[0m\n", r.ValidRowsAfterClean)
	fmt.Printf("  Rows after dedup         : \033[1m%d\033[0m\n", r.RowsAfterDedup)
	fmt.Printf("  Dropped missing required : \033[1;31m%d\033[0m\n", r.DroppedMissingRequired)
	fmt.Printf("  Dropped bad price/date   : \033[1;31m%d\033[0m\n", r.DroppedNonPositivePrice)
	fmt.Println()

	fmt.Printf("\033[1;33m  Price (GBP)\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if p.Price.Avg != nil {
		fmt.Printf("  Average : \033[1;32m£%.2f\033[0m\n", *p.Price.Avg)
		fmt.Printf("  Median  : \033[1;32m£%.2f\033[0m\n", *p.Price.P50)
		fmt.Printf("  P95     : \033[1;32m£%.2f\033[0m\n", *p.Price.P95)
		fmt.Printf("  Range   : \033[1;32m£%.2f – £%.2f\033[0m\n", *p.Price.Min, *p.Price.Max)
	} else {
		fmt.Printf("  No price data available\n")
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Listings by Segment\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(p.BySegment) == 0 {
		fmt.Printf("  No segment data\n")
	} else {
		for _, sc := range sortedCounts(p.BySegment) {
			fmt.Printf("  %-30s %d\n", truncate(sc.name, 28), sc.count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

type nameCount struct {
	name  string
	count int
}

// sortedCounts orders by count descending, then name.
func sortedCounts(m map[string]int) []nameCount {
	out := make([]nameCount, 0, len(m))
	for k, v := range m {
		out = append(out, nameCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}

func ptr(f float64) *float64 { return &f }

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
