package services

import (
	"arkham-scraper/models"
	"fmt"
	"strings"
)

const (
	ruleWidth     = 80
	mentionedNote = "Arkham Horror mentioned on site (specific products not listed)"
)

// Report partitions one scan's results. Every result lands in exactly one of
// Matched, CheckedNoMatch or NoWebsite.
type Report struct {
	ScanID         string
	Location       string
	Total          int
	Matched        []models.InventoryResult
	CheckedNoMatch []models.InventoryResult
	NoWebsite      []models.InventoryResult
}

func GenerateReport(run models.ScanRun) Report {
	report := Report{
		ScanID:   run.ID,
		Location: run.Location,
		Total:    len(run.Results),
	}

	for _, r := range run.Results {
		switch {
		case r.HasProduct:
			report.Matched = append(report.Matched, r)
		case r.SearchAttempted:
			report.CheckedNoMatch = append(report.CheckedNoMatch, r)
		default:
			report.NoWebsite = append(report.NoWebsite, r)
		}
	}

	return report
}

// FormatReport renders the report as plain text. Empty sections are omitted.
func FormatReport(report Report) string {
	var b strings.Builder
	heavy := strings.Repeat("=", ruleWidth)
	light := strings.Repeat("-", ruleWidth)

	line := func(format string, a ...interface{}) {
		fmt.Fprintf(&b, format+"\n", a...)
	}

	line(heavy)
	line("ARKHAM HORROR LCG STORE SCAN RESULTS")
	line(heavy)
	if report.Location != "" {
		line("Location: %s", report.Location)
	}
	if report.ScanID != "" {
		line("Scan ID: %s", report.ScanID)
	}
	line("")
	line("Total stores checked: %d", report.Total)
	line("Stores with Arkham Horror products: %d", len(report.Matched))
	line("")
	line(light)

	if len(report.Matched) > 0 {
		line("")
		line("STORES WITH ARKHAM HORROR LCG PRODUCTS:")
		line(light)
		for _, s := range report.Matched {
			line("")
			line("* %s", s.StoreName)
			line("   Website: %s", s.Website)
			line("   Phone: %s", s.Phone)
			line("   Address: %s", s.Address)
			line("   Google Maps: %s", s.MapsURL)
			if len(s.ProductsFound) > 0 {
				line("   Products found:")
				for _, p := range s.ProductsFound {
					line("      - %s", p)
				}
			} else {
				line("   Note: %s", mentionedNote)
			}
		}
	}

	if len(report.CheckedNoMatch) > 0 {
		line("")
		line(light)
		line("STORES CHECKED (No Arkham Horror products found):")
		line(light)
		for _, s := range report.CheckedNoMatch {
			line("  - %s", s.StoreName)
			if s.Website != models.NoWebsite {
				line("    Website: %s", s.Website)
			}
		}
	}

	if len(report.NoWebsite) > 0 {
		line("")
		line(light)
		line("STORES WITHOUT WEBSITES (Could not check inventory):")
		line(light)
		for _, s := range report.NoWebsite {
			line("  - %s", s.StoreName)
			line("    Phone: %s", s.Phone)
			line("    Google Maps: %s", s.MapsURL)
		}
	}

	return b.String()
}

func PrintReport(report Report) {
	fmt.Println()
	fmt.Print(FormatReport(report))
}
