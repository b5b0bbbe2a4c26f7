package models

import (
	"strings"
	"time"
)

// NoWebsite is the sentinel stored in place of a missing website.
const NoWebsite = "N/A"

const unknownStore = "Unknown"

type StoreCandidate struct {
	Name    string
	Address string
	Phone   string
	Website string
	MapsURL string
}

// HasWebsite reports whether the candidate carries a website worth visiting.
func (c StoreCandidate) HasWebsite() bool {
	w := strings.TrimSpace(c.Website)
	return w != "" && w != NoWebsite
}

type InventoryResult struct {
	StoreName       string
	Website         string
	Phone           string
	Address         string
	MapsURL         string
	HasProduct      bool
	ProductsFound   []string
	SearchAttempted bool
}

// NewInventoryResult copies the candidate's fields into an empty result,
// substituting "Unknown" for a missing name and "N/A" for other missing fields.
func NewInventoryResult(c StoreCandidate) InventoryResult {
	return InventoryResult{
		StoreName:     valueOr(c.Name, unknownStore),
		Website:       valueOr(c.Website, NoWebsite),
		Phone:         valueOr(c.Phone, NoWebsite),
		Address:       valueOr(c.Address, NoWebsite),
		MapsURL:       valueOr(c.MapsURL, NoWebsite),
		ProductsFound: []string{},
	}
}

type ScanRun struct {
	ID         string
	Location   string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []InventoryResult
}

func valueOr(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
