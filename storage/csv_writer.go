package storage

import (
	"arkham-scraper/models"
	"arkham-scraper/utils"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// productSeparator joins ProductsFound into a single cell.
const productSeparator = "; "

var csvHeader = []string{
	"scan_id", "location", "store_name", "website", "phone", "address",
	"maps_url", "has_product", "products_found", "search_attempted",
}

// CSVWriter exports one scan run's results to a CSV file.
type CSVWriter struct {
	path string
}

func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Write saves every result of run, one row per store, overwriting the file.
// Creates the output directory if it does not exist.
func (w *CSVWriter) Write(run models.ScanRun) error {
	if len(run.Results) == 0 {
		utils.Warn("No results to write")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("could not create output dir: %w", err)
	}

	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}
	for _, r := range run.Results {
		row := []string{
			run.ID,
			run.Location,
			r.StoreName,
			r.Website,
			r.Phone,
			r.Address,
			r.MapsURL,
			strconv.FormatBool(r.HasProduct),
			strings.Join(r.ProductsFound, productSeparator),
			strconv.FormatBool(r.SearchAttempted),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("csv write error: %w", err)
		}
	}

	// must flush or rows stay in the buffer
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}

	utils.Success("Saved %d results → %s", len(run.Results), w.path)
	return nil
}
