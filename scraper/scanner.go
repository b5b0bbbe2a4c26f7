package scraper

import (
	"arkham-scraper/config"
	"arkham-scraper/models"
	"arkham-scraper/scraper/browser"
	"arkham-scraper/scraper/gmaps"
	"arkham-scraper/scraper/inventory"
	"arkham-scraper/utils"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Scanner runs one location scan end to end on a single session.
type Scanner struct {
	cfg  *config.Config
	open browser.Opener
	opts inventory.Options
}

func NewScanner(cfg *config.Config, open browser.Opener) *Scanner {
	return &Scanner{
		cfg:  cfg,
		open: open,
		opts: inventory.DefaultOptions(),
	}
}

// Scan finds stores near location and checks each one's website. The only
// error it returns is a session that failed to start; every later failure
// shrinks or degrades the results instead.
func (s *Scanner) Scan(ctx context.Context, location string) ([]models.InventoryResult, error) {
	session, err := s.open(ctx, s.cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			utils.Warn("Error closing browser session: %v", err)
		}
	}()

	utils.Section(fmt.Sprintf("Searching for stores near %s", location))
	cards := gmaps.NewSearcher(session, s.cfg).Search(ctx, location)
	if len(cards) == 0 {
		utils.Warn("No stores found near %s", location)
		return []models.InventoryResult{}, nil
	}

	// Card handles go stale once the session leaves the results page, so
	// every detail panel is read before any store website is visited.
	extractor := gmaps.NewExtractor(session, s.cfg)
	stores := make([]models.StoreCandidate, 0, len(cards))
	for _, card := range cards {
		if store, ok := extractor.Extract(ctx, card); ok {
			stores = append(stores, store)
		}
	}

	utils.Section(fmt.Sprintf("Checking %d store websites", len(stores)))
	prober := inventory.NewProber(session, s.cfg, s.opts)
	results := make([]models.InventoryResult, 0, len(stores))
	for i, store := range stores {
		if ctx.Err() != nil {
			utils.Warn("Scan interrupted after %d of %d stores", i, len(stores))
			break
		}

		utils.Info("[%d/%d] Checking %s", i+1, len(stores), store.Name)
		result := prober.Check(ctx, store)
		results = append(results, result)

		if result.HasProduct {
			utils.Success("%s carries Arkham Horror (%d products listed)", result.StoreName, len(result.ProductsFound))
		}

		if i < len(stores)-1 {
			d := s.cfg.Delays
			utils.RandomDelay(ctx, d.BetweenStores, d.BetweenStores+d.BetweenStoresJitter)
		}
	}

	return results, nil
}

// Run wraps Scan with a run ID and timestamps.
func (s *Scanner) Run(ctx context.Context, location string) (models.ScanRun, error) {
	run := models.ScanRun{
		ID:        uuid.NewString(),
		Location:  location,
		StartedAt: time.Now(),
	}

	results, err := s.Scan(ctx, location)
	run.FinishedAt = time.Now()
	if err != nil {
		return run, err
	}
	run.Results = results

	utils.Success("Scan %s finished in %s | stores checked: %d", run.ID, run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond), len(results))
	return run, nil
}
