package gmaps

import (
	"arkham-scraper/config"
	"arkham-scraper/models"
	"arkham-scraper/scraper/browser"
	"arkham-scraper/utils"
	"context"
	"errors"
	"net/url"
	"strings"
)

const queryPrefix = "board game stores near "

// Google Maps markup. These class names change without notice.
const (
	feedSelector = "div[role='feed']"
	cardSelector = "div.Nv2PK"
	nameSelector = "div.fontHeadlineSmall"
)

// ResultCard is a name-only store stub plus the list entry it came from.
type ResultCard struct {
	Store models.StoreCandidate
	card  browser.Element
}

type Searcher struct {
	session browser.Session
	cfg     *config.Config
}

func NewSearcher(session browser.Session, cfg *config.Config) *Searcher {
	return &Searcher{session: session, cfg: cfg}
}

// SearchURL builds the map search URL for location under baseURL.
func SearchURL(baseURL, location string) string {
	return baseURL + url.QueryEscape(queryPrefix+location)
}

// Search returns up to cfg.Search.MaxStores named result cards for location.
// Failures are logged and yield fewer (or zero) cards, never an error.
func (s *Searcher) Search(ctx context.Context, location string) []ResultCard {
	searchURL := SearchURL(s.cfg.Search.MapsURL, location)
	utils.Info("Searching map results: %s", searchURL)

	if err := s.session.Navigate(ctx, searchURL); err != nil {
		utils.Error("Error searching for stores: %v", err)
		return nil
	}
	utils.Settle(ctx, s.cfg.Delays.MapsSettle)

	if err := s.session.WaitFor(ctx, feedSelector, s.cfg.Search.ResultsTimeout); err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			utils.Warn("Timeout waiting for search results for location: %s", location)
		} else {
			utils.Error("Error waiting for search results: %v", err)
		}
		return nil
	}
	utils.Settle(ctx, s.cfg.Delays.FeedSettle)

	cards, err := s.session.Query(ctx, cardSelector)
	if err != nil {
		utils.Error("Error listing result cards: %v", err)
		return nil
	}

	limit := min(s.cfg.Search.MaxStores, config.MaxStoresLimit)
	if len(cards) > limit {
		cards = cards[:limit]
	}

	results := make([]ResultCard, 0, len(cards))
	for i, card := range cards {
		name, ok := cardName(ctx, card)
		if !ok {
			utils.Debug("Result card %d has no name, skipping", i+1)
			continue
		}
		results = append(results, ResultCard{
			Store: models.StoreCandidate{Name: name},
			card:  card,
		})
	}

	utils.Success("Found %d game stores", len(results))
	return results
}

func cardName(ctx context.Context, card browser.Element) (string, bool) {
	el, err := browser.First(ctx, card, nameSelector)
	if err != nil {
		if !errors.Is(err, browser.ErrNoMatch) {
			utils.Warn("Error extracting store name: %v", err)
		}
		return "", false
	}
	text, err := el.Text(ctx)
	if err != nil {
		utils.Warn("Error extracting store name: %v", err)
		return "", false
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}
