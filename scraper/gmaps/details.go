package gmaps

import (
	"arkham-scraper/config"
	"arkham-scraper/models"
	"arkham-scraper/scraper/browser"
	"arkham-scraper/utils"
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"
)

const (
	phoneSelector   = "button[data-item-id^='phone']"
	websiteSelector = "a[data-item-id='authority']"
	addressSelector = "button[data-item-id='address']"
)

var phonePattern = regexp.MustCompile(`phone:tel:(.+)`)

// Extractor opens a result card's detail panel and reads its contact fields.
type Extractor struct {
	session browser.Session
	cfg     *config.Config
}

func NewExtractor(session browser.Session, cfg *config.Config) *Extractor {
	return &Extractor{session: session, cfg: cfg}
}

// Extract fills in phone, website, address and map URL for rc. Each field
// is read independently; any that cannot be read stays empty. It returns
// false only when the card has no name.
func (e *Extractor) Extract(ctx context.Context, rc ResultCard) (models.StoreCandidate, bool) {
	store := rc.Store
	if strings.TrimSpace(store.Name) == "" {
		return store, false
	}

	if rc.card == nil {
		return store, true
	}
	if err := rc.card.Click(ctx); err != nil {
		utils.Warn("Error clicking element or extracting details for %s: %v", store.Name, err)
		return store, true
	}
	utils.Settle(ctx, e.cfg.Delays.DetailSettle)

	if phone, ok := e.phone(ctx); ok {
		store.Phone = phone
	}
	if website, ok := e.website(ctx); ok {
		store.Website = website
	}
	if address, ok := e.address(ctx); ok {
		store.Address = address
	}
	if mapsURL, ok := e.mapsURL(ctx); ok {
		store.MapsURL = mapsURL
	}

	utils.Debug("Details for %s | phone=%q website=%q address=%q", store.Name, store.Phone, store.Website, store.Address)
	return store, true
}

func (e *Extractor) attr(ctx context.Context, selector, name string) (string, bool) {
	el, err := browser.First(ctx, e.session, selector)
	if err != nil {
		logAbsent(selector, err)
		return "", false
	}
	v, err := el.Attr(ctx, name)
	if err != nil {
		logAbsent(selector, err)
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *Extractor) phone(ctx context.Context) (string, bool) {
	id, ok := e.attr(ctx, phoneSelector, "data-item-id")
	if !ok {
		return "", false
	}
	m := phonePattern.FindStringSubmatch(id)
	if m == nil {
		return "", false
	}
	phone := strings.TrimSpace(m[1])
	return phone, phone != ""
}

func (e *Extractor) website(ctx context.Context) (string, bool) {
	href, ok := e.attr(ctx, websiteSelector, "href")
	if !ok {
		return "", false
	}
	return unwrapRedirect(href), true
}

// address returns the control's accessible label as shown, including the
// "Address: " prefix Maps puts in front of it.
func (e *Extractor) address(ctx context.Context) (string, bool) {
	return e.attr(ctx, addressSelector, "aria-label")
}

func (e *Extractor) mapsURL(ctx context.Context) (string, bool) {
	u, err := e.session.CurrentURL(ctx)
	if err != nil {
		logAbsent("current url", err)
		return "", false
	}
	return u, u != ""
}

// unwrapRedirect returns the target of a https://www.google.com/url?q=...
// wrapper, or raw unchanged.
func unwrapRedirect(raw string) string {
	if !strings.HasPrefix(raw, "https://www.google.com/url?") {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if target := parsed.Query().Get("q"); target != "" {
		return target
	}
	return raw
}

func logAbsent(what string, err error) {
	if errors.Is(err, browser.ErrNoMatch) {
		utils.Debug("%s not present", what)
		return
	}
	utils.Warn("Error reading %s: %v", what, err)
}
