package inventory

import (
	"arkham-scraper/config"
	"arkham-scraper/models"
	"arkham-scraper/scraper/browser"
	"arkham-scraper/utils"
	"context"
	"errors"
	"strings"
)

// Matcher is one CSS selection strategy in a priority chain.
type Matcher struct {
	Name     string
	Selector string
}

// Keywords mark a page as mentioning the product line. Matching is a
// case-insensitive substring test against the page source.
var Keywords = []string{
	"arkham horror",
	"arkham horror lcg",
	"arkham horror: the card game",
	"arkham horror card game",
	"fantasy flight arkham",
}

// SearchInputMatchers locate a site's search box, highest priority first.
var SearchInputMatchers = []Matcher{
	{Name: "search-typed input", Selector: "input[type='search']"},
	{Name: "name=q", Selector: "input[name='q']"},
	{Name: "name=search", Selector: "input[name='search']"},
	{Name: "placeholder~search", Selector: "input[placeholder*='search' i]"},
	{Name: "class~search", Selector: "input[class*='search' i]"},
	{Name: "#search", Selector: "#search"},
	{Name: ".search-input", Selector: ".search-input"},
}

// ProductMatchers locate product titles on a listing page, highest priority first.
var ProductMatchers = []Matcher{
	{Name: "product-title", Selector: ".product-title"},
	{Name: "product-name", Selector: ".product-name"},
	{Name: "h2.product", Selector: "h2.product"},
	{Name: "h3.product", Selector: "h3.product"},
	{Name: "item-title", Selector: ".item-title"},
}

type Options struct {
	Keywords      []string
	SearchQuery   string
	ConfirmPhrase string // re-checked after an on-site search
	SearchInputs  []Matcher
	Products      []Matcher
	MaxProducts   int // elements inspected per product matcher
}

func DefaultOptions() Options {
	return Options{
		Keywords:      Keywords,
		SearchQuery:   "Arkham Horror LCG",
		ConfirmPhrase: "arkham horror",
		SearchInputs:  SearchInputMatchers,
		Products:      ProductMatchers,
		MaxProducts:   5,
	}
}

// Prober decides whether a store's website carries the product line.
type Prober struct {
	session browser.Session
	cfg     *config.Config
	opts    Options
}

func NewProber(session browser.Session, cfg *config.Config, opts Options) *Prober {
	return &Prober{session: session, cfg: cfg, opts: opts}
}

// Check visits the store's website and returns its inventory result. It
// never fails: navigation and selector errors are logged and the result
// keeps whatever was established before them.
func (p *Prober) Check(ctx context.Context, store models.StoreCandidate) models.InventoryResult {
	result := models.NewInventoryResult(store)

	if !store.HasWebsite() {
		utils.Debug("%s has no website, skipping inventory check", result.StoreName)
		return result
	}

	result.SearchAttempted = true
	website := strings.TrimSpace(store.Website)

	if err := p.session.Navigate(ctx, website); err != nil {
		utils.Warn("Error checking inventory for %s: %v", result.StoreName, err)
		return result
	}
	utils.Settle(ctx, p.cfg.Delays.PageSettle)

	// A landing page mention marks the store but products are only read
	// from the site's own search results.
	if keyword, ok := p.scan(ctx, p.opts.Keywords); ok {
		utils.Info("%s mentions %q on its website", result.StoreName, keyword)
		result.HasProduct = true
	}

	if !p.siteSearch(ctx) {
		utils.Debug("No usable search box on %s", website)
		return result
	}
	utils.Settle(ctx, p.cfg.Delays.SearchSettle)

	if _, ok := p.scan(ctx, []string{p.opts.ConfirmPhrase}); ok {
		utils.Info("%s lists %q in its site search", result.StoreName, p.opts.ConfirmPhrase)
		result.HasProduct = true
		result.ProductsFound = p.extractProducts(ctx)
	}

	return result
}

// scan reports the first phrase found in the lower-cased page source.
func (p *Prober) scan(ctx context.Context, phrases []string) (string, bool) {
	src, err := p.session.PageSource(ctx)
	if err != nil {
		utils.Warn("Error reading page source: %v", err)
		return "", false
	}
	src = strings.ToLower(src)
	for _, phrase := range phrases {
		if strings.Contains(src, strings.ToLower(phrase)) {
			return phrase, true
		}
	}
	return "", false
}

// siteSearch submits the query through the first search box found. It
// reports whether a search was actually submitted.
func (p *Prober) siteSearch(ctx context.Context) bool {
	for _, m := range p.opts.SearchInputs {
		input, err := browser.First(ctx, p.session, m.Selector)
		if err != nil {
			if !errors.Is(err, browser.ErrNoMatch) {
				utils.Warn("Search matcher %s failed: %v", m.Name, err)
			}
			continue
		}

		if err := input.TypeAndSubmit(ctx, p.opts.SearchQuery); err != nil {
			utils.Warn("Error trying site search via %s: %v", m.Name, err)
			return false
		}
		utils.Debug("Submitted site search via %s", m.Name)
		return true
	}
	return false
}

// extractProducts returns the matching titles from the first product
// matcher that yields any. The result may be empty but is never nil.
func (p *Prober) extractProducts(ctx context.Context) []string {
	phrase := strings.ToLower(p.opts.ConfirmPhrase)

	for _, m := range p.opts.Products {
		elems, err := p.session.Query(ctx, m.Selector)
		if err != nil {
			utils.Warn("Product matcher %s failed: %v", m.Name, err)
			continue
		}
		if len(elems) > p.opts.MaxProducts {
			elems = elems[:p.opts.MaxProducts]
		}

		var products []string
		for _, el := range elems {
			text, err := el.Text(ctx)
			if err != nil {
				utils.Warn("Error reading product title via %s: %v", m.Name, err)
				continue
			}
			text = strings.TrimSpace(text)
			if text != "" && strings.Contains(strings.ToLower(text), phrase) {
				products = append(products, text)
			}
		}

		if len(products) > 0 {
			utils.Debug("Found %d products via %s", len(products), m.Name)
			return products
		}
	}
	return []string{}
}
