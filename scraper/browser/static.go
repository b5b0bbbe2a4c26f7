package browser

import (
	"arkham-scraper/config"
	"arkham-scraper/utils"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"
)

const maxPageBytes = 2 * 1024 * 1024

// StaticSession browses plain HTML over net/http without running scripts.
// Clicking follows links and submitting posts the enclosing form, which is
// enough for server-rendered store sites.
type StaticSession struct {
	client    *http.Client
	userAgent string
	current   *url.URL
	doc       *goquery.Document
	source    string
	closed    bool
}

func NewStaticSession(cfg *config.Config) (*StaticSession, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("%w: cookie jar: %w", ErrSessionInit, err)
	}

	ua := cfg.Browser.UserAgent
	if ua == "" {
		ua = utils.RandomUserAgent()
	}

	return &StaticSession{
		client: &http.Client{
			Timeout: cfg.Browser.NavigationTimeout,
			Jar:     jar,
		},
		userAgent: ua,
	}, nil
}

func (s *StaticSession) Navigate(ctx context.Context, rawURL string) error {
	return s.load(ctx, http.MethodGet, rawURL, nil)
}

func (s *StaticSession) load(ctx context.Context, method, target string, form url.Values) error {
	if s.closed {
		return fmt.Errorf("%w %s: session closed", ErrNavigation, target)
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrNavigation, target, err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrNavigation, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w %s: status %d", ErrNavigation, target, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return fmt.Errorf("%w %s: read body: %w", ErrNavigation, target, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w %s: parse: %w", ErrNavigation, target, err)
	}

	s.doc = doc
	s.source = string(raw)
	s.current = resp.Request.URL
	return nil
}

// WaitFor checks presence once; a static document never changes.
func (s *StaticSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if s.doc != nil && s.doc.Find(selector).Length() > 0 {
		return nil
	}
	return fmt.Errorf("%s after %v: %w", selector, timeout, ErrTimeout)
}

func (s *StaticSession) Query(ctx context.Context, selector string) ([]Element, error) {
	if s.doc == nil {
		return nil, nil
	}
	return s.wrap(s.doc.Find(selector), s.current), nil
}

func (s *StaticSession) PageSource(ctx context.Context) (string, error) {
	return s.source, nil
}

func (s *StaticSession) CurrentURL(ctx context.Context) (string, error) {
	if s.current == nil {
		return "", fmt.Errorf("no page loaded: %w", ErrNoMatch)
	}
	return s.current.String(), nil
}

func (s *StaticSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.client.CloseIdleConnections()
	return nil
}

// wrap ties each node to the URL of the document it was read from, so
// links keep resolving correctly after the session moves on.
func (s *StaticSession) wrap(sel *goquery.Selection, base *url.URL) []Element {
	elems := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, n *goquery.Selection) {
		elems = append(elems, &staticElement{s: s, sel: n, base: base})
	})
	return elems
}

func resolve(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	if base == nil {
		return u.String(), nil
	}
	return base.ResolveReference(u).String(), nil
}

type staticElement struct {
	s    *StaticSession
	sel  *goquery.Selection
	base *url.URL
}

func (e *staticElement) Text(ctx context.Context) (string, error) {
	return strings.TrimSpace(e.sel.Text()), nil
}

func (e *staticElement) Attr(ctx context.Context, name string) (string, error) {
	v, ok := e.sel.Attr(name)
	if !ok {
		return "", fmt.Errorf("attribute %s: %w", name, ErrNoMatch)
	}
	return v, nil
}

func (e *staticElement) Query(ctx context.Context, selector string) ([]Element, error) {
	return e.s.wrap(e.sel.Find(selector), e.base), nil
}

// Click follows the element's href, or the first link inside it.
func (e *staticElement) Click(ctx context.Context) error {
	href, ok := e.sel.Attr("href")
	if !ok {
		href, ok = e.sel.Find("a[href]").First().Attr("href")
	}
	if !ok || strings.TrimSpace(href) == "" {
		return fmt.Errorf("click: no link to follow: %w", ErrNoMatch)
	}

	target, err := resolve(e.base, href)
	if err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return e.s.Navigate(ctx, target)
}

func (e *staticElement) TypeAndSubmit(ctx context.Context, text string) error {
	form := e.sel.Closest("form")
	if form.Length() == 0 {
		return fmt.Errorf("submit: no enclosing form: %w", ErrNoMatch)
	}

	name, _ := e.sel.Attr("name")
	if name == "" {
		return fmt.Errorf("submit: input has no name: %w", ErrNoMatch)
	}

	values := url.Values{}
	self := e.sel.Get(0)
	form.Find("input[name], textarea[name]").Each(func(_ int, f *goquery.Selection) {
		if f.Get(0) == self {
			return
		}
		fieldType := strings.ToLower(f.AttrOr("type", "text"))
		switch fieldType {
		case "submit", "button", "image", "reset", "file":
			return
		case "checkbox", "radio":
			if _, checked := f.Attr("checked"); !checked {
				return
			}
		}
		v := f.AttrOr("value", "")
		if goquery.NodeName(f) == "textarea" {
			v = f.Text()
		}
		values.Add(f.AttrOr("name", ""), v)
	})
	values.Set(name, text)

	action, err := resolve(e.base, form.AttrOr("action", ""))
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	if strings.EqualFold(form.AttrOr("method", http.MethodGet), http.MethodPost) {
		return e.s.load(ctx, http.MethodPost, action, values)
	}

	u, err := url.Parse(action)
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	u.RawQuery = values.Encode()
	return e.s.load(ctx, http.MethodGet, u.String(), nil)
}
