package browser

import (
	"arkham-scraper/config"
	"arkham-scraper/utils"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// ChromeSession drives a single headless Chrome tab.
type ChromeSession struct {
	cfg         *config.Config
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	closeOnce   sync.Once
}

func NewChromeSession(ctx context.Context, cfg *config.Config) (*ChromeSession, error) {
	utils.Info("Launching Chrome browser...")
	allocCtx, allocCancel := chromedp.NewExecAllocator(
		ctx,
		utils.LaunchOptions(cfg.Browser.Headless, cfg.Browser.UserAgent)...,
	)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// The first Run starts the browser; it must not carry a timeout or the
	// whole browser dies with it.
	if err := chromedp.Run(tabCtx, utils.HideAutomation()); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %w", ErrSessionInit, err)
	}

	utils.Success("Browser ready")
	return &ChromeSession{
		cfg:         cfg,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}, nil
}

func (s *ChromeSession) Close() error {
	s.closeOnce.Do(func() {
		utils.Info("Closing browser...")
		s.tabCancel()
		s.allocCancel()
	})
	return nil
}

// run executes actions on the tab with a per-call deadline. Deadlines are
// derived from the tab context, never from the caller's.
func (s *ChromeSession) run(ctx context.Context, d time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var (
		actx   context.Context
		cancel context.CancelFunc
	)
	if d > 0 {
		actx, cancel = context.WithTimeout(s.tabCtx, d)
	} else {
		actx, cancel = context.WithCancel(s.tabCtx)
	}
	defer cancel()
	return chromedp.Run(actx, actions...)
}

func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	err := s.run(ctx, s.cfg.Browser.NavigationTimeout, chromedp.Navigate(url))
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrNavigation, url, err)
	}
	return nil
}

func (s *ChromeSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	err := s.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery))
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s after %v: %w", selector, timeout, ErrTimeout)
	}
	return err
}

func (s *ChromeSession) Query(ctx context.Context, selector string) ([]Element, error) {
	return s.query(ctx, selector)
}

func (s *ChromeSession) query(ctx context.Context, selector string, opts ...chromedp.QueryOption) ([]Element, error) {
	var nodes []*cdp.Node
	opts = append(opts, chromedp.ByQueryAll, chromedp.AtLeast(0))
	if err := s.run(ctx, s.cfg.Browser.ActionTimeout, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}

	elems := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elems = append(elems, &chromeElement{s: s, node: n})
	}
	return elems, nil
}

func (s *ChromeSession) PageSource(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, s.cfg.Browser.ActionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read page source: %w", err)
	}
	return html, nil
}

func (s *ChromeSession) CurrentURL(ctx context.Context) (string, error) {
	var u string
	if err := s.run(ctx, s.cfg.Browser.ActionTimeout, chromedp.Location(&u)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return u, nil
}

type chromeElement struct {
	s    *ChromeSession
	node *cdp.Node
}

func (e *chromeElement) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

func (e *chromeElement) Text(ctx context.Context) (string, error) {
	var text string
	err := e.s.run(ctx, e.s.cfg.Browser.ActionTimeout,
		chromedp.JavascriptAttribute(e.ids(), "innerText", &text, chromedp.ByNodeID),
	)
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return text, nil
}

func (e *chromeElement) Attr(ctx context.Context, name string) (string, error) {
	var (
		value string
		ok    bool
	)
	err := e.s.run(ctx, e.s.cfg.Browser.ActionTimeout,
		chromedp.AttributeValue(e.ids(), name, &value, &ok, chromedp.ByNodeID),
	)
	if err != nil {
		return "", fmt.Errorf("read attribute %s: %w", name, err)
	}
	if !ok {
		return "", fmt.Errorf("attribute %s: %w", name, ErrNoMatch)
	}
	return value, nil
}

func (e *chromeElement) Query(ctx context.Context, selector string) ([]Element, error) {
	return e.s.query(ctx, selector, chromedp.FromNode(e.node))
}

func (e *chromeElement) Click(ctx context.Context) error {
	if err := e.s.run(ctx, e.s.cfg.Browser.ActionTimeout, chromedp.Click(e.ids(), chromedp.ByNodeID)); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

// TypeAndSubmit presses Enter after typing, which submits the enclosing form
// or fires the site's own search handler.
func (e *chromeElement) TypeAndSubmit(ctx context.Context, text string) error {
	err := e.s.run(ctx, e.s.cfg.Browser.ActionTimeout,
		chromedp.Clear(e.ids(), chromedp.ByNodeID),
		chromedp.SendKeys(e.ids(), text+kb.Enter, chromedp.ByNodeID),
	)
	if err != nil {
		return fmt.Errorf("type and submit: %w", err)
	}
	return nil
}
