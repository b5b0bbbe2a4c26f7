package browser

import (
	"arkham-scraper/config"
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrSessionInit is returned when the automation backend cannot start.
	ErrSessionInit = errors.New("automation session could not start")

	// ErrNoMatch is returned when a selector or attribute resolves to nothing.
	ErrNoMatch = errors.New("no matching element")

	// ErrTimeout is returned when a wait exceeds its deadline.
	ErrTimeout = errors.New("wait timed out")

	// ErrNavigation is returned when a page cannot be loaded.
	ErrNavigation = errors.New("navigation failed")
)

// Session is a single browsing handle. It is not safe for concurrent use.
type Session interface {
	// Navigate loads url. It does not wait for the page to settle.
	Navigate(ctx context.Context, url string) error

	// WaitFor blocks until selector is present or timeout elapses (ErrTimeout).
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error

	// Query returns every element matching selector, possibly none.
	Query(ctx context.Context, selector string) ([]Element, error)

	// PageSource returns the serialized document of the current page.
	PageSource(ctx context.Context) (string, error)

	CurrentURL(ctx context.Context) (string, error)

	// Close releases the session. Calling it again is a no-op.
	Close() error
}

// Element is a handle to one node of the current document.
type Element interface {
	Text(ctx context.Context) (string, error)

	// Attr returns ErrNoMatch when the attribute is absent.
	Attr(ctx context.Context, name string) (string, error)

	// Query returns descendants matching selector.
	Query(ctx context.Context, selector string) ([]Element, error)

	Click(ctx context.Context) error

	// TypeAndSubmit clears the field, types text and submits it.
	TypeAndSubmit(ctx context.Context, text string) error
}

// Querier is implemented by both Session and Element.
type Querier interface {
	Query(ctx context.Context, selector string) ([]Element, error)
}

// Opener starts a session for cfg.
type Opener func(ctx context.Context, cfg *config.Config) (Session, error)

// First returns the first element matching selector under q.
func First(ctx context.Context, q Querier, selector string) (Element, error) {
	elems, err := q.Query(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ErrNoMatch)
	}
	return elems[0], nil
}

// Open starts the backend named by cfg.Browser.Backend.
func Open(ctx context.Context, cfg *config.Config) (Session, error) {
	switch cfg.Browser.Backend {
	case config.BackendStatic:
		return NewStaticSession(cfg)
	case config.BackendChromedp, "":
		return NewChromeSession(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown backend %q: %w", cfg.Browser.Backend, ErrSessionInit)
	}
}
