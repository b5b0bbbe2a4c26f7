package browser

import (
	"arkham-scraper/config"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc123", Path: "/"})
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, `<html><body>
			<div role="feed">
				<div class="card"><a href="/place/1">one</a><span class="name">First Store</span></div>
				<div class="card"><span class="name">No Link Store</span></div>
			</div>
			<a id="direct" href="place/2">two</a>
			<form action="/search" method="get">
				<input type="hidden" name="type" value="product">
				<input type="checkbox" name="instock" value="1">
				<input type="submit" name="go" value="Go">
				<input type="search" name="q" value="old">
			</form>
			<form action="/post-search" method="POST">
				<input class="search-input" name="term">
			</form>
			<input id="orphan" name="q">
		</body></html>`)
	})

	mux.HandleFunc("/place/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><h1>%s</h1></body></html>`, r.URL.Path)
	})

	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		cookie := "none"
		if c, err := r.Cookie("session"); err == nil {
			cookie = c.Value
		}
		q := r.URL.Query()
		fmt.Fprintf(w, `<p id="q">%s</p><p id="type">%s</p><p id="instock">%s</p><p id="go">%s</p><p id="cookie">%s</p>`,
			q.Get("q"), q.Get("type"), q.Get("instock"), q.Get("go"), cookie)
	})

	mux.HandleFunc("/post-search", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		r.ParseForm()
		fmt.Fprintf(w, `<p id="term">%s</p>`, r.PostForm.Get("term"))
	})

	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestStaticSession(t *testing.T) *StaticSession {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Browser.Backend = config.BackendStatic
	s, err := NewStaticSession(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func textOf(t *testing.T, ctx context.Context, q Querier, selector string) string {
	t.Helper()
	el, err := First(ctx, q, selector)
	require.NoError(t, err)
	text, err := el.Text(ctx)
	require.NoError(t, err)
	return text
}

func TestStaticSession_NavigateAndQuery(t *testing.T) {
	srv := staticTestServer(t)
	s := newTestStaticSession(t)
	ctx := context.Background()

	require.NoError(t, s.Navigate(ctx, srv.URL+"/"))

	cards, err := s.Query(ctx, "div.card")
	require.NoError(t, err)
	require.Len(t, cards, 2)

	assert.Equal(t, "First Store", textOf(t, ctx, cards[0], "span.name"))

	none, err := s.Query(ctx, ".does-not-exist")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = First(ctx, s, ".does-not-exist")
	assert.True(t, errors.Is(err, ErrNoMatch))

	src, err := s.PageSource(ctx)
	require.NoError(t, err)
	assert.Contains(t, src, "First Store")

	u, err := s.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/", u)
}

func TestStaticSession_Attr(t *testing.T) {
	srv := staticTestServer(t)
	s := newTestStaticSession(t)
	ctx := context.Background()
	require.NoError(t, s.Navigate(ctx, srv.URL+"/"))

	link, err := First(ctx, s, "#direct")
	require.NoError(t, err)

	href, err := link.Attr(ctx, "href")
	require.NoError(t, err)
	assert.Equal(t, "place/2", href)

	_, err = link.Attr(ctx, "aria-label")
	assert.True(t, errors.Is(err, ErrNoMatch))
}

func TestStaticSession_NavigateFailure(t *testing.T) {
	srv := staticTestServer(t)
	s := newTestStaticSession(t)
	ctx := context.Background()

	err := s.Navigate(ctx, srv.URL+"/missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNavigation))

	err = s.Navigate(ctx, "http://127.0.0.1:1/unreachable")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNavigation))
}

func TestStaticSession_WaitFor(t *testing.T) {
	srv := staticTestServer(t)
	s := newTestStaticSession(t)
	ctx := context.Background()

	err := s.WaitFor(ctx, "div[role='feed']", time.Second)
	assert.True(t, errors.Is(err, ErrTimeout), "nothing loaded yet")

	require.NoError(t, s.Navigate(ctx, srv.URL+"/"))
	assert.NoError(t, s.WaitFor(ctx, "div[role='feed']", time.Second))

	err = s.WaitFor(ctx, "div.absent", time.Second)
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestStaticSession_Click(t *testing.T) {
	srv := staticTestServer(t)
	s := newTestStaticSession(t)
	ctx := context.Background()

	t.Run("follows a link inside the element", func(t *testing.T) {
		require.NoError(t, s.Navigate(ctx, srv.URL+"/"))
		card, err := First(ctx, s, "div.card")
		require.NoError(t, err)

		require.NoError(t, card.Click(ctx))
		u, _ := s.CurrentURL(ctx)
		assert.Equal(t, srv.URL+"/place/1", u)
		assert.Equal(t, "/place/1", textOf(t, ctx, s, "h1"))
	})

	t.Run("resolves a relative href", func(t *testing.T) {
		require.NoError(t, s.Navigate(ctx, srv.URL+"/"))
		link, err := First(ctx, s, "#direct")
		require.NoError(t, err)

		require.NoError(t, link.Click(ctx))
		u, _ := s.CurrentURL(ctx)
		assert.Equal(t, srv.URL+"/place/2", u)
	})

	t.Run("relative href resolves against its own document", func(t *testing.T) {
		require.NoError(t, s.Navigate(ctx, srv.URL+"/"))
		card, err := First(ctx, s, "div.card")
		require.NoError(t, err)
		link, err := First(ctx, s, "#direct")
		require.NoError(t, err)

		require.NoError(t, card.Click(ctx))
		require.NoError(t, link.Click(ctx))

		u, _ := s.CurrentURL(ctx)
		assert.Equal(t, srv.URL+"/place/2", u, "not /place/place/2")
	})

	t.Run("fails when there is nothing to follow", func(t *testing.T) {
		require.NoError(t, s.Navigate(ctx, srv.URL+"/"))
		cards, err := s.Query(ctx, "div.card")
		require.NoError(t, err)
		require.Len(t, cards, 2)

		err = cards[1].Click(ctx)
		assert.True(t, errors.Is(err, ErrNoMatch))
	})
}

func TestStaticSession_TypeAndSubmit(t *testing.T) {
	srv := staticTestServer(t)
	s := newTestStaticSession(t)
	ctx := context.Background()

	t.Run("GET form keeps hidden fields and cookies", func(t *testing.T) {
		require.NoError(t, s.Navigate(ctx, srv.URL+"/"))
		input, err := First(ctx, s, "input[type='search']")
		require.NoError(t, err)

		require.NoError(t, input.TypeAndSubmit(ctx, "Arkham Horror LCG"))

		assert.Equal(t, "Arkham Horror LCG", textOf(t, ctx, s, "#q"))
		assert.Equal(t, "product", textOf(t, ctx, s, "#type"))
		assert.Equal(t, "", textOf(t, ctx, s, "#instock"))
		assert.Equal(t, "", textOf(t, ctx, s, "#go"))
		assert.Equal(t, "abc123", textOf(t, ctx, s, "#cookie"))
	})

	t.Run("POST form", func(t *testing.T) {
		require.NoError(t, s.Navigate(ctx, srv.URL+"/"))
		input, err := First(ctx, s, ".search-input")
		require.NoError(t, err)

		require.NoError(t, input.TypeAndSubmit(ctx, "Arkham Horror LCG"))
		assert.Equal(t, "Arkham Horror LCG", textOf(t, ctx, s, "#term"))
	})

	t.Run("input outside a form cannot submit", func(t *testing.T) {
		require.NoError(t, s.Navigate(ctx, srv.URL+"/"))
		input, err := First(ctx, s, "#orphan")
		require.NoError(t, err)

		err = input.TypeAndSubmit(ctx, "Arkham Horror LCG")
		assert.True(t, errors.Is(err, ErrNoMatch))
	})
}

func TestStaticSession_CloseIsIdempotent(t *testing.T) {
	srv := staticTestServer(t)
	s := newTestStaticSession(t)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())

	err := s.Navigate(context.Background(), srv.URL+"/")
	assert.True(t, errors.Is(err, ErrNavigation))
}
