package webfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendlens/trendlens/internal/config"
)

func testConfig() config.FetchConfig {
	return config.FetchConfig{
		TimeoutSecs: 5,
		UserAgent:   "test-agent/1.0",
		RatePerHost: 100,
	}
}

const page = `<html><head><title>Q3 Report</title>
<script>var x = "should not appear";</script>
<style>.hidden { display: none }</style>
</head><body>
<nav>Home | About</nav>
<h1>Quarterly results</h1>
<p>Revenue grew 12% year over year.</p>
<footer>Copyright 2026</footer>
</body></html>`

func TestFetchText(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	f := New(testConfig())
	text, err := f.FetchText(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "test-agent/1.0", gotUA)
	assert.Contains(t, text, "Quarterly results")
	assert.Contains(t, text, "Revenue grew 12% year over year.")
	assert.NotContains(t, text, "should not appear")
	assert.NotContains(t, text, "Home | About")
	assert.NotContains(t, text, "Copyright 2026")
}

func TestFetchText_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	f := New(testConfig())
	_, err := f.FetchText(context.Background(), srv.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestFetchText_InvalidURL(t *testing.T) {
	f := New(testConfig())

	_, err := f.FetchText(context.Background(), "not-a-url")
	assert.Error(t, err)

	_, err = f.FetchText(context.Background(), "ftp://example.com/file")
	assert.Error(t, err)
}

func TestFetchText_EmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><script>x()</script></body></html>"))
	}))
	defer srv.Close()

	f := New(testConfig())
	_, err := f.FetchText(context.Background(), srv.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty page")
}

func TestFetchText_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.RatePerHost = 20
	f := New(cfg)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := f.FetchText(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	// Burst of 1 at 20/s means the second and third requests each wait ~50ms.
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestHTMLToText_CollapsesWhitespace(t *testing.T) {
	text, err := HTMLToText(strings.NewReader("<body><p>a   b</p>\n\n\n\n<p>c</p></body>"))
	require.NoError(t, err)

	assert.NotContains(t, text, "   ")
	assert.NotContains(t, text, "\n\n\n")
}
