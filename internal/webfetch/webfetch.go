// Package webfetch fetches web pages and reduces them to plain text for
// analysis. Fetches are rate limited per host.
package webfetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/trendlens/trendlens/internal/config"
)

// maxBodyBytes caps how much of a page body is read.
const maxBodyBytes = 512 * 1024

// chromeTags are removed wholesale before text extraction.
var chromeTags = []string{"script", "style", "nav", "header", "footer", "aside", "noscript"}

// Fetcher downloads pages with a fixed user agent and per-host rate limiting.
type Fetcher struct {
	client *http.Client
	cfg    config.FetchConfig

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a Fetcher from config.
func New(cfg config.FetchConfig) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.FetchTimeout(),
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		cfg:      cfg,
		limiters: make(map[string]*rate.Limiter),
	}
}

// FetchText downloads the page and returns its visible text.
func (f *Fetcher) FetchText(ctx context.Context, targetURL string) (string, error) {
	u, err := url.Parse(targetURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", eris.Errorf("webfetch: invalid url %q", targetURL)
	}

	if err := f.limiter(u.Host).Wait(ctx); err != nil {
		return "", eris.Wrap(err, "webfetch: rate wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "webfetch: create request")
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "webfetch: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return "", eris.Errorf("webfetch: status %d", resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxBodyBytes)
	text, err := HTMLToText(body)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", eris.New("webfetch: empty page")
	}

	return text, nil
}

// limiter returns the per-host limiter, creating it on first use.
func (f *Fetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(f.cfg.RatePerHost), 1)
		f.limiters[host] = l
	}
	return l
}

var spaceRe = regexp.MustCompile(`[ \t]+`)
var blankRe = regexp.MustCompile(`\n{3,}`)

// HTMLToText strips page chrome and returns the document's visible text with
// whitespace collapsed.
func HTMLToText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", eris.Wrap(err, "webfetch: parse html")
	}

	doc.Find(strings.Join(chromeTags, ", ")).Remove()

	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		// Not an HTML document; fall back to the full text.
		text = doc.Text()
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRe.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = blankRe.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text), nil
}
