package preview

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Preview is the scraped summary of a redirect destination, shown on the
// owner dashboard next to the event.
type Preview struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Fetcher downloads a destination page and extracts its title/description.
// Best-effort: resolution never depends on it.
type Fetcher struct {
	client     *http.Client
	maxRetries int
	log        *zap.Logger
}

func NewFetcher(timeoutMS, maxRetries int, log *zap.Logger) *Fetcher {
	if timeoutMS <= 0 {
		timeoutMS = 10000
	}
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &Fetcher{
		client:     &http.Client{Timeout: time.Duration(timeoutMS) * time.Millisecond},
		maxRetries: maxRetries,
		log:        log,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*Preview, error) {
	var lastErr error
	for attempt := 0; attempt < f.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		p, err := f.fetchOnce(ctx, url)
		if err == nil {
			return p, nil
		}
		lastErr = err
		f.log.Debug("preview fetch attempt failed",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return nil, fmt.Errorf("failed to fetch preview for %s: %w", url, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (*Preview, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; DynaQRBot/1.0)")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}
	return extract(doc), nil
}

func extract(doc *goquery.Document) *Preview {
	p := &Preview{}

	// Open Graph tags win over the plain title/description.
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && og != "" {
		p.Title = strings.TrimSpace(og)
	} else {
		p.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	if og, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok && og != "" {
		p.Description = strings.TrimSpace(og)
	} else if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		p.Description = strings.TrimSpace(desc)
	}

	return p
}
