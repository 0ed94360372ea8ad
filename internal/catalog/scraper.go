// Package catalog supplies candidate products from an external listing page.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/tonecloset/tonecloset/internal/models"
)

// Source yields an ordered, bounded batch of candidate products.
type Source interface {
	Fetch(ctx context.Context, listingURL string, limit int) ([]models.Product, error)
}

const (
	productLinkSelector = "a[href*='/Product/']"
	productNameSelector = "div.textStyle_Body-14-M"

	defaultUserAgent = "Mozilla/5.0 (compatible; tonecloset/1.0)"
)

// ListingScraper extracts products from a server-rendered listing page.
// Entries missing a name or an image are skipped rather than reported.
type ListingScraper struct {
	httpClient *http.Client
	siteBase   string
	log        zerolog.Logger
}

// NewListingScraper builds a scraper. siteBase prefixes relative product
// links, e.g. "https://www.kolonmall.com".
func NewListingScraper(siteBase string, log zerolog.Logger) *ListingScraper {
	return &ListingScraper{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		siteBase:   strings.TrimSuffix(siteBase, "/"),
		log:        log,
	}
}

func (s *ListingScraper) Fetch(ctx context.Context, listingURL string, limit int) ([]models.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating listing request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing listing: %w", err)
	}

	var products []models.Product
	doc.Find(productLinkSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if limit > 0 && len(products) >= limit {
			return false
		}

		name := strings.TrimSpace(sel.Find(productNameSelector).First().Text())

		img := sel.Find("img").First()
		imageURL, _ := img.Attr("src")
		if imageURL == "" {
			// Lazy-loaded images keep the real source in data-src.
			imageURL, _ = img.Attr("data-src")
		}

		link, _ := sel.Attr("href")
		if link != "" && !strings.HasPrefix(link, "http") {
			link = s.siteBase + link
		}

		if name == "" || imageURL == "" {
			return true
		}

		products = append(products, models.Product{
			Name:       name,
			ImageURL:   imageURL,
			DetailLink: link,
		})
		return true
	})

	s.log.Info().Int("count", len(products)).Str("listing", listingURL).Msg("collected candidate products")
	return products, nil
}
