package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

const listingFixture = `<!DOCTYPE html>
<html><body>
<a href="/Product/1001">
  <img src="https://cdn.example.com/1001.jpg">
  <div class="textStyle_Body-14-M">Linen Shirt</div>
</a>
<a href="/Product/1002">
  <img data-src="https://cdn.example.com/1002.jpg">
  <div class="textStyle_Body-14-M">Wool Cardigan</div>
</a>
<a href="https://www.example.com/Product/1003">
  <img src="https://cdn.example.com/1003.jpg">
  <div class="textStyle_Body-14-M">Denim Jacket</div>
</a>
<a href="/Product/1004">
  <div class="textStyle_Body-14-M">No Image Tee</div>
</a>
<a href="/Product/1005">
  <img src="https://cdn.example.com/1005.jpg">
</a>
<a href="/Somewhere/else">
  <img src="https://cdn.example.com/nope.jpg">
  <div class="textStyle_Body-14-M">Not A Product</div>
</a>
<a href="/Product/1006">
  <img src="https://cdn.example.com/1006.jpg">
  <div class="textStyle_Body-14-M">  Silk Scarf  </div>
</a>
</body></html>`

func TestFetchParsesListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingFixture))
	}))
	defer server.Close()

	scraper := NewListingScraper("https://www.example.com/", zerolog.Nop())
	products, err := scraper.Fetch(context.Background(), server.URL, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(products) != 4 {
		t.Fatalf("expected 4 products, got %d: %+v", len(products), products)
	}

	first := products[0]
	if first.Name != "Linen Shirt" {
		t.Errorf("unexpected name %q", first.Name)
	}
	if first.ImageURL != "https://cdn.example.com/1001.jpg" {
		t.Errorf("unexpected image %q", first.ImageURL)
	}
	if first.DetailLink != "https://www.example.com/Product/1001" {
		t.Errorf("relative link not prefixed: %q", first.DetailLink)
	}

	if products[1].ImageURL != "https://cdn.example.com/1002.jpg" {
		t.Errorf("data-src fallback not applied: %q", products[1].ImageURL)
	}

	if products[2].DetailLink != "https://www.example.com/Product/1003" {
		t.Errorf("absolute link rewritten: %q", products[2].DetailLink)
	}

	if products[3].Name != "Silk Scarf" {
		t.Errorf("name not trimmed: %q", products[3].Name)
	}
}

func TestFetchHonorsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingFixture))
	}))
	defer server.Close()

	scraper := NewListingScraper("https://www.example.com", zerolog.Nop())
	products, err := scraper.Fetch(context.Background(), server.URL, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(products) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(products))
	}
	if products[0].Name != "Linen Shirt" || products[1].Name != "Wool Cardigan" {
		t.Errorf("limit broke listing order: %+v", products)
	}
}

func TestFetchNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	scraper := NewListingScraper("https://www.example.com", zerolog.Nop())
	if _, err := scraper.Fetch(context.Background(), server.URL, 0); err == nil {
		t.Fatal("expected error on non-200 listing response")
	}
}

func TestFetchUnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	scraper := NewListingScraper("https://www.example.com", zerolog.Nop())
	if _, err := scraper.Fetch(context.Background(), server.URL, 0); err == nil {
		t.Fatal("expected error when the listing host is unreachable")
	}
}
