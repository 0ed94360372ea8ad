package models

// Product is one candidate item from the catalog source. Values are supplied
// by the scraper and never mutated afterwards.
type Product struct {
	Name       string `json:"name"`
	ImageURL   string `json:"image_url"`
	DetailLink string `json:"detail_link"`
}
