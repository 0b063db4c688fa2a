package domain

type Product struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	PriceCents     int64  `json:"price_cents"`
	StockAvailable int    `json:"stock_available"`
	ImageURL       string `json:"image_url"`

	// ETag is the concurrency token from the last read, blank on new records.
	ETag string `json:"-"`
}
