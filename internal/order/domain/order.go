package domain

import "time"

type OrderStatus string

const (
	StatusSubmitted OrderStatus = "Submitted"
	StatusCompleted OrderStatus = "Completed"
)

// Order carries denormalized customer and product snapshots copied at
// creation or edit time, never resolved live.
type Order struct {
	ID              string      `json:"id"`
	CustomerID      string      `json:"customer_id"`
	Username        string      `json:"username"`
	ProductID       string      `json:"product_id"`
	ProductName     string      `json:"product_name"`
	Quantity        int         `json:"quantity"`
	UnitPriceCents  int64       `json:"unit_price_cents"`
	TotalPriceCents int64       `json:"total_price_cents"`
	Status          OrderStatus `json:"status"`
	OrderDate       time.Time   `json:"order_date"`

	ETag string `json:"-"`
}

// RecalculateTotal keeps the invariant total = quantity * unit price.
func (o *Order) RecalculateTotal() {
	o.TotalPriceCents = int64(o.Quantity) * o.UnitPriceCents
}
