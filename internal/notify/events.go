package notify

import "time"

// Default topic names for the two notification queues. Overridable via
// configuration; downstream consumers key on Action to interpret payloads.
const (
	DefaultOrderTopic = "order-notifications"
	DefaultStockTopic = "stock-updates"
)

type Action string

const (
	ActionCreated       Action = "Created"
	ActionUpdated       Action = "Updated"
	ActionDeleted       Action = "Deleted"
	ActionStockUpdated  Action = "StockUpdated"
	ActionStockRestored Action = "StockRestored"
)

// OrderNotification is the canonical order change record.
type OrderNotification struct {
	OrderID     string    `json:"order_id"`
	CustomerID  string    `json:"customer_id"`
	Username    string    `json:"username"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	TotalPrice  string    `json:"total_price"`
	Status      string    `json:"status"`
	Action      Action    `json:"action"`
	Timestamp   time.Time `json:"timestamp"`
}

// StockUpdate is the canonical product stock change record.
type StockUpdate struct {
	ProductID      string    `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Price          string    `json:"price,omitempty"`
	StockAvailable int       `json:"stock_available"`
	Action         Action    `json:"action"`
	Timestamp      time.Time `json:"timestamp"`
}
