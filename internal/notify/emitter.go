// Package notify publishes change records for downstream consumers. Delivery
// is a best-effort side channel: a failure here never fails or rolls back the
// entity mutation that triggered it.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	catalogdomain "github.com/abcretail/backoffice/internal/catalog/domain"
	"github.com/abcretail/backoffice/internal/money"
	orderdomain "github.com/abcretail/backoffice/internal/order/domain"
	"github.com/abcretail/backoffice/pkg/outbox"
	"github.com/abcretail/backoffice/pkg/tracing"
)

// Enqueuer accepts a durable notification row for asynchronous delivery.
type Enqueuer interface {
	Enqueue(ctx context.Context, e outbox.Event) error
}

type Emitter struct {
	log        *slog.Logger
	queue      Enqueuer
	orderTopic string
	stockTopic string
}

func NewEmitter(log *slog.Logger, queue Enqueuer, orderTopic, stockTopic string) *Emitter {
	if orderTopic == "" {
		orderTopic = DefaultOrderTopic
	}
	if stockTopic == "" {
		stockTopic = DefaultStockTopic
	}
	return &Emitter{log: log, queue: queue, orderTopic: orderTopic, stockTopic: stockTopic}
}

// OrderChanged emits a record on the order notification topic.
func (e *Emitter) OrderChanged(ctx context.Context, action Action, o orderdomain.Order) {
	rec := OrderNotification{
		OrderID:     o.ID,
		CustomerID:  o.CustomerID,
		Username:    o.Username,
		ProductID:   o.ProductID,
		ProductName: o.ProductName,
		Quantity:    o.Quantity,
		TotalPrice:  money.Format(o.TotalPriceCents),
		Status:      string(o.Status),
		Action:      action,
		Timestamp:   time.Now().UTC(),
	}
	e.emit(ctx, e.orderTopic, "order", o.ID, action, rec)
}

// StockChanged emits a record on the stock update topic.
func (e *Emitter) StockChanged(ctx context.Context, action Action, p catalogdomain.Product) {
	rec := StockUpdate{
		ProductID:      p.ID,
		ProductName:    p.Name,
		StockAvailable: p.StockAvailable,
		Action:         action,
		Timestamp:      time.Now().UTC(),
	}
	if action == ActionUpdated {
		rec.Price = money.Format(p.PriceCents)
	}
	e.emit(ctx, e.stockTopic, "product", p.ID, action, rec)
}

func (e *Emitter) emit(ctx context.Context, topic, aggregateType, aggregateID string, action Action, rec any) {
	payload, err := json.Marshal(rec)
	if err != nil {
		e.log.Warn("event marshal failed", "topic", topic, "id", aggregateID, "err", err)
		return
	}
	ev := outbox.Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Topic:         topic,
		Type:          string(action),
		Payload:       payload,
		Traceparent:   tracing.Traceparent(ctx),
	}
	if err := e.queue.Enqueue(ctx, ev); err != nil {
		e.log.Warn("event enqueue failed", "topic", topic, "id", aggregateID, "action", action, "err", err)
	}
}
