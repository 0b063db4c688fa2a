package store

import (
	"context"
	"errors"
	"time"
)

// Partitions used by the back office. The store itself is schema-less;
// a partition is just a namespace for row keys.
const (
	PartitionOrder    = "Order"
	PartitionCustomer = "Customer"
	PartitionProduct  = "Product"
)

var (
	ErrNotFound = errors.New("entity not found")
	ErrConflict = errors.New("entity conflict")
)

// Entity is a single schema-less record. Body carries the JSON-encoded
// payload; ETag is the optimistic concurrency token issued on every write
// and required back on Update.
type Entity struct {
	Partition string
	Key       string
	ETag      string
	UpdatedAt time.Time
	Body      []byte
}

// TableStore is the five-operation contract against the entity store.
// Each call affects exactly one entity; there is no multi-entity atomicity.
type TableStore interface {
	Get(ctx context.Context, partition, key string) (Entity, error)
	List(ctx context.Context, partition string) ([]Entity, error)
	Insert(ctx context.Context, e Entity) (Entity, error)
	Update(ctx context.Context, e Entity) (Entity, error)
	Delete(ctx context.Context, partition, key string) error
}
