package table

import (
	"context"
	"encoding/json"

	"github.com/abcretail/backoffice/internal/order/domain"
	"github.com/abcretail/backoffice/internal/store"
)

type OrderRepository struct {
	store store.TableStore
}

func NewOrderRepository(s store.TableStore) *OrderRepository {
	return &OrderRepository{store: s}
}

func (r *OrderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	e, err := r.store.Get(ctx, store.PartitionOrder, id)
	if err != nil {
		return domain.Order{}, err
	}
	return decode(e)
}

func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	entities, err := r.store.List(ctx, store.PartitionOrder)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(entities))
	for _, e := range entities {
		o, err := decode(e)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *OrderRepository) Insert(ctx context.Context, o domain.Order) (domain.Order, error) {
	body, err := json.Marshal(o)
	if err != nil {
		return domain.Order{}, err
	}
	e, err := r.store.Insert(ctx, store.Entity{Partition: store.PartitionOrder, Key: o.ID, Body: body})
	if err != nil {
		return domain.Order{}, err
	}
	o.ETag = e.ETag
	return o, nil
}

func (r *OrderRepository) Update(ctx context.Context, o domain.Order) (domain.Order, error) {
	body, err := json.Marshal(o)
	if err != nil {
		return domain.Order{}, err
	}
	e, err := r.store.Update(ctx, store.Entity{
		Partition: store.PartitionOrder,
		Key:       o.ID,
		ETag:      o.ETag,
		Body:      body,
	})
	if err != nil {
		return domain.Order{}, err
	}
	o.ETag = e.ETag
	return o, nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, store.PartitionOrder, id)
}

func decode(e store.Entity) (domain.Order, error) {
	var o domain.Order
	if err := json.Unmarshal(e.Body, &o); err != nil {
		return domain.Order{}, err
	}
	o.ID = e.Key
	o.ETag = e.ETag
	return o, nil
}
