// Package table adapts the schema-less entity store into typed catalog
// repositories. The ETag from the store rides on the domain structs so
// callers can hand it back on update.
package table

import (
	"context"
	"encoding/json"

	"github.com/abcretail/backoffice/internal/catalog/domain"
	"github.com/abcretail/backoffice/internal/store"
)

type ProductRepository struct {
	store store.TableStore
}

func NewProductRepository(s store.TableStore) *ProductRepository {
	return &ProductRepository{store: s}
}

func (r *ProductRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	e, err := r.store.Get(ctx, store.PartitionProduct, id)
	if err != nil {
		return domain.Product{}, err
	}
	return decodeProduct(e)
}

func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	entities, err := r.store.List(ctx, store.PartitionProduct)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(entities))
	for _, e := range entities {
		p, err := decodeProduct(e)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *ProductRepository) Insert(ctx context.Context, p domain.Product) (domain.Product, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return domain.Product{}, err
	}
	e, err := r.store.Insert(ctx, store.Entity{Partition: store.PartitionProduct, Key: p.ID, Body: body})
	if err != nil {
		return domain.Product{}, err
	}
	p.ETag = e.ETag
	return p, nil
}

func (r *ProductRepository) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return domain.Product{}, err
	}
	e, err := r.store.Update(ctx, store.Entity{
		Partition: store.PartitionProduct,
		Key:       p.ID,
		ETag:      p.ETag,
		Body:      body,
	})
	if err != nil {
		return domain.Product{}, err
	}
	p.ETag = e.ETag
	return p, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, store.PartitionProduct, id)
}

func decodeProduct(e store.Entity) (domain.Product, error) {
	var p domain.Product
	if err := json.Unmarshal(e.Body, &p); err != nil {
		return domain.Product{}, err
	}
	p.ID = e.Key
	p.ETag = e.ETag
	return p, nil
}

type CustomerRepository struct {
	store store.TableStore
}

func NewCustomerRepository(s store.TableStore) *CustomerRepository {
	return &CustomerRepository{store: s}
}

func (r *CustomerRepository) Get(ctx context.Context, id string) (domain.Customer, error) {
	e, err := r.store.Get(ctx, store.PartitionCustomer, id)
	if err != nil {
		return domain.Customer{}, err
	}
	return decodeCustomer(e)
}

func (r *CustomerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	entities, err := r.store.List(ctx, store.PartitionCustomer)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Customer, 0, len(entities))
	for _, e := range entities {
		c, err := decodeCustomer(e)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *CustomerRepository) Insert(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return domain.Customer{}, err
	}
	e, err := r.store.Insert(ctx, store.Entity{Partition: store.PartitionCustomer, Key: c.ID, Body: body})
	if err != nil {
		return domain.Customer{}, err
	}
	c.ETag = e.ETag
	return c, nil
}

func (r *CustomerRepository) Update(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return domain.Customer{}, err
	}
	e, err := r.store.Update(ctx, store.Entity{
		Partition: store.PartitionCustomer,
		Key:       c.ID,
		ETag:      c.ETag,
		Body:      body,
	})
	if err != nil {
		return domain.Customer{}, err
	}
	c.ETag = e.ETag
	return c, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, store.PartitionCustomer, id)
}

func decodeCustomer(e store.Entity) (domain.Customer, error) {
	var c domain.Customer
	if err := json.Unmarshal(e.Body, &c); err != nil {
		return domain.Customer{}, err
	}
	c.ID = e.Key
	c.ETag = e.ETag
	return c, nil
}
