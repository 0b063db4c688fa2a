package application

import (
	"context"
	"io"

	"github.com/abcretail/backoffice/internal/catalog/domain"
	"github.com/abcretail/backoffice/internal/notify"
)

type ProductRepository interface {
	Get(ctx context.Context, id string) (domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Insert(ctx context.Context, p domain.Product) (domain.Product, error)
	Update(ctx context.Context, p domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type CustomerRepository interface {
	Get(ctx context.Context, id string) (domain.Customer, error)
	List(ctx context.Context) ([]domain.Customer, error)
	Insert(ctx context.Context, c domain.Customer) (domain.Customer, error)
	Update(ctx context.Context, c domain.Customer) (domain.Customer, error)
	Delete(ctx context.Context, id string) error
}

type Emitter interface {
	StockChanged(ctx context.Context, action notify.Action, p domain.Product)
}

type BlobStore interface {
	Upload(ctx context.Context, container, name string, content io.Reader) (string, error)
}
