package application

import (
	"context"
	"io"

	catalogdomain "github.com/abcretail/backoffice/internal/catalog/domain"
	"github.com/abcretail/backoffice/internal/notify"
	"github.com/abcretail/backoffice/internal/order/domain"
)

type OrderRepository interface {
	Get(ctx context.Context, id string) (domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	Insert(ctx context.Context, o domain.Order) (domain.Order, error)
	Update(ctx context.Context, o domain.Order) (domain.Order, error)
	Delete(ctx context.Context, id string) error
}

type ProductRepository interface {
	Get(ctx context.Context, id string) (catalogdomain.Product, error)
	Update(ctx context.Context, p catalogdomain.Product) (catalogdomain.Product, error)
}

type CustomerRepository interface {
	Get(ctx context.Context, id string) (catalogdomain.Customer, error)
}

// Emitter publishes change records. Implementations must be best-effort:
// they log failures and never propagate them.
type Emitter interface {
	OrderChanged(ctx context.Context, action notify.Action, o domain.Order)
	StockChanged(ctx context.Context, action notify.Action, p catalogdomain.Product)
}

type BlobStore interface {
	Upload(ctx context.Context, container, name string, content io.Reader) (string, error)
}
