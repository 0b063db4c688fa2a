package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	catalogdomain "github.com/abcretail/backoffice/internal/catalog/domain"
	"github.com/abcretail/backoffice/internal/inventory"
	"github.com/abcretail/backoffice/internal/notify"
	"github.com/abcretail/backoffice/internal/order/domain"
	"github.com/abcretail/backoffice/internal/store"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
)

const proofContainer = "proof-of-payments"

// Options tune the lifecycle manager.
//
// LegacyEditStock preserves the historical edit behavior when an order is
// moved to a different product: the quantity delta is charged against the
// new product only and the old product's stock is never restored. The
// default reconciles both products symmetrically.
type Options struct {
	LegacyEditStock bool
	MaxAttempts     int
}

// Service sequences order mutations against the entity store: resolve
// references, validate the stock delta, apply the stock write, persist the
// order, emit events. The store offers no multi-entity atomicity, so the
// second write of each pair is compensated by hand when it fails.
type Service struct {
	log       *slog.Logger
	orders    OrderRepository
	products  ProductRepository
	customers CustomerRepository
	emitter   Emitter
	blobs     BlobStore
	opts      Options
}

func NewService(log *slog.Logger, orders OrderRepository, products ProductRepository, customers CustomerRepository, emitter Emitter, blobs BlobStore, opts Options) *Service {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	return &Service{
		log:       log,
		orders:    orders,
		products:  products,
		customers: customers,
		emitter:   emitter,
		blobs:     blobs,
		opts:      opts,
	}
}

type CreateInput struct {
	ID         string
	CustomerID string
	ProductID  string
	Quantity   int
	OrderDate  time.Time
	Status     string
}

type EditInput struct {
	ProductID string
	Quantity  int
	OrderDate time.Time
	Status    string
}

func (s *Service) Get(ctx context.Context, id string) (domain.Order, error) {
	o, err := s.orders.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Order{}, ErrOrderNotFound
	}
	return o, err
}

func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	return s.orders.List(ctx)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Order, error) {
	if in.Quantity < 1 {
		return domain.Order{}, ErrInvalidQuantity
	}

	var out domain.Order
	err := s.withRetry(ctx, "create", func(ctx context.Context) error {
		customer, err := s.customers.Get(ctx, in.CustomerID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrCustomerNotFound
		}
		if err != nil {
			return err
		}
		product, err := s.products.Get(ctx, in.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}

		delta := inventory.ComputeDelta(0, in.Quantity)
		if err := inventory.ValidateReservation(product.StockAvailable, delta); err != nil {
			return err
		}

		o := domain.Order{
			ID:             in.ID,
			CustomerID:     customer.ID,
			Username:       customer.Username,
			ProductID:      product.ID,
			ProductName:    product.Name,
			Quantity:       in.Quantity,
			UnitPriceCents: product.PriceCents,
			Status:         domain.StatusSubmitted,
			OrderDate:      normalizeDate(in.OrderDate),
		}
		if o.ID == "" {
			o.ID = uuid.NewString()
		}
		if in.Status != "" {
			o.Status = domain.OrderStatus(in.Status)
		}
		o.RecalculateTotal()

		o, err = s.orders.Insert(ctx, o)
		if err != nil {
			return err
		}

		product.StockAvailable -= delta
		product, err = s.products.Update(ctx, product)
		if err != nil {
			s.compensateOrderInsert(ctx, o, in.ProductID, err)
			if errors.Is(err, store.ErrConflict) {
				return retryable(err)
			}
			return err
		}

		s.emitter.StockChanged(ctx, notify.ActionStockUpdated, product)
		s.emitter.OrderChanged(ctx, notify.ActionCreated, o)
		out = o
		return nil
	})
	return out, err
}

func (s *Service) Edit(ctx context.Context, orderID string, in EditInput) (domain.Order, error) {
	if in.Quantity < 1 {
		return domain.Order{}, ErrInvalidQuantity
	}

	var out domain.Order
	err := s.withRetry(ctx, "edit", func(ctx context.Context) error {
		existing, err := s.orders.Get(ctx, orderID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		product, err := s.products.Get(ctx, in.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return err
		}

		oldQuantity := existing.Quantity
		switched := in.ProductID != existing.ProductID && !s.opts.LegacyEditStock

		// On a product switch the new product carries the full reservation;
		// otherwise only the quantity difference moves.
		delta := inventory.ComputeDelta(oldQuantity, in.Quantity)
		if switched {
			delta = in.Quantity
		}
		if err := inventory.ValidateReservation(product.StockAvailable, delta); err != nil {
			return err
		}

		var restoredOld *catalogdomain.Product
		if switched {
			old, err := s.products.Get(ctx, existing.ProductID)
			switch {
			case errors.Is(err, store.ErrNotFound):
				// old product is gone, nothing to restore
			case err != nil:
				return err
			default:
				old.StockAvailable += oldQuantity
				old, err = s.products.Update(ctx, old)
				if err != nil {
					if errors.Is(err, store.ErrConflict) {
						return retryable(err)
					}
					return err
				}
				s.emitter.StockChanged(ctx, notify.ActionStockRestored, old)
				restoredOld = &old
			}
		}

		if delta != 0 {
			product.StockAvailable -= delta
			product, err = s.products.Update(ctx, product)
			if err != nil {
				s.reverseOldRestore(ctx, restoredOld, oldQuantity)
				if errors.Is(err, store.ErrConflict) {
					return retryable(err)
				}
				return err
			}
			s.emitter.StockChanged(ctx, notify.ActionStockUpdated, product)
		}

		existing.ProductID = product.ID
		existing.ProductName = product.Name
		existing.Quantity = in.Quantity
		existing.UnitPriceCents = product.PriceCents
		existing.RecalculateTotal()
		if !in.OrderDate.IsZero() {
			existing.OrderDate = in.OrderDate.UTC()
		}
		if in.Status != "" {
			existing.Status = domain.OrderStatus(in.Status)
		}

		updated, err := s.orders.Update(ctx, existing)
		if err != nil {
			s.reverseStockChange(ctx, product, delta, existing.ID)
			s.reverseOldRestore(ctx, restoredOld, oldQuantity)
			if errors.Is(err, store.ErrConflict) {
				return retryable(err)
			}
			return err
		}

		s.emitter.OrderChanged(ctx, notify.ActionUpdated, updated)
		out = updated
		return nil
	})
	return out, err
}

// Delete removes an order and returns its full quantity to stock. Deleting
// an already-absent order is a no-op success.
func (s *Service) Delete(ctx context.Context, orderID string) error {
	return s.withRetry(ctx, "delete", func(ctx context.Context) error {
		o, err := s.orders.Get(ctx, orderID)
		if errors.Is(err, store.ErrNotFound) {
			s.log.Warn("order already absent, nothing to delete", "order_id", orderID)
			return nil
		}
		if err != nil {
			return err
		}

		product, err := s.products.Get(ctx, o.ProductID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			// product no longer exists, skip restoration
		case err != nil:
			return err
		default:
			product.StockAvailable += o.Quantity
			product, err = s.products.Update(ctx, product)
			if err != nil {
				if errors.Is(err, store.ErrConflict) {
					return retryable(err)
				}
				return err
			}
			s.emitter.StockChanged(ctx, notify.ActionStockRestored, product)
		}

		if err := s.orders.Delete(ctx, o.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			s.log.Warn("stock restored but order delete failed; manual reconciliation required",
				"order_id", o.ID, "product_id", o.ProductID, "err", err)
			return err
		}
		s.emitter.OrderChanged(ctx, notify.ActionDeleted, o)
		return nil
	})
}

// AttachProofOfPayment stores the uploaded file and marks the order
// completed, mirroring the back-office payment confirmation flow.
func (s *Service) AttachProofOfPayment(ctx context.Context, orderID, filename string, content io.Reader) (string, error) {
	url, err := s.blobs.Upload(ctx, proofContainer, filename, content)
	if err != nil {
		return "", err
	}
	err = s.withRetry(ctx, "attach-proof", func(ctx context.Context) error {
		o, err := s.orders.Get(ctx, orderID)
		if errors.Is(err, store.ErrNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		o.Status = domain.StatusCompleted
		if _, err := s.orders.Update(ctx, o); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return retryable(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return url, nil
}

func (s *Service) compensateOrderInsert(ctx context.Context, o domain.Order, productID string, cause error) {
	if derr := s.orders.Delete(ctx, o.ID); derr != nil && !errors.Is(derr, store.ErrNotFound) {
		s.log.Warn("stock write failed and order compensation failed; manual reconciliation required",
			"order_id", o.ID, "product_id", productID, "cause", cause, "err", derr)
	}
}

func (s *Service) reverseStockChange(ctx context.Context, p catalogdomain.Product, delta int, orderID string) {
	if delta == 0 {
		return
	}
	p.StockAvailable += delta
	if _, err := s.products.Update(ctx, p); err != nil {
		s.log.Warn("order write failed and stock compensation failed; manual reconciliation required",
			"order_id", orderID, "product_id", p.ID, "err", err)
	}
}

func (s *Service) reverseOldRestore(ctx context.Context, old *catalogdomain.Product, quantity int) {
	if old == nil {
		return
	}
	p := *old
	p.StockAvailable -= quantity
	if _, err := s.products.Update(ctx, p); err != nil {
		s.log.Warn("old-product restore compensation failed; manual reconciliation required",
			"product_id", p.ID, "err", err)
	}
}

type retryableError struct{ err error }

func (e retryableError) Error() string { return e.err.Error() }
func (e retryableError) Unwrap() error { return e.err }

func retryable(err error) error { return retryableError{err: err} }

// withRetry reruns the whole read-validate-write sequence on optimistic
// concurrency collisions, up to the configured bound, then surfaces the
// underlying conflict to the caller.
func (s *Service) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	var last error
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		err := fn(ctx)
		var re retryableError
		if !errors.As(err, &re) {
			return err
		}
		last = re.err
		s.log.Warn("optimistic concurrency collision, retrying", "op", op, "attempt", attempt)
	}
	return last
}

func normalizeDate(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
