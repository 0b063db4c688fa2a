package application

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/abcretail/backoffice/internal/catalog/domain"
	"github.com/abcretail/backoffice/internal/notify"
	"github.com/abcretail/backoffice/internal/store"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrInvalidPrice     = errors.New("price must be greater than zero")
	ErrInvalidStock     = errors.New("stock must not be negative")
)

const imageContainer = "product-images"

type Service struct {
	log       *slog.Logger
	products  ProductRepository
	customers CustomerRepository
	emitter   Emitter
	blobs     BlobStore
}

func NewService(log *slog.Logger, products ProductRepository, customers CustomerRepository, emitter Emitter, blobs BlobStore) *Service {
	return &Service{log: log, products: products, customers: customers, emitter: emitter, blobs: blobs}
}

type ProductInput struct {
	ID             string
	Name           string
	Description    string
	PriceCents     int64
	StockAvailable int
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput, imageName string, image io.Reader) (domain.Product, error) {
	if in.PriceCents <= 0 {
		return domain.Product{}, ErrInvalidPrice
	}
	if in.StockAvailable < 0 {
		return domain.Product{}, ErrInvalidStock
	}
	p := domain.Product{
		ID:             in.ID,
		Name:           in.Name,
		Description:    in.Description,
		PriceCents:     in.PriceCents,
		StockAvailable: in.StockAvailable,
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if image != nil {
		url, err := s.blobs.Upload(ctx, imageContainer, imageName, image)
		if err != nil {
			return domain.Product{}, err
		}
		p.ImageURL = url
	}
	return s.products.Insert(ctx, p)
}

// EditProduct copies the posted fields onto the freshly loaded record and
// announces the new snapshot on the stock topic.
func (s *Service) EditProduct(ctx context.Context, id string, in ProductInput, imageName string, image io.Reader) (domain.Product, error) {
	if in.PriceCents <= 0 {
		return domain.Product{}, ErrInvalidPrice
	}
	if in.StockAvailable < 0 {
		return domain.Product{}, ErrInvalidStock
	}
	existing, err := s.products.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Product{}, ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, err
	}
	if image != nil {
		url, err := s.blobs.Upload(ctx, imageContainer, imageName, image)
		if err != nil {
			return domain.Product{}, err
		}
		existing.ImageURL = url
	}
	existing.Name = in.Name
	existing.Description = in.Description
	existing.PriceCents = in.PriceCents
	existing.StockAvailable = in.StockAvailable

	updated, err := s.products.Update(ctx, existing)
	if err != nil {
		return domain.Product{}, err
	}
	s.emitter.StockChanged(ctx, notify.ActionUpdated, updated)
	return updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	err := s.products.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrProductNotFound
	}
	return err
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.products.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Product{}, ErrProductNotFound
	}
	return p, err
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

type CustomerInput struct {
	ID              string
	Name            string
	Surname         string
	Username        string
	ShippingAddress string
	Email           string
}

func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (domain.Customer, error) {
	c := domain.Customer{
		ID:              in.ID,
		Name:            in.Name,
		Surname:         in.Surname,
		Username:        in.Username,
		ShippingAddress: in.ShippingAddress,
		Email:           in.Email,
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return s.customers.Insert(ctx, c)
}

func (s *Service) EditCustomer(ctx context.Context, id string, in CustomerInput) (domain.Customer, error) {
	existing, err := s.customers.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Customer{}, ErrCustomerNotFound
	}
	if err != nil {
		return domain.Customer{}, err
	}
	existing.Name = in.Name
	existing.Surname = in.Surname
	existing.Username = in.Username
	existing.ShippingAddress = in.ShippingAddress
	existing.Email = in.Email
	return s.customers.Update(ctx, existing)
}

func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	err := s.customers.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrCustomerNotFound
	}
	return err
}

func (s *Service) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	c, err := s.customers.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Customer{}, ErrCustomerNotFound
	}
	return c, err
}

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.customers.List(ctx)
}

// ListChoices returns the reference lists used to populate order forms. It
// is advisory only, so store failures degrade to empty lists with a warning
// instead of propagating.
func (s *Service) ListChoices(ctx context.Context) ([]domain.Customer, []domain.Product) {
	customers, err := s.customers.List(ctx)
	if err != nil {
		s.log.Warn("listing customers for choices failed", "err", err)
		customers = []domain.Customer{}
	}
	products, err := s.products.List(ctx)
	if err != nil {
		s.log.Warn("listing products for choices failed", "err", err)
		products = []domain.Product{}
	}
	return customers, products
}
