package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/abcretail/backoffice/internal/catalog/application"
	"github.com/abcretail/backoffice/internal/catalog/domain"
	"github.com/abcretail/backoffice/internal/money"
	"github.com/abcretail/backoffice/internal/store"
)

const maxImageSize = 10 << 20

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("catalog-http"),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/{id}", h.getProduct)
		r.Get("/{id}/info", h.productInfo)
		r.Put("/{id}", h.editProduct)
		r.Delete("/{id}", h.deleteProduct)
	})
	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Post("/", h.createCustomer)
		r.Get("/{id}", h.getCustomer)
		r.Put("/{id}", h.editCustomer)
		r.Delete("/{id}", h.deleteCustomer)
	})
	r.Get("/references", h.references)
	return r
}

type productResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Price          string `json:"price"`
	StockAvailable int    `json:"stock_available"`
	ImageURL       string `json:"image_url,omitempty"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          money.Format(p.PriceCents),
		StockAvailable: p.StockAvailable,
		ImageURL:       p.ImageURL,
	}
}

// parseProductInput accepts JSON bodies or multipart forms; multipart may
// carry an optional image file. Price arrives as a decimal string and is
// converted to cents here, at the boundary.
func parseProductInput(r *http.Request) (application.ProductInput, string, io.Reader, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(maxImageSize); err != nil {
			return application.ProductInput{}, "", nil, err
		}
		cents, err := money.ParseCents(r.FormValue("price"))
		if err != nil {
			return application.ProductInput{}, "", nil, err
		}
		stock, err := strconv.Atoi(r.FormValue("stock_available"))
		if err != nil {
			return application.ProductInput{}, "", nil, errors.New("invalid stock_available")
		}
		in := application.ProductInput{
			ID:             r.FormValue("id"),
			Name:           r.FormValue("name"),
			Description:    r.FormValue("description"),
			PriceCents:     cents,
			StockAvailable: stock,
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				return in, "", nil, nil
			}
			return application.ProductInput{}, "", nil, err
		}
		return in, header.Filename, file, nil
	}

	var req struct {
		ID             string `json:"id,omitempty"`
		Name           string `json:"name"`
		Description    string `json:"description"`
		Price          string `json:"price"`
		StockAvailable int    `json:"stock_available"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return application.ProductInput{}, "", nil, err
	}
	cents, err := money.ParseCents(req.Price)
	if err != nil {
		return application.ProductInput{}, "", nil, err
	}
	return application.ProductInput{
		ID:             req.ID,
		Name:           req.Name,
		Description:    req.Description,
		PriceCents:     cents,
		StockAvailable: req.StockAvailable,
	}, "", nil, nil
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListProducts")
	defer span.End()

	products, err := h.service.ListProducts(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateProduct")
	defer span.End()

	in, imageName, image, err := parseProductInput(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.CreateProduct(ctx, in, imageName, image)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(p))
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetProduct")
	defer span.End()

	p, err := h.service.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

// productInfo backs the order form's price/stock lookup.
func (h *Handler) productInfo(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ProductInfo")
	defer span.End()

	p, err := h.service.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"price":        money.Format(p.PriceCents),
		"stock":        p.StockAvailable,
		"product_name": p.Name,
		"image_url":    p.ImageURL,
	})
}

func (h *Handler) editProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "EditProduct")
	defer span.End()

	in, imageName, image, err := parseProductInput(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.EditProduct(ctx, chi.URLParam(r, "id"), in, imageName, image)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteProduct")
	defer span.End()

	if err := h.service.DeleteProduct(ctx, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type customerRequest struct {
	ID              string `json:"id,omitempty"`
	Name            string `json:"name"`
	Surname         string `json:"surname"`
	Username        string `json:"username"`
	ShippingAddress string `json:"shipping_address"`
	Email           string `json:"email"`
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListCustomers")
	defer span.End()

	customers, err := h.service.ListCustomers(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateCustomer")
	defer span.End()

	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	c, err := h.service.CreateCustomer(ctx, application.CustomerInput(req))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetCustomer")
	defer span.End()

	c, err := h.service.GetCustomer(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) editCustomer(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "EditCustomer")
	defer span.End()

	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	c, err := h.service.EditCustomer(ctx, chi.URLParam(r, "id"), application.CustomerInput(req))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteCustomer")
	defer span.End()

	if err := h.service.DeleteCustomer(ctx, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// references returns the dropdown reference lists; it never fails, only
// degrades to empty lists.
func (h *Handler) references(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListReferences")
	defer span.End()

	customers, products := h.service.ListChoices(ctx)
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"customers": customers,
		"products":  out,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, application.ErrInvalidPrice), errors.Is(err, application.ErrInvalidStock):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, application.ErrProductNotFound), errors.Is(err, application.ErrCustomerNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "conflicting concurrent update, retry the request"})
	default:
		h.log.Error("catalog request failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "transient failure"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
