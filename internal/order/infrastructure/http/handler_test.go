package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdomain "github.com/abcretail/backoffice/internal/catalog/domain"
	catalogtable "github.com/abcretail/backoffice/internal/catalog/infrastructure/table"
	"github.com/abcretail/backoffice/internal/notify"
	"github.com/abcretail/backoffice/internal/order/application"
	"github.com/abcretail/backoffice/internal/order/domain"
	ordertable "github.com/abcretail/backoffice/internal/order/infrastructure/table"
	"github.com/abcretail/backoffice/internal/store"
)

type noopEmitter struct{}

func (noopEmitter) OrderChanged(context.Context, notify.Action, domain.Order)          {}
func (noopEmitter) StockChanged(context.Context, notify.Action, catalogdomain.Product) {}

type noopBlobs struct{}

func (noopBlobs) Upload(_ context.Context, container, name string, content io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, content)
	return fmt.Sprintf("http://blobs.local/%s/%s", container, name), nil
}

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := application.NewService(log,
		ordertable.NewOrderRepository(mem),
		catalogtable.NewProductRepository(mem),
		catalogtable.NewCustomerRepository(mem),
		noopEmitter{}, noopBlobs{}, application.Options{})

	srv := httptest.NewServer(NewHandler(log, svc).Routes())
	t.Cleanup(srv.Close)

	ctx := context.Background()
	_, err := catalogtable.NewCustomerRepository(mem).Insert(ctx, catalogdomain.Customer{ID: "cust-1", Username: "lindiwe"})
	require.NoError(t, err)
	_, err = catalogtable.NewProductRepository(mem).Insert(ctx, catalogdomain.Product{
		ID: "prod-1", Name: "Rooibos Tea", PriceCents: 4599, StockAvailable: 10,
	})
	require.NoError(t, err)
	return srv, mem
}

func postJSON(t *testing.T, url string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCreateOrderEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/", `{"customer_id":"cust-1","product_id":"prod-1","quantity":2}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "lindiwe", body["username"])
	assert.Equal(t, "Rooibos Tea", body["product_name"])
	assert.Equal(t, "45.99", body["unit_price"])
	assert.Equal(t, "91.98", body["total_price"])
	assert.Equal(t, "Submitted", body["status"])
}

func TestCreateOrderEndpointErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("malformed body", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/", `{"quantity":`)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("zero quantity", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/", `{"customer_id":"cust-1","product_id":"prod-1","quantity":0}`)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown customer", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/", `{"customer_id":"ghost","product_id":"prod-1","quantity":1}`)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("insufficient stock carries the available count", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/", `{"customer_id":"cust-1","product_id":"prod-1","quantity":99}`)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, float64(10), body["available"])
	})
}

func TestOrderEndpointLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	client := srv.Client()

	resp := postJSON(t, srv.URL+"/", `{"customer_id":"cust-1","product_id":"prod-1","quantity":3}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeBody(t, resp)["id"].(string)

	t.Run("get", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/" + id)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, float64(3), decodeBody(t, resp)["quantity"])
	})

	t.Run("list", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var out []map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Len(t, out, 1)
	})

	t.Run("edit", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPut, srv.URL+"/"+id,
			strings.NewReader(`{"product_id":"prod-1","quantity":5}`))
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, float64(5), body["quantity"])
		assert.Equal(t, "229.95", body["total_price"])
	})

	t.Run("delete", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/"+id, nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("get after delete", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/" + id)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("delete again is still ok", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/"+id, nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestAttachProofEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/", `{"customer_id":"cust-1","product_id":"prod-1","quantity":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeBody(t, resp)["id"].(string)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("proof_of_payment", "receipt.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("pdf-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err = http.Post(srv.URL+"/"+id+"/proof-of-payment", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Completed", body["status"])
	assert.Contains(t, body["file_url"], "proof-of-payments")

	getResp, err := http.Get(srv.URL + "/" + id)
	require.NoError(t, err)
	assert.Equal(t, "Completed", decodeBody(t, getResp)["status"])

	t.Run("missing file part", func(t *testing.T) {
		var empty bytes.Buffer
		emw := multipart.NewWriter(&empty)
		require.NoError(t, emw.Close())
		resp, err := http.Post(srv.URL+"/"+id+"/proof-of-payment", emw.FormDataContentType(), &empty)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
