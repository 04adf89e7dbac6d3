package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/orderdesk/app/jobs"
	"github.com/shashiranjanraj/orderdesk/app/models"
	"github.com/shashiranjanraj/orderdesk/app/routes"
	"github.com/shashiranjanraj/orderdesk/app/services"
	"github.com/shashiranjanraj/orderdesk/internal/testdb"
	"github.com/shashiranjanraj/orderdesk/pkg/auth"
	"github.com/shashiranjanraj/orderdesk/pkg/rbac"
	"github.com/shashiranjanraj/orderdesk/pkg/router"
	"github.com/shashiranjanraj/orderdesk/pkg/storage"
)

type envelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type api struct {
	t        *testing.T
	handler  http.Handler
	admin    string
	staff    string
	customer models.Customer
	product  models.Product
	disk     *storage.LocalDisk
}

func newAPI(t *testing.T) *api {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	testdb.Open(t)
	ctx := context.Background()

	a := &api{t: t, disk: storage.NewLocalDisk(t.TempDir(), "/storage")}
	storage.Register("local", a.disk)
	storage.SetDefault("local")
	jobs.Register()

	catalog := services.NewCatalogService()
	var err error
	a.customer, err = catalog.CreateCustomer(ctx, services.CustomerInput{FullName: "Ada Lovelace"})
	require.NoError(t, err)
	a.product, err = catalog.CreateProduct(ctx, services.ProductInput{
		CustomerID: a.customer.ID, Name: "Widget", Price: decimal.RequireFromString("2.50"),
	})
	require.NoError(t, err)

	a.admin, err = auth.GenerateToken(1, rbac.RoleAdmin)
	require.NoError(t, err)
	a.staff, err = auth.GenerateToken(2, rbac.RoleStaff)
	require.NoError(t, err)

	r := router.New()
	require.NoError(t, routes.RegisterAPI(r, nil))
	a.handler = r.Handler()
	return a
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	}
	r := httptest.NewRequest(method, path, rd)
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func (a *api) orderState(qty int) map[string]any {
	return map[string]any{
		"customer_id": a.customer.ID,
		"status":      "pending",
		"order_products": []any{
			map[string]any{"product_id": a.product.ID, "quantity": qty},
		},
	}
}

func (a *api) createOrder(qty int) uint {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/orders", a.staff, a.orderState(qty))
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var o struct {
		ID uint `json:"id"`
	}
	decode(a.t, w, &o)
	return o.ID
}

func TestRequiresToken(t *testing.T) {
	a := newAPI(t)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/orders", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/orders", "bogus", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/graphql", "", nil).Code)
}

func TestLogin(t *testing.T) {
	a := newAPI(t)
	_, err := services.NewAuthService().CreateUser(context.Background(), services.UserInput{
		Name: "Admin", Email: "admin@orderdesk.test", Password: "password123", Role: rbac.RoleAdmin,
	})
	require.NoError(t, err)

	w := a.do(http.MethodPost, "/api/login", "", map[string]string{"email": "admin@orderdesk.test", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	decode(t, w, &out)
	assert.NotEmpty(t, out.Token)

	w = a.do(http.MethodPost, "/api/login", "", map[string]string{"email": "admin@orderdesk.test", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/api/login", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestStoreAndShowOrder(t *testing.T) {
	a := newAPI(t)

	w := a.do(http.MethodPost, "/api/orders", a.staff, a.orderState(4))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created map[string]any
	decode(t, w, &created)
	assert.Equal(t, "10.00", created["total_price"])
	assert.Equal(t, "10,00", created["total_price_formatted"])
	assert.Len(t, created["unique_code"], 36)

	w = a.do(http.MethodGet, fmt.Sprintf("/api/orders/%v", created["id"]), a.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var shown map[string]any
	decode(t, w, &shown)
	lines := shown["order_products"].([]any)
	require.Len(t, lines, 1)
	assert.Equal(t, "2.50", lines[0].(map[string]any)["price"])

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/orders/999", a.staff, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/orders/abc", a.staff, nil).Code)
}

func TestStoreOrderValidation(t *testing.T) {
	a := newAPI(t)

	w := a.do(http.MethodPost, "/api/orders", a.staff, map[string]any{"status": "shipped"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	env := decode(t, w, nil)
	assert.Contains(t, env.Errors, "customer_id")
	assert.Contains(t, env.Errors, "status")

	st := a.orderState(0)
	w = a.do(http.MethodPost, "/api/orders", a.staff, st)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, decode(t, w, nil).Errors, "order_products.0.quantity")

	r := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader("{"))
	r.Header.Set("Authorization", "Bearer "+a.staff)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateOrder(t *testing.T) {
	a := newAPI(t)
	id := a.createOrder(1)

	w := a.do(http.MethodGet, fmt.Sprintf("/api/orders/%d/form", id), a.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var form struct {
		State map[string]any `json:"state"`
	}
	decode(t, w, &form)
	form.State["status"] = "finished"
	rows := form.State["order_products"].([]any)
	rows[0].(map[string]any)["quantity"] = 3

	w = a.do(http.MethodPut, fmt.Sprintf("/api/orders/%d", id), a.staff, form.State)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated map[string]any
	decode(t, w, &updated)
	assert.Equal(t, "7.50", updated["total_price"])
	assert.Equal(t, "finished", updated["status"].(map[string]any)["value"])
}

func TestFormUpdate(t *testing.T) {
	a := newAPI(t)

	w := a.do(http.MethodGet, "/api/orders/form", a.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fresh struct {
		State  map[string]any   `json:"state"`
		Schema []map[string]any `json:"schema"`
	}
	decode(t, w, &fresh)
	assert.Equal(t, "pending", fresh.State["status"])
	assert.NotEmpty(t, fresh.Schema)

	w = a.do(http.MethodPost, "/api/orders/form/update", a.staff, map[string]any{
		"state": fresh.State, "path": "customer_id", "value": a.customer.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var next struct {
		State map[string]any `json:"state"`
	}
	decode(t, w, &next)

	w = a.do(http.MethodPost, "/api/orders/form/update", a.staff, map[string]any{
		"state": next.State, "path": "order_products", "value": []any{map[string]any{}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &next)

	w = a.do(http.MethodPost, "/api/orders/form/update", a.staff, map[string]any{
		"state": next.State, "path": "order_products.0.product_id", "value": a.product.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &next)
	assert.Equal(t, "2.50", next.State["total_price"])

	w = a.do(http.MethodPost, "/api/orders/form/update", a.staff, map[string]any{
		"state": next.State, "path": "order_products.0.quantity", "value": 2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &next)
	assert.Equal(t, "5.00", next.State["total_price"])

	w = a.do(http.MethodPost, "/api/orders/form/update", a.staff, map[string]any{
		"state": next.State, "path": "total_price", "value": "1.00",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = a.do(http.MethodPost, "/api/orders/form/update", a.staff, map[string]any{"state": next.State})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestIndexFiltersByStatus(t *testing.T) {
	a := newAPI(t)
	a.createOrder(1)
	id := a.createOrder(2)
	st := a.orderState(2)
	st["status"] = "finished"
	w := a.do(http.MethodPut, fmt.Sprintf("/api/orders/%d", id), a.staff, st)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodGet, "/api/orders?filter=finished", a.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Items      []map[string]any `json:"items"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
		Table map[string]any `json:"table"`
	}
	decode(t, w, &page)
	require.Len(t, page.Items, 1)
	assert.EqualValues(t, 1, page.Pagination.Total)
	assert.Equal(t, "Ada Lovelace", page.Items[0]["customer"].(map[string]any)["full_name"])
	assert.NotEmpty(t, page.Table["columns"])
}

func TestDeleteRequiresAdmin(t *testing.T) {
	a := newAPI(t)
	id := a.createOrder(1)
	other := a.createOrder(1)
	path := fmt.Sprintf("/api/orders/%d", id)

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodDelete, path, a.staff, nil).Code)
	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, path, a.admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, path, a.admin, nil).Code)

	body := map[string]any{"ids": []uint{id, other}}
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/api/orders/bulk-delete", a.staff, body).Code)
	w := a.do(http.MethodPost, "/api/orders/bulk-delete", a.admin, body)
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	decode(t, w, &out)
	assert.EqualValues(t, 1, out.Deleted)
}

func TestStatsOverview(t *testing.T) {
	a := newAPI(t)
	a.createOrder(2)

	w := a.do(http.MethodGet, "/api/stats", a.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats []map[string]string
	decode(t, w, &stats)
	require.Len(t, stats, 5)
	assert.Equal(t, "Orders Pending", stats[0]["label"])
	assert.Equal(t, "1", stats[0]["value"])
	assert.Equal(t, "5,00", stats[4]["value"])
}

func TestCatalogEndpoints(t *testing.T) {
	a := newAPI(t)

	w := a.do(http.MethodGet, fmt.Sprintf("/api/customers/%d/products", a.customer.ID), a.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var products []map[string]any
	decode(t, w, &products)
	require.Len(t, products, 1)
	assert.Equal(t, "2.50", products[0]["price"])

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/customers/999/products", a.staff, nil).Code)

	w = a.do(http.MethodPost, "/api/customers", a.staff, map[string]any{"full_name": "Grace Hopper", "email": "grace@example.com"})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = a.do(http.MethodPost, "/api/products", a.staff, map[string]any{"customer_id": 999, "name": "Bolt", "price": "1.00"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestExportAndDownload(t *testing.T) {
	a := newAPI(t)

	w := a.do(http.MethodPost, "/api/orders/export?filter=pending", a.staff, nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var queued struct {
		Path string `json:"path"`
		URL  string `json:"url"`
	}
	decode(t, w, &queued)
	assert.True(t, strings.HasPrefix(queued.Path, "exports/orders-"))
	assert.Equal(t, "/storage/"+queued.Path, queued.URL)

	require.NoError(t, a.disk.Put(context.Background(), "exports/orders-test.csv", strings.NewReader("id\n")))

	w = a.do(http.MethodGet, "/api/exports", a.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var files []storage.File
	decode(t, w, &files)
	require.Len(t, files, 1)

	w = a.do(http.MethodGet, "/storage/exports/orders-test.csv", a.staff, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "id\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/storage/exports/missing.csv", a.staff, nil).Code)
}

func TestGraphQL(t *testing.T) {
	a := newAPI(t)
	id := a.createOrder(2)

	w := a.do(http.MethodPost, "/graphql", a.staff, map[string]any{
		"query":     `query($id: Int!) { order(id: $id) { unique_code total_price status { value } order_products { quantity } } stats { label value } }`,
		"variables": map[string]any{"id": id},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Data struct {
			Order struct {
				TotalPrice    string `json:"total_price"`
				Status        struct{ Value string }
				OrderProducts []struct{ Quantity int } `json:"order_products"`
			} `json:"order"`
			Stats []struct{ Label, Value string } `json:"stats"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Empty(t, res.Errors)
	assert.Equal(t, "5.00", res.Data.Order.TotalPrice)
	assert.Equal(t, "pending", res.Data.Order.Status.Value)
	require.Len(t, res.Data.Order.OrderProducts, 1)
	assert.Equal(t, 2, res.Data.Order.OrderProducts[0].Quantity)
	assert.Len(t, res.Data.Stats, 5)
}
