package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/orderdesk/app/models"
	"github.com/shashiranjanraj/orderdesk/app/services"
	"github.com/shashiranjanraj/orderdesk/internal/testdb"
	"github.com/shashiranjanraj/orderdesk/pkg/event"
	"github.com/shashiranjanraj/orderdesk/pkg/form"
	"github.com/shashiranjanraj/orderdesk/pkg/table"
)

const code = "9b2b8b0e-4c57-4c3a-9d0f-0a9c1f3b7e21"

type fixture struct {
	db       *gorm.DB
	catalog  *services.CatalogService
	orders   *services.OrderService
	ada      models.Customer
	linus    models.Customer
	widget   models.Product // Ada, 2.50
	gadget   models.Product // Ada, 10.00
	sprocket models.Product // Linus, 5.00
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{db: testdb.Open(t), catalog: services.NewCatalogService(), orders: services.NewOrderService()}
	var err error
	f.ada, err = f.catalog.CreateCustomer(ctx, services.CustomerInput{FullName: "Ada Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)
	f.linus, err = f.catalog.CreateCustomer(ctx, services.CustomerInput{FullName: "Linus Torvalds"})
	require.NoError(t, err)

	product := func(c models.Customer, name, price string) models.Product {
		p, err := f.catalog.CreateProduct(ctx, services.ProductInput{
			CustomerID: c.ID, Name: name, Price: decimal.RequireFromString(price),
		})
		require.NoError(t, err)
		return p
	}
	f.widget = product(f.ada, "Widget", "2.50")
	f.gadget = product(f.ada, "Gadget", "10.00")
	f.sprocket = product(f.linus, "Sprocket", "5.00")
	return f
}

func (f *fixture) input(lines ...services.LineInput) services.OrderInput {
	return services.OrderInput{UniqueCode: code, CustomerID: f.ada.ID, Status: "pending", Lines: lines}
}

func validationErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	errs, ok := services.AsValidation(err)
	require.True(t, ok, "expected a validation error, got %v", err)
	return errs
}

func TestCreateOrderPricesFromCatalog(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var fired []services.OrderEvent
	event.Listen(services.EventOrderCreated, func(_ context.Context, p any) error {
		fired = append(fired, p.(services.OrderEvent))
		return nil
	})

	o, err := f.orders.Create(ctx, f.input(
		services.LineInput{ProductID: f.widget.ID, Quantity: 4},
		services.LineInput{ProductID: f.gadget.ID, Quantity: 1},
	))
	require.NoError(t, err)

	assert.Equal(t, code, o.UniqueCode)
	assert.Equal(t, "20.00", o.TotalPrice.StringFixed(2))
	require.Len(t, o.OrderProducts, 2)
	assert.Equal(t, "2.50", o.OrderProducts[0].Price.StringFixed(2))
	assert.Equal(t, "10.00", o.OrderProducts[0].Total.StringFixed(2))
	require.NotNil(t, o.Customer)
	assert.Equal(t, "Ada Lovelace", o.Customer.FullName)

	require.Len(t, fired, 1)
	assert.Equal(t, []uint{o.ID}, fired[0].IDs)
	assert.Equal(t, models.StatusPending, fired[0].Status)
}

func TestCreateOrderGeneratesCode(t *testing.T) {
	f := setup(t)
	in := f.input()
	in.UniqueCode = ""

	o, err := f.orders.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, o.UniqueCode, 36)
	assert.True(t, o.TotalPrice.IsZero())
}

func TestCreateOrderValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	errs := validationErrors(t, func() error {
		_, err := f.orders.Create(ctx, services.OrderInput{UniqueCode: "nope", Status: "shipped"})
		return err
	}())
	assert.Contains(t, errs, "unique_code")
	assert.Contains(t, errs, "customer_id")
	assert.Contains(t, errs, "status")

	in := f.input()
	in.CustomerID = 999
	_, err := f.orders.Create(ctx, in)
	assert.Equal(t, "The selected customer_id is invalid.", validationErrors(t, err)["customer_id"])

	_, err = f.orders.Create(ctx, f.input(
		services.LineInput{ProductID: f.widget.ID, Quantity: 1},
		services.LineInput{ProductID: f.sprocket.ID, Quantity: 1},
		services.LineInput{ProductID: 999, Quantity: 1},
	))
	errs = validationErrors(t, err)
	assert.NotContains(t, errs, "order_products.0.product_id")
	assert.Contains(t, errs, "order_products.1.product_id")
	assert.Contains(t, errs, "order_products.2.product_id")

	_, err = f.orders.Create(ctx, f.input(services.LineInput{ProductID: f.widget.ID}))
	assert.Contains(t, validationErrors(t, err), "order_products.0.quantity")
}

func TestCreateOrderDuplicateCode(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.orders.Create(ctx, f.input())
	require.NoError(t, err)
	_, err = f.orders.Create(ctx, f.input())
	assert.Equal(t, "The unique_code has already been taken.", validationErrors(t, err)["unique_code"])
}

func TestUpdateOrderSyncsLines(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, err := f.orders.Create(ctx, f.input(
		services.LineInput{ProductID: f.widget.ID, Quantity: 1},
		services.LineInput{ProductID: f.gadget.ID, Quantity: 1},
	))
	require.NoError(t, err)
	first, second := o.OrderProducts[0], o.OrderProducts[1]

	// a catalogue price change must not reprice the stored line
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", f.widget.ID).
		Update("price", "3.00").Error)

	in := f.input(
		services.LineInput{ID: first.ID, ProductID: f.widget.ID, Quantity: 2},
		services.LineInput{ProductID: f.gadget.ID, Quantity: 3},
	)
	in.UniqueCode = "ignored"
	in.Status = "finished"

	updated, err := f.orders.Update(ctx, o.ID, in)
	require.NoError(t, err)

	assert.Equal(t, code, updated.UniqueCode)
	assert.Equal(t, models.StatusFinished, updated.Status)
	require.Len(t, updated.OrderProducts, 2)
	assert.Equal(t, first.ID, updated.OrderProducts[0].ID)
	assert.Equal(t, "2.50", updated.OrderProducts[0].Price.StringFixed(2))
	assert.NotEqual(t, second.ID, updated.OrderProducts[1].ID)
	assert.Equal(t, "35.00", updated.TotalPrice.StringFixed(2))

	var n int64
	require.NoError(t, f.db.Model(&models.OrderProduct{}).Where("id = ?", second.ID).Count(&n).Error)
	assert.Zero(t, n, "dropped line is deleted")
}

func TestUpdateOrderRejectsForeignLine(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, err := f.orders.Create(ctx, f.input(services.LineInput{ProductID: f.widget.ID, Quantity: 1}))
	require.NoError(t, err)

	_, err = f.orders.Update(ctx, o.ID, f.input(services.LineInput{ID: 999, ProductID: f.widget.ID, Quantity: 1}))
	assert.Contains(t, validationErrors(t, err), "order_products.0.id")

	// switching customer keeps Ada's lines invalid
	in := f.input(services.LineInput{ID: o.OrderProducts[0].ID, ProductID: f.widget.ID, Quantity: 1})
	in.CustomerID = f.linus.ID
	_, err = f.orders.Update(ctx, o.ID, in)
	assert.Contains(t, validationErrors(t, err), "order_products.0.product_id")

	_, err = f.orders.Update(ctx, 999, f.input())
	assert.ErrorIs(t, err, services.ErrOrderNotFound)
}

func TestUpdateOrderRejectsRepeatedLine(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, err := f.orders.Create(ctx, f.input(services.LineInput{ProductID: f.widget.ID, Quantity: 1}))
	require.NoError(t, err)
	lid := o.OrderProducts[0].ID

	_, err = f.orders.Update(ctx, o.ID, f.input(
		services.LineInput{ID: lid, ProductID: f.widget.ID, Quantity: 1},
		services.LineInput{ID: lid, ProductID: f.widget.ID, Quantity: 2},
	))
	errs := validationErrors(t, err)
	assert.Equal(t, "The selected line is invalid.", errs["order_products.1.id"])
	assert.NotContains(t, errs, "order_products.0.id")

	stored, err := f.orders.Find(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, stored.OrderProducts, 1)
	assert.Equal(t, "2.50", stored.TotalPrice.StringFixed(2))
	assert.Equal(t, stored.OrderProducts[0].Total.StringFixed(2), stored.TotalPrice.StringFixed(2))
}

func TestDeleteOrders(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	var deleted [][]uint
	event.Listen(services.EventOrderDeleted, func(_ context.Context, p any) error {
		deleted = append(deleted, p.(services.OrderEvent).IDs)
		return nil
	})

	ids := make([]uint, 3)
	for i := range ids {
		in := f.input(services.LineInput{ProductID: f.widget.ID, Quantity: 1})
		in.UniqueCode = ""
		o, err := f.orders.Create(ctx, in)
		require.NoError(t, err)
		ids[i] = o.ID
	}

	require.NoError(t, f.orders.Delete(ctx, ids[0]))
	assert.ErrorIs(t, f.orders.Delete(ctx, ids[0]), services.ErrOrderNotFound)

	n, err := f.orders.BulkDelete(ctx, []uint{ids[0], ids[1], ids[2], 999})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = f.orders.BulkDelete(ctx, nil)
	assert.Contains(t, validationErrors(t, err), "ids")

	var lines int64
	require.NoError(t, f.db.Model(&models.OrderProduct{}).Count(&lines).Error)
	assert.Zero(t, lines)
	assert.Equal(t, [][]uint{{ids[0]}, {ids[0], ids[1], ids[2], 999}}, deleted)
}

func TestListOrders(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, status := range []string{"pending", "finished", "finished"} {
		in := f.input(services.LineInput{ProductID: f.gadget.ID, Quantity: 1})
		in.UniqueCode, in.Status = "", status
		_, err := f.orders.Create(ctx, in)
		require.NoError(t, err)
	}
	in := services.OrderInput{UniqueCode: code, CustomerID: f.linus.ID, Status: "rejected"}
	_, err := f.orders.Create(ctx, in)
	require.NoError(t, err)

	orders, page, _, err := f.orders.List(ctx, table.Params{Filters: []string{"finished"}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	for _, o := range orders {
		assert.Equal(t, models.StatusFinished, o.Status)
		require.NotNil(t, o.Customer)
	}

	orders, _, _, err = f.orders.List(ctx, table.Params{Search: code[:8]})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, f.linus.ID, orders[0].CustomerID)

	orders, _, _, err = f.orders.List(ctx, table.Params{Sort: "customer.full_name", Direction: "desc"})
	require.NoError(t, err)
	require.Len(t, orders, 4)
	assert.Equal(t, f.linus.ID, orders[0].CustomerID)

	var seen int
	require.NoError(t, f.orders.Each(ctx, table.Params{}, func(batch []models.Order) error {
		seen += len(batch)
		return nil
	}))
	assert.Equal(t, 4, seen)
}

func TestInputFromState(t *testing.T) {
	in := services.InputFromState(form.State{
		"unique_code": " " + code + " ",
		"customer_id": "3",
		"status":      "pending",
		"order_products": []any{
			map[string]any{"id": float64(5), "product_id": "7", "quantity": "2"},
		},
	})
	assert.Equal(t, code, in.UniqueCode)
	assert.Equal(t, uint(3), in.CustomerID)
	assert.Equal(t, []services.LineInput{{ID: 5, ProductID: 7, Quantity: 2}}, in.Lines)
}
