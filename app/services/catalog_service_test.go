package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/orderdesk/app/services"
)

func TestCreateCustomerNormalisesAndRejectsDuplicates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c, err := f.catalog.CreateCustomer(ctx, services.CustomerInput{FullName: "  Grace Hopper ", Email: " Grace@Example.com "})
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", c.FullName)
	require.NotNil(t, c.Email)
	assert.Equal(t, "grace@example.com", *c.Email)

	_, err = f.catalog.CreateCustomer(ctx, services.CustomerInput{FullName: "Other", Email: "ADA@example.com"})
	assert.Equal(t, "The email has already been taken.", validationErrors(t, err)["email"])

	_, err = f.catalog.CreateCustomer(ctx, services.CustomerInput{Email: "bad"})
	errs := validationErrors(t, err)
	assert.Contains(t, errs, "full_name")
	assert.Contains(t, errs, "email")
}

func TestCustomerProducts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	products, err := f.catalog.Products(ctx, f.ada.ID)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Gadget", products[0].Name)

	_, err = f.catalog.Products(ctx, 999)
	assert.ErrorIs(t, err, services.ErrCustomerNotFound)

	none, err := f.catalog.CustomerProducts(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, none)

	price, ok, err := f.catalog.ProductPrice(ctx, f.widget.ID, f.ada.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2.50", price.StringFixed(2))

	_, ok, err = f.catalog.ProductPrice(ctx, f.widget.ID, f.linus.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateProductChecksCustomer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p, err := f.catalog.CreateProduct(ctx, services.ProductInput{
		CustomerID: f.linus.ID, Name: " Bolt ", Price: decimal.RequireFromString("1.005"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Bolt", p.Name)
	assert.Equal(t, "1.01", p.Price.StringFixed(2))

	_, err = f.catalog.CreateProduct(ctx, services.ProductInput{CustomerID: 999, Name: "Bolt"})
	assert.Contains(t, validationErrors(t, err), "customer_id")

	_, err = f.catalog.CreateProduct(ctx, services.ProductInput{
		CustomerID: f.linus.ID, Name: "Bolt", Price: decimal.RequireFromString("-1"),
	})
	assert.Contains(t, validationErrors(t, err), "price")
}
