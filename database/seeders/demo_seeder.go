package seeders

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/orderdesk/app/models"
	"github.com/shashiranjanraj/orderdesk/app/services"
)

func init() {
	Register("demo", seedDemo)
}

type demoCustomer struct {
	name, email, phone string
	products           []demoProduct
}

type demoProduct struct {
	name  string
	price string
}

var demoCustomers = []demoCustomer{
	{"María García", "maria@example.com", "+34 600 111 222", []demoProduct{
		{"Café en grano 1kg", "18.90"},
		{"Molinillo manual", "34.50"},
		{"Taza de cerámica", "7.25"},
	}},
	{"Jonas Becker", "jonas@example.com", "+49 151 2345678", []demoProduct{
		{"Werkbank", "1249.00"},
		{"Schraubenset", "12.99"},
	}},
	{"Aiko Tanaka", "aiko@example.com", "", []demoProduct{
		{"Matcha 100g", "22.00"},
		{"Chasen", "15.40"},
	}},
}

// seedDemo creates customers, their products and a few orders through the
// services, so totals are computed by the same rules as the API. It does
// nothing when customers already exist.
func seedDemo(ctx context.Context, db *gorm.DB) error {
	var n int64
	if err := db.WithContext(ctx).Model(&models.Customer{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	catalog := services.NewCatalogService()
	orders := services.NewOrderService()
	statuses := models.Statuses()

	for i, dc := range demoCustomers {
		c, err := catalog.CreateCustomer(ctx, services.CustomerInput{FullName: dc.name, Email: dc.email, Phone: dc.phone})
		if err != nil {
			return err
		}

		var lines []services.LineInput
		for j, dp := range dc.products {
			p, err := catalog.CreateProduct(ctx, services.ProductInput{
				CustomerID: c.ID,
				Name:       dp.name,
				Price:      decimal.RequireFromString(dp.price),
			})
			if err != nil {
				return err
			}
			lines = append(lines, services.LineInput{ProductID: p.ID, Quantity: j + 1})
		}

		for k := 0; k < len(statuses); k++ {
			_, err := orders.Create(ctx, services.OrderInput{
				UniqueCode: uuid.NewString(),
				CustomerID: c.ID,
				Status:     string(statuses[(i+k)%len(statuses)]),
				Lines:      lines[:1+k%len(lines)],
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}
