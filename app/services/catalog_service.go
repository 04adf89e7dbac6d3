package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/orderdesk/app/models"
	"github.com/shashiranjanraj/orderdesk/app/repositories"
	"github.com/shashiranjanraj/orderdesk/pkg/orm"
	"github.com/shashiranjanraj/orderdesk/pkg/validate"
)

// CatalogService manages customers and their products. It also backs the
// order form's selects and price lookups.
type CatalogService struct {
	customers *repositories.CustomerRepository
	products  *repositories.ProductRepository
}

func NewCatalogService() *CatalogService {
	return &CatalogService{
		customers: repositories.NewCustomerRepository(),
		products:  repositories.NewProductRepository(),
	}
}

func (s *CatalogService) Customers(ctx context.Context) ([]models.Customer, error) {
	return s.customers.All(ctx)
}

// CustomerProducts lists a customer's products. Unknown customers have none.
func (s *CatalogService) CustomerProducts(ctx context.Context, customerID uint) ([]models.Product, error) {
	return s.products.ForCustomer(ctx, customerID)
}

// Products is CustomerProducts for a customer that must exist.
func (s *CatalogService) Products(ctx context.Context, customerID uint) ([]models.Product, error) {
	ok, err := s.customers.Exists(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCustomerNotFound
	}
	return s.products.ForCustomer(ctx, customerID)
}

// ProductPrice returns the price of productID when it belongs to customerID.
func (s *CatalogService) ProductPrice(ctx context.Context, productID, customerID uint) (decimal.Decimal, bool, error) {
	p, err := s.products.FindForCustomer(ctx, productID, customerID)
	if err != nil {
		if orm.IsNotFound(err) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("catalog: product price: %w", err)
	}
	return p.Price, true, nil
}

type CustomerInput struct {
	FullName string `json:"full_name" validate:"required,max=255"`
	Email    string `json:"email"     validate:"nullable,email"`
	Phone    string `json:"phone"     validate:"nullable,max=32"`
}

func (s *CatalogService) CreateCustomer(ctx context.Context, in CustomerInput) (models.Customer, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.Customer{}, invalid(errs)
	}

	c := models.Customer{FullName: in.FullName, Phone: strings.TrimSpace(in.Phone)}
	if in.Email != "" {
		var n int64
		if err := orm.DB().WithContext(ctx).Model(&models.Customer{}).Where("email = ?", in.Email).Count(&n); err != nil {
			return models.Customer{}, fmt.Errorf("catalog: check email: %w", err)
		}
		if n > 0 {
			return models.Customer{}, invalid(map[string]string{"email": "The email has already been taken."})
		}
		c.Email = &in.Email
	}
	if err := s.customers.Create(ctx, &c); err != nil {
		return models.Customer{}, fmt.Errorf("catalog: create customer: %w", err)
	}
	return c, nil
}

type ProductInput struct {
	CustomerID uint            `json:"customer_id" validate:"required"`
	Name       string          `json:"name"        validate:"required,max=255"`
	Price      decimal.Decimal `json:"price"       validate:"gte=0"`
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (models.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return models.Product{}, invalid(errs)
	}
	ok, err := s.customers.Exists(ctx, in.CustomerID)
	if err != nil {
		return models.Product{}, err
	}
	if !ok {
		return models.Product{}, invalid(map[string]string{"customer_id": "The selected customer_id is invalid."})
	}

	p := models.Product{CustomerID: in.CustomerID, Name: in.Name, Price: in.Price.Round(2)}
	if err := s.products.Create(ctx, &p); err != nil {
		return models.Product{}, fmt.Errorf("catalog: create product: %w", err)
	}
	return p, nil
}
