package repositories

import (
	"context"

	"github.com/shashiranjanraj/orderdesk/app/models"
	"github.com/shashiranjanraj/orderdesk/pkg/orm"
)

// CustomerRepository handles database operations for Customer.
type CustomerRepository struct{}

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{}
}

// All returns every customer ordered by full name.
func (r *CustomerRepository) All(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	err := orm.DB().WithContext(ctx).Model(&models.Customer{}).Order("full_name asc, id asc").Get(&customers)
	return customers, err
}

func (r *CustomerRepository) FindByID(ctx context.Context, id uint) (models.Customer, error) {
	var c models.Customer
	err := orm.DB().WithContext(ctx).Find(&c, id)
	return c, err
}

// Exists reports whether a customer with id exists.
func (r *CustomerRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := orm.DB().WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Count(&n)
	return n > 0, err
}

func (r *CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	return orm.DB().WithContext(ctx).Create(c)
}
