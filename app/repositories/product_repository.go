package repositories

import (
	"context"

	"github.com/shashiranjanraj/orderdesk/app/models"
	"github.com/shashiranjanraj/orderdesk/pkg/orm"
)

// ProductRepository handles database operations for Product.
type ProductRepository struct{}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{}
}

// ForCustomer returns the customer's products ordered by name.
func (r *ProductRepository) ForCustomer(ctx context.Context, customerID uint) ([]models.Product, error) {
	var products []models.Product
	err := orm.DB().WithContext(ctx).Model(&models.Product{}).
		Where("customer_id = ?", customerID).
		Order("name asc, id asc").
		Get(&products)
	return products, err
}

// FindForCustomer loads a product only if it belongs to customerID.
func (r *ProductRepository) FindForCustomer(ctx context.Context, id, customerID uint) (models.Product, error) {
	var p models.Product
	err := orm.DB().WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND customer_id = ?", id, customerID).
		First(&p)
	return p, err
}

// ByIDs returns the products with the given ids keyed by id.
func (r *ProductRepository) ByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	out := map[uint]models.Product{}
	if len(ids) == 0 {
		return out, nil
	}
	var products []models.Product
	if err := orm.DB().WithContext(ctx).Model(&models.Product{}).Where("id IN ?", ids).Get(&products); err != nil {
		return nil, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return orm.DB().WithContext(ctx).Create(p)
}
