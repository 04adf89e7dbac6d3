package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/orderdesk/app/models"
	"github.com/shashiranjanraj/orderdesk/pkg/orm"
)

// OrderRepository handles database operations for Order and its lines.
type OrderRepository struct{}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{}
}

// Query starts an order query with the customer preloaded, for listings.
func (r *OrderRepository) Query(ctx context.Context) *orm.Query {
	return orm.DB().WithContext(ctx).Model(&models.Order{}).Preload("Customer")
}

// FindByID loads an order with its customer and lines (and their products).
func (r *OrderRepository) FindByID(ctx context.Context, id uint) (models.Order, error) {
	return r.find(orm.DB().WithContext(ctx), id)
}

func (r *OrderRepository) find(q *orm.Query, id uint) (models.Order, error) {
	var o models.Order
	err := q.Model(&models.Order{}).
		Preload("Customer").
		Preload("OrderProducts", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("OrderProducts.Product").
		Where("id = ?", id).
		First(&o)
	return o, err
}

// Create inserts o and its lines in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	return orm.DB().Transaction(ctx, func(tx *orm.Query) error {
		return tx.Create(o)
	})
}

// Sync saves o and makes its stored lines match o.OrderProducts exactly:
// lines with an id are updated, lines without one are inserted and stored
// lines missing from the list are deleted.
func (r *OrderRepository) Sync(ctx context.Context, o *models.Order) error {
	return orm.DB().Transaction(ctx, func(tx *orm.Query) error {
		keep := make([]uint, 0, len(o.OrderProducts))
		for _, line := range o.OrderProducts {
			if line.ID != 0 {
				keep = append(keep, line.ID)
			}
		}

		stale := tx.Model(&models.OrderProduct{}).Where("order_id = ?", o.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if _, err := stale.Delete(&models.OrderProduct{}); err != nil {
			return err
		}

		for i := range o.OrderProducts {
			o.OrderProducts[i].OrderID = o.ID
			if err := tx.Omit("Product").Save(&o.OrderProducts[i]); err != nil {
				return err
			}
		}
		return tx.Omit("Customer", "OrderProducts").Save(o)
	})
}

// Delete removes the orders with the given ids and their lines. Returns the
// number of orders deleted.
func (r *OrderRepository) Delete(ctx context.Context, ids ...uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := orm.DB().Transaction(ctx, func(tx *orm.Query) error {
		if _, err := tx.Where("order_id IN ?", ids).Delete(&models.OrderProduct{}); err != nil {
			return err
		}
		var err error
		n, err = tx.Where("id IN ?", ids).Delete(&models.Order{})
		return err
	})
	return n, err
}
