package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/orderdesk/app/models"
	"github.com/shashiranjanraj/orderdesk/app/repositories"
	"github.com/shashiranjanraj/orderdesk/app/resources"
	"github.com/shashiranjanraj/orderdesk/pkg/event"
	"github.com/shashiranjanraj/orderdesk/pkg/form"
	"github.com/shashiranjanraj/orderdesk/pkg/logger"
	"github.com/shashiranjanraj/orderdesk/pkg/metrics"
	"github.com/shashiranjanraj/orderdesk/pkg/orm"
	"github.com/shashiranjanraj/orderdesk/pkg/table"
	"github.com/shashiranjanraj/orderdesk/pkg/validate"
)

// Order events, fired after the write has committed.
const (
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
	EventOrderDeleted = "order.deleted"
)

// OrderEvent is the payload of every order event.
type OrderEvent struct {
	IDs    []uint             `json:"ids"`
	Status models.OrderStatus `json:"status,omitempty"`
}

// LineInput is one order line as submitted. ID is set for lines that
// already exist.
type LineInput struct {
	ID        uint `json:"id"`
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity"   validate:"required,min=1"`
}

// OrderInput is a create or update request. Prices and totals are never
// taken from the client.
type OrderInput struct {
	UniqueCode string      `json:"unique_code"    validate:"required,uuid"`
	CustomerID uint        `json:"customer_id"    validate:"required"`
	Status     string      `json:"status"         validate:"required,in=pending,rejected,finished"`
	Lines      []LineInput `json:"order_products" validate:"dive"`
}

// InputFromState reads an order form state into an OrderInput.
func InputFromState(st form.State) OrderInput {
	in := OrderInput{
		UniqueCode: strings.TrimSpace(form.String(st["unique_code"])),
		CustomerID: form.Uint(st["customer_id"]),
		Status:     form.String(st["status"]),
	}
	for _, row := range st.Rows("order_products") {
		in.Lines = append(in.Lines, LineInput{
			ID:        form.Uint(row["id"]),
			ProductID: form.Uint(row["product_id"]),
			Quantity:  form.Int(row["quantity"]),
		})
	}
	return in
}

type OrderService struct {
	orders    *repositories.OrderRepository
	customers *repositories.CustomerRepository
	products  *repositories.ProductRepository
}

func NewOrderService() *OrderService {
	return &OrderService{
		orders:    repositories.NewOrderRepository(),
		customers: repositories.NewCustomerRepository(),
		products:  repositories.NewProductRepository(),
	}
}

// Find loads one order with its customer and lines.
func (s *OrderService) Find(ctx context.Context, id uint) (models.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if orm.IsNotFound(err) {
			return models.Order{}, ErrOrderNotFound
		}
		return models.Order{}, fmt.Errorf("orders: find %d: %w", id, err)
	}
	return o, nil
}

// List applies the order table (filters, search, sort) and returns one page.
func (s *OrderService) List(ctx context.Context, p table.Params) ([]models.Order, orm.Pagination, table.Params, error) {
	q, p := resources.OrderTable().Apply(s.orders.Query(ctx), p)
	var orders []models.Order
	page, err := q.Paginate(&orders, p.Page, p.PerPage)
	if err != nil {
		return nil, orm.Pagination{}, p, fmt.Errorf("orders: list: %w", err)
	}
	return orders, page, p, nil
}

// Each walks every order matching p, page by page, ignoring p's pagination.
func (s *OrderService) Each(ctx context.Context, p table.Params, fn func([]models.Order) error) error {
	p.PerPage = table.MaxPerPage
	for page := 1; ; page++ {
		p.Page = page
		orders, meta, _, err := s.List(ctx, p)
		if err != nil {
			return err
		}
		if len(orders) > 0 {
			if err := fn(orders); err != nil {
				return err
			}
		}
		if page >= meta.LastPage {
			return nil
		}
	}
}

// Create validates in, prices its lines from the catalogue and stores the
// order with recomputed totals.
func (s *OrderService) Create(ctx context.Context, in OrderInput) (models.Order, error) {
	if in.UniqueCode == "" {
		in.UniqueCode = uuid.NewString()
	}
	if err := s.check(ctx, in); err != nil {
		return models.Order{}, err
	}

	var n int64
	if err := orm.DB().WithContext(ctx).Model(&models.Order{}).Where("unique_code = ?", in.UniqueCode).Count(&n); err != nil {
		return models.Order{}, fmt.Errorf("orders: check code: %w", err)
	}
	if n > 0 {
		return models.Order{}, invalid(map[string]string{"unique_code": "The unique_code has already been taken."})
	}

	lines, err := s.resolveLines(ctx, in, nil)
	if err != nil {
		return models.Order{}, err
	}
	order := models.Order{
		UniqueCode:    in.UniqueCode,
		CustomerID:    in.CustomerID,
		Status:        models.OrderStatus(in.Status),
		OrderProducts: lines,
	}
	order.Recalculate()

	if err := s.orders.Create(ctx, &order); err != nil {
		return models.Order{}, fmt.Errorf("orders: create: %w", err)
	}
	s.written(ctx, "create", EventOrderCreated, OrderEvent{IDs: []uint{order.ID}, Status: order.Status})
	logger.WithCtx(ctx).Info("order created", "order_id", order.ID, "total", order.TotalPrice.StringFixed(2))
	return s.Find(ctx, order.ID)
}

// Update replaces the order's customer, status and lines. The unique code
// never changes. Lines keep their stored price unless their product changed.
func (s *OrderService) Update(ctx context.Context, id uint, in OrderInput) (models.Order, error) {
	order, err := s.Find(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	in.UniqueCode = order.UniqueCode
	if err := s.check(ctx, in); err != nil {
		return models.Order{}, err
	}

	existing := make(map[uint]models.OrderProduct, len(order.OrderProducts))
	for _, l := range order.OrderProducts {
		existing[l.ID] = l
	}
	lines, err := s.resolveLines(ctx, in, existing)
	if err != nil {
		return models.Order{}, err
	}

	order.CustomerID = in.CustomerID
	order.Customer = nil
	order.Status = models.OrderStatus(in.Status)
	order.OrderProducts = lines
	order.Recalculate()

	if err := s.orders.Sync(ctx, &order); err != nil {
		return models.Order{}, fmt.Errorf("orders: update %d: %w", id, err)
	}
	s.written(ctx, "update", EventOrderUpdated, OrderEvent{IDs: []uint{order.ID}, Status: order.Status})
	logger.WithCtx(ctx).Info("order updated", "order_id", order.ID, "total", order.TotalPrice.StringFixed(2))
	return s.Find(ctx, order.ID)
}

// Delete removes one order and its lines.
func (s *OrderService) Delete(ctx context.Context, id uint) error {
	n, err := s.orders.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("orders: delete %d: %w", id, err)
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	s.written(ctx, "delete", EventOrderDeleted, OrderEvent{IDs: []uint{id}})
	return nil
}

// BulkDelete removes every listed order that exists and reports how many
// were deleted.
func (s *OrderService) BulkDelete(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, invalid(map[string]string{"ids": "The ids field is required."})
	}
	n, err := s.orders.Delete(ctx, ids...)
	if err != nil {
		return 0, fmt.Errorf("orders: bulk delete: %w", err)
	}
	if n > 0 {
		s.written(ctx, "bulk_delete", EventOrderDeleted, OrderEvent{IDs: ids})
	}
	return n, nil
}

func (s *OrderService) check(ctx context.Context, in OrderInput) error {
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		return invalid(errs)
	}
	ok, err := s.customers.Exists(ctx, in.CustomerID)
	if err != nil {
		return fmt.Errorf("orders: check customer: %w", err)
	}
	if !ok {
		return invalid(map[string]string{"customer_id": "The selected customer_id is invalid."})
	}
	return nil
}

// resolveLines turns submitted lines into order lines priced from the
// catalogue. Every product must belong to the order's customer.
func (s *OrderService) resolveLines(ctx context.Context, in OrderInput, existing map[uint]models.OrderProduct) ([]models.OrderProduct, error) {
	ids := make([]uint, 0, len(in.Lines))
	for _, l := range in.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.products.ByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("orders: load products: %w", err)
	}

	errs := map[string]string{}
	lines := make([]models.OrderProduct, 0, len(in.Lines))
	seen := make(map[uint]bool, len(in.Lines))
	for i, l := range in.Lines {
		p, ok := products[l.ProductID]
		if !ok || p.CustomerID != in.CustomerID {
			errs[fmt.Sprintf("order_products.%d.product_id", i)] = "The selected product_id is invalid."
			continue
		}

		line := models.OrderProduct{ProductID: p.ID, Price: p.Price}
		if l.ID != 0 {
			prev, ok := existing[l.ID]
			if !ok || seen[l.ID] {
				errs[fmt.Sprintf("order_products.%d.id", i)] = "The selected line is invalid."
				continue
			}
			seen[l.ID] = true
			line = prev
			line.Product = nil
			if prev.ProductID != p.ID {
				line.ProductID, line.Price = p.ID, p.Price
			}
		}
		line.Quantity = l.Quantity
		lines = append(lines, line)
	}
	if err := invalid(errs); err != nil {
		return nil, err
	}
	return lines, nil
}

func (s *OrderService) written(ctx context.Context, action, name string, payload OrderEvent) {
	metrics.OrdersWritten.WithLabelValues(action).Inc()
	if err := event.Fire(ctx, name, payload); err != nil {
		logger.WithCtx(ctx).Error("orders: event listener failed", "event", name, "error", err)
	}
}
