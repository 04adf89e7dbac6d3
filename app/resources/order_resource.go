// Package resources declares how orders are edited, listed and rendered:
// the order form schema, the order table and the JSON transformers.
package resources

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/orderdesk/app/models"
	"github.com/shashiranjanraj/orderdesk/pkg/form"
	"github.com/shashiranjanraj/orderdesk/pkg/money"
	"github.com/shashiranjanraj/orderdesk/pkg/orm"
	"github.com/shashiranjanraj/orderdesk/pkg/resource"
	"github.com/shashiranjanraj/orderdesk/pkg/table"
)

// Catalog is what the order form needs to know about customers and their
// products.
type Catalog interface {
	Customers(ctx context.Context) ([]models.Customer, error)
	// CustomerProducts lists a customer's products; unknown customers have
	// none.
	CustomerProducts(ctx context.Context, customerID uint) ([]models.Product, error)
	// ProductPrice returns the product's price when it belongs to the
	// customer.
	ProductPrice(ctx context.Context, productID, customerID uint) (decimal.Decimal, bool, error)
}

// ── Form ────────────────────────────────────────────────────────────────────

// OrderForm builds the create/edit form. Line totals and total_price are
// derived: the form recomputes them on every edit and they cannot be
// typed in.
func OrderForm(c Catalog) *form.Schema {
	noCustomer := func(get form.Get) bool { return form.Uint(get("customer_id")) == 0 }

	return form.New("order",
		&form.Field{
			Name:     "unique_code",
			Label:    "Unique code",
			Required: true,
			Readonly: true,
			Default:  func() any { return uuid.NewString() },
		},
		&form.Field{
			Name:     "customer_id",
			Label:    "Customer",
			Kind:     form.KindSelect,
			Required: true,
			Live:     true,
			Options: func(ctx context.Context, _ form.Get) ([]form.Option, error) {
				customers, err := c.Customers(ctx)
				if err != nil {
					return nil, err
				}
				opts := make([]form.Option, len(customers))
				for i, cu := range customers {
					opts[i] = form.Option{Value: cu.ID, Label: cu.FullName}
				}
				return opts, nil
			},
			AfterStateUpdated: []form.Hook{dropForeignLines(c)},
		},
		&form.Field{
			Name:     "status",
			Label:    "Status",
			Kind:     form.KindSelect,
			Required: true,
			Default:  func() any { return string(models.StatusPending) },
			Options: func(context.Context, form.Get) ([]form.Option, error) {
				opts := make([]form.Option, 0, 3)
				for _, s := range models.Statuses() {
					opts = append(opts, form.Option{Value: string(s), Label: s.Label()})
				}
				return opts, nil
			},
		},
		&form.Repeater{
			Name:   "order_products",
			Label:  "Products",
			Live:   true,
			Hidden: noCustomer,
			Schema: []*form.Field{
				{
					Name:     "product_id",
					Label:    "Product",
					Kind:     form.KindSelect,
					Required: true,
					Live:     true,
					Options: func(ctx context.Context, get form.Get) ([]form.Option, error) {
						customerID := form.Uint(get("../../customer_id"))
						if customerID == 0 {
							return nil, nil
						}
						products, err := c.CustomerProducts(ctx, customerID)
						if err != nil {
							return nil, err
						}
						opts := make([]form.Option, len(products))
						for i, p := range products {
							opts[i] = form.Option{Value: p.ID, Label: p.Name}
						}
						return opts, nil
					},
					AfterStateUpdated: []form.Hook{fillPrice(c), setLineTotal},
				},
				{Name: "price", Label: "Precio unitario", Kind: form.KindNumber, Disabled: true},
				{
					Name:              "quantity",
					Label:             "Quantity",
					Kind:              form.KindNumber,
					Required:          true,
					Integer:           true,
					Min:               form.MinDecimal(1),
					Live:              true,
					Default:           func() any { return 1 },
					AfterStateUpdated: []form.Hook{setLineTotal},
				},
				{Name: "total", Label: "Total", Kind: form.KindNumber, Disabled: true, Numeric: true},
			},
			AfterStateUpdated: []form.Hook{recomputeTotals},
		},
		&form.Field{
			Name:     "total_price",
			Label:    "Total price",
			Kind:     form.KindNumber,
			Required: true,
			Numeric:  true,
			Live:     true,
			Readonly: true,
			Hidden:   noCustomer,
			Default:  func() any { return "0.00" },
		},
	)
}

// lineTotal is quantity × price; empty values count as zero.
func lineTotal(quantity, price any) decimal.Decimal {
	return form.Decimal(quantity).Mul(form.Decimal(price)).Round(2)
}

func setLineTotal(_ context.Context, get form.Get, set form.Set, _, _ any) error {
	set("total", lineTotal(get("quantity"), get("price")))
	return nil
}

// fillPrice copies the selected product's price into the row. A product
// that is unknown or belongs to another customer leaves the price empty.
func fillPrice(c Catalog) form.Hook {
	return func(ctx context.Context, get form.Get, set form.Set, _, v any) error {
		productID, customerID := form.Uint(v), form.Uint(get("../../customer_id"))
		if productID == 0 || customerID == 0 {
			set("price", nil)
			return nil
		}
		price, ok, err := c.ProductPrice(ctx, productID, customerID)
		if err != nil {
			return err
		}
		if !ok {
			set("price", nil)
			return nil
		}
		set("price", price)
		return nil
	}
}

// recomputeTotals refreshes every line total and total_price.
func recomputeTotals(_ context.Context, get form.Get, set form.Set, _, _ any) error {
	rows, _ := get("order_products").([]any)
	sum := decimal.Zero
	for i, r := range rows {
		row, _ := r.(map[string]any)
		t := lineTotal(row["quantity"], row["price"])
		set(fmt.Sprintf("order_products.%d.total", i), t)
		sum = sum.Add(t)
	}
	set("total_price", sum)
	return nil
}

// dropForeignLines removes lines whose product does not belong to the newly
// selected customer, then recomputes the totals. Lines without a product
// yet are kept while a customer is selected.
func dropForeignLines(c Catalog) form.Hook {
	return func(ctx context.Context, get form.Get, set form.Set, old, v any) error {
		customerID := form.Uint(v)
		rows, _ := get("order_products").([]any)
		kept := make([]any, 0, len(rows))
		for _, r := range rows {
			row, _ := r.(map[string]any)
			if customerID == 0 || row == nil {
				continue
			}
			productID := form.Uint(row["product_id"])
			if productID == 0 {
				kept = append(kept, row)
				continue
			}
			if _, ok, err := c.ProductPrice(ctx, productID, customerID); err != nil {
				return err
			} else if ok {
				kept = append(kept, row)
			}
		}
		set("order_products", kept)
		return recomputeTotals(ctx, get, set, old, v)
	}
}

// OrderState renders a stored order as form state for the edit form.
func OrderState(o models.Order) form.State {
	rows := make([]any, 0, len(o.OrderProducts))
	for _, l := range o.OrderProducts {
		rows = append(rows, map[string]any{
			"id":         l.ID,
			"product_id": l.ProductID,
			"price":      money.String(l.Price),
			"quantity":   l.Quantity,
			"total":      money.String(l.Total),
		})
	}
	return form.State{
		"unique_code":    o.UniqueCode,
		"customer_id":    o.CustomerID,
		"status":         string(o.Status),
		"order_products": rows,
		"total_price":    money.String(o.TotalPrice),
	}
}

// ── Table ───────────────────────────────────────────────────────────────────

// OrderTable is the order list: columns, status filters and actions.
func OrderTable() *table.Table {
	status := func(s models.OrderStatus) func(*orm.Query) *orm.Query {
		return func(q *orm.Query) *orm.Query { return q.Where("orders.status = ?", string(s)) }
	}
	return &table.Table{
		From: "orders",
		Columns: []table.Column{
			{Key: "customer.full_name", Label: "Customer", Sortable: true,
				Expr: "customers.full_name", Join: "LEFT JOIN customers ON customers.id = orders.customer_id"},
			{Key: "unique_code", Label: "Unique code", Searchable: true},
			{Key: "total_price", Label: "Total price", Sortable: true},
			{Key: "status", Label: "Status", Searchable: true, Badge: true},
			{Key: "created_at", Label: "Created at", Sortable: true, Toggleable: true, HiddenByDefault: true},
			{Key: "updated_at", Label: "Updated at", Sortable: true, Toggleable: true, HiddenByDefault: true},
		},
		Filters: []table.Filter{
			{Name: "pending", Label: "Pending", Scope: status(models.StatusPending)},
			{Name: "rejected", Label: "Rejected", Scope: status(models.StatusRejected)},
			{Name: "finished", Label: "Finished", Scope: status(models.StatusFinished)},
		},
		DefaultSort:      "created_at",
		DefaultDirection: "desc",
		Actions:          []string{"view", "edit", "delete"},
		BulkActions:      []string{"delete"},
	}
}

// ── Transformers ────────────────────────────────────────────────────────────

func statusMap(s models.OrderStatus) resource.Map {
	return resource.Map{"value": string(s), "label": s.Label(), "color": s.Color()}
}

// OrderRow is the list shape of an order.
func OrderRow(o models.Order) resource.Map {
	out := resource.Map{
		"id":                    o.ID,
		"unique_code":           o.UniqueCode,
		"customer_id":           o.CustomerID,
		"total_price":           money.String(o.TotalPrice),
		"total_price_formatted": money.Format(o.TotalPrice),
		"status":                statusMap(o.Status),
		"created_at":            o.CreatedAt.Format(time.RFC3339),
		"updated_at":            o.UpdatedAt.Format(time.RFC3339),
		"links":                 resource.Map{"self": fmt.Sprintf("/api/orders/%d", o.ID)},
	}
	if o.Customer != nil {
		out["customer"] = resource.Map{"id": o.Customer.ID, "full_name": o.Customer.FullName}
	}
	return out
}

// OrderDetail is OrderRow plus the order lines.
func OrderDetail(o models.Order) resource.Map {
	out := OrderRow(o)
	lines := make([]resource.Map, 0, len(o.OrderProducts))
	for _, l := range o.OrderProducts {
		line := resource.Map{
			"id":         l.ID,
			"product_id": l.ProductID,
			"quantity":   l.Quantity,
			"price":      money.String(l.Price),
			"total":      money.String(l.Total),
		}
		if l.Product != nil {
			line["product"] = resource.Map{"id": l.Product.ID, "name": l.Product.Name}
		}
		lines = append(lines, line)
	}
	out["order_products"] = lines
	return out
}

// CustomerOption is the select shape of a customer.
func CustomerOption(c models.Customer) resource.Map {
	return resource.Map{"value": c.ID, "label": c.FullName, "email": c.Email, "phone": c.Phone}
}

// ProductOption is the select shape of a product.
func ProductOption(p models.Product) resource.Map {
	return resource.Map{"value": p.ID, "label": p.Name, "customer_id": p.CustomerID, "price": money.String(p.Price)}
}
