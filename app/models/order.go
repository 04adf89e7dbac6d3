package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending  OrderStatus = "pending"
	StatusRejected OrderStatus = "rejected"
	StatusFinished OrderStatus = "finished"
)

// Statuses lists every status in display order.
func Statuses() []OrderStatus {
	return []OrderStatus{StatusPending, StatusRejected, StatusFinished}
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusRejected, StatusFinished:
		return true
	}
	return false
}

// Label is the back-office display name.
func (s OrderStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pendiente"
	case StatusRejected:
		return "Rechazada"
	case StatusFinished:
		return "Finalizada"
	}
	return string(s)
}

// Color is the badge colour shown in the order table.
func (s OrderStatus) Color() string {
	switch s {
	case StatusPending:
		return "warning"
	case StatusRejected:
		return "gray"
	case StatusFinished:
		return "success"
	}
	return "gray"
}

// Order is a customer's order. TotalPrice always equals the sum of its
// line totals; OrderService keeps it that way on every write.
type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	CustomerID    uint            `gorm:"not null;index" json:"customer_id"`
	Customer      *Customer       `json:"customer,omitempty"`
	UniqueCode    string          `gorm:"size:36;not null;uniqueIndex" json:"unique_code"`
	Status        OrderStatus     `gorm:"size:20;not null;default:pending;index" json:"status"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_price"`
	OrderProducts []OrderProduct  `gorm:"constraint:OnDelete:CASCADE" json:"order_products,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// OrderProduct is one line of an order.
type OrderProduct struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	ProductID uint            `gorm:"not null;index" json:"product_id"`
	Product   *Product        `gorm:"constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	Quantity  int             `gorm:"not null;default:1" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"price"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Recalculate sets every line total to quantity × price and TotalPrice to
// their sum, rounded to cents.
func (o *Order) Recalculate() {
	sum := decimal.Zero
	for i := range o.OrderProducts {
		line := &o.OrderProducts[i]
		line.Total = LineTotal(line.Quantity, line.Price)
		sum = sum.Add(line.Total)
	}
	o.TotalPrice = sum.Round(2)
}

// LineTotal is quantity × unit price rounded to cents.
func LineTotal(quantity int, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
