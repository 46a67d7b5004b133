package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusFulfilled OrderStatus = "fulfilled"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusExpired   OrderStatus = "expired"
)

type Order struct {
	ID            string          `db:"id" json:"id"`
	BusinessID    string          `db:"business_id" json:"businessId"`
	CustomerPhone string          `db:"customer_phone" json:"customerPhone"`
	Status        OrderStatus     `db:"status" json:"status"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"totalAmount"`
	Currency      string          `db:"currency" json:"currency"`
	PaymentRef    *string         `db:"payment_ref" json:"paymentRef,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

type OrderItem struct {
	ID          string          `db:"id" json:"id"`
	OrderID     string          `db:"order_id" json:"orderId"`
	ProductID   string          `db:"product_id" json:"productId"`
	ProductName string          `db:"product_name" json:"productName"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unitPrice"`
	Quantity    int             `db:"quantity" json:"quantity"`
}

type CreateOrderParams struct {
	ID            string
	BusinessID    string
	CustomerPhone string
	TotalAmount   decimal.Decimal
	Currency      string
	PaymentRef    *string
	Items         []CreateOrderItemParams
}

type CreateOrderItemParams struct {
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}
