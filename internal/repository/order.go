package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/inxsource/sales-assistant-go/internal/config"
	"github.com/inxsource/sales-assistant-go/internal/database"
	"github.com/inxsource/sales-assistant-go/internal/model"
)

type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindItems(ctx context.Context, orderID string) ([]model.OrderItem, error)
	ListByCustomer(ctx context.Context, businessID, phone string, limit int) ([]model.Order, error)
	Create(ctx context.Context, params model.CreateOrderParams) (*model.Order, error)
	SetStatus(ctx context.Context, id string, status model.OrderStatus) error
	ExpirePending(ctx context.Context) (int64, error)
}

type orderRepo struct {
	db *database.DB
}

func NewOrderRepository(db *database.DB) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := r.db.GetContext(ctx, &order, `
		SELECT * FROM orders WHERE id = $1
	`, id)
	return HandleNotFound(&order, err)
}

func (r *orderRepo) FindItems(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM order_items WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *orderRepo) ListByCustomer(ctx context.Context, businessID, phone string, limit int) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders
		WHERE business_id = $1 AND customer_phone = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, businessID, phone, limit)
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// Create inserts the order and its items in one transaction so a partial
// order can never be observed.
func (r *orderRepo) Create(ctx context.Context, params model.CreateOrderParams) (*model.Order, error) {
	var order model.Order
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		return insertOrder(ctx, tx, params, &order)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func insertOrder(ctx context.Context, db database.DBTX, params model.CreateOrderParams, order *model.Order) error {
	err := db.GetContext(ctx, order, `
		INSERT INTO orders (id, business_id, customer_phone, status, total_amount, currency, payment_ref)
		VALUES ($1, $2, $3, 'pending', $4, $5, $6)
		RETURNING *
	`, params.ID, params.BusinessID, params.CustomerPhone, params.TotalAmount, params.Currency, params.PaymentRef)
	if err != nil {
		return err
	}

	for _, item := range params.Items {
		_, err = db.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity)
			VALUES ($1, $2, $3, $4, $5)
		`, order.ID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepo) SetStatus(ctx context.Context, id string, status model.OrderStatus) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1
	`, id, status, time.Now())
	return err
}

func (r *orderRepo) ExpirePending(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-config.PendingOrderTTL)
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = 'expired', updated_at = NOW()
		WHERE status = 'pending' AND created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
