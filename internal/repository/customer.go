package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/inxsource/sales-assistant-go/internal/model"
)

type CustomerRepository interface {
	FindByPhone(ctx context.Context, phone string) ([]model.Customer, error)
	FindByBusinessAndPhone(ctx context.Context, businessID, phone string) (*model.Customer, error)
	Create(ctx context.Context, params model.CreateCustomerParams) (*model.Customer, error)
	TouchLastInteraction(ctx context.Context, id string) error
}

type customerRepo struct {
	db *sqlx.DB
}

func NewCustomerRepository(db *sqlx.DB) CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) FindByPhone(ctx context.Context, phone string) ([]model.Customer, error) {
	var customers []model.Customer
	err := r.db.SelectContext(ctx, &customers, `
		SELECT * FROM customers
		WHERE phone = $1
		ORDER BY last_interaction DESC NULLS LAST
	`, phone)
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *customerRepo) FindByBusinessAndPhone(ctx context.Context, businessID, phone string) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.GetContext(ctx, &customer, `
		SELECT * FROM customers WHERE business_id = $1 AND phone = $2
	`, businessID, phone)
	return HandleNotFound(&customer, err)
}

func (r *customerRepo) Create(ctx context.Context, params model.CreateCustomerParams) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.GetContext(ctx, &customer, `
		INSERT INTO customers (business_id, phone, name, last_interaction)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (business_id, phone) DO UPDATE SET last_interaction = $4
		RETURNING *
	`, params.BusinessID, params.Phone, params.Name, time.Now())
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepo) TouchLastInteraction(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE customers SET last_interaction = $2 WHERE id = $1
	`, id, time.Now())
	return err
}
