package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/inxsource/sales-assistant-go/internal/model"
)

type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*model.Product, error)
	ListByBusiness(ctx context.Context, businessID string, limit int) ([]model.Product, error)
	ListByCategory(ctx context.Context, businessID, category string, limit int) ([]model.Product, error)
	Search(ctx context.Context, businessID, query string, limit int) ([]model.Product, error)
	ListCategories(ctx context.Context, businessID string) ([]string, error)
}

type productRepo struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	err := r.db.GetContext(ctx, &product, `
		SELECT * FROM products WHERE id = $1
	`, id)
	return HandleNotFound(&product, err)
}

func (r *productRepo) ListByBusiness(ctx context.Context, businessID string, limit int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.SelectContext(ctx, &products, `
		SELECT * FROM products
		WHERE business_id = $1 AND in_stock = TRUE
		ORDER BY name
		LIMIT $2
	`, businessID, limit)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepo) ListByCategory(ctx context.Context, businessID, category string, limit int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.SelectContext(ctx, &products, `
		SELECT * FROM products
		WHERE business_id = $1 AND category = $2 AND in_stock = TRUE
		ORDER BY name
		LIMIT $3
	`, businessID, category, limit)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepo) Search(ctx context.Context, businessID, query string, limit int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.SelectContext(ctx, &products, `
		SELECT * FROM products
		WHERE business_id = $1
		AND in_stock = TRUE
		AND (name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
		ORDER BY name
		LIMIT $3
	`, businessID, query, limit)
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepo) ListCategories(ctx context.Context, businessID string) ([]string, error) {
	var categories []string
	err := r.db.SelectContext(ctx, &categories, `
		SELECT DISTINCT category FROM products
		WHERE business_id = $1 AND category <> '' AND in_stock = TRUE
		ORDER BY category
	`, businessID)
	if err != nil {
		return nil, err
	}
	return categories, nil
}
