package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/inxsource/sales-assistant-go/internal/model"
)

type BusinessRepository interface {
	FindByID(ctx context.Context, id string) (*model.Business, error)
	FindByWhatsAppNumber(ctx context.Context, number string) (*model.Business, error)
	FindByAPITokenHash(ctx context.Context, tokenHash string) (*model.Business, error)
	ListActive(ctx context.Context) ([]model.Business, error)
}

type businessRepo struct {
	db *sqlx.DB
}

func NewBusinessRepository(db *sqlx.DB) BusinessRepository {
	return &businessRepo{db: db}
}

func (r *businessRepo) FindByID(ctx context.Context, id string) (*model.Business, error) {
	var business model.Business
	err := r.db.GetContext(ctx, &business, `
		SELECT * FROM businesses WHERE id = $1 AND is_active = TRUE
	`, id)
	return HandleNotFound(&business, err)
}

func (r *businessRepo) FindByWhatsAppNumber(ctx context.Context, number string) (*model.Business, error) {
	var business model.Business
	err := r.db.GetContext(ctx, &business, `
		SELECT * FROM businesses WHERE whatsapp_number = $1 AND is_active = TRUE
	`, number)
	return HandleNotFound(&business, err)
}

func (r *businessRepo) FindByAPITokenHash(ctx context.Context, tokenHash string) (*model.Business, error) {
	var business model.Business
	err := r.db.GetContext(ctx, &business, `
		SELECT * FROM businesses
		WHERE api_token_hash = $1
		AND is_active = TRUE
	`, tokenHash)
	return HandleNotFound(&business, err)
}

func (r *businessRepo) ListActive(ctx context.Context) ([]model.Business, error) {
	var businesses []model.Business
	err := r.db.SelectContext(ctx, &businesses, `
		SELECT * FROM businesses WHERE is_active = TRUE ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	return businesses, nil
}
