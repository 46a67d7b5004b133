package model

import "time"

type Business struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Industry       string    `db:"industry" json:"industry"`
	Description    string    `db:"description" json:"description"`
	WhatsAppNumber string    `db:"whatsapp_number" json:"whatsappNumber"`
	APITokenHash   *string   `db:"api_token_hash" json:"-"`
	RateLimitPerMin int      `db:"rate_limit_per_min" json:"rateLimitPerMin"`
	IsActive       bool      `db:"is_active" json:"isActive"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}
