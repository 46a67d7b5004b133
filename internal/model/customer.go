package model

import "time"

type Customer struct {
	ID              string     `db:"id" json:"id"`
	BusinessID      string     `db:"business_id" json:"businessId"`
	Phone           string     `db:"phone" json:"phone"`
	Name            *string    `db:"name" json:"name,omitempty"`
	LastInteraction *time.Time `db:"last_interaction" json:"lastInteraction,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
}

type CreateCustomerParams struct {
	BusinessID string
	Phone      string
	Name       *string
}
