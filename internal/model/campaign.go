package model

import (
	"database/sql"
	"time"
)

// Marketplace represents a shop running discount campaigns
type Marketplace struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	WebsiteURL string `db:"website_url" json:"website_url"`
	IsApproved bool   `db:"is_approved" json:"is_approved"`
	IsActive   bool   `db:"is_active" json:"is_active"`
	// How the marketplace wants to be told about fetched codes:
	// 'webhook' or 'amqp', unset when not configured.
	CodeFetchCallbackMethod sql.NullString `db:"code_fetch_callback_method" json:"-"`
}

// Campaign represents a discount campaign owned by a marketplace
type Campaign struct {
	ID            int64        `db:"id" json:"id"`
	Name          string       `db:"name" json:"name"`
	ActiveUntil   sql.NullTime `db:"active_until" json:"-"`
	MarketplaceID int64        `db:"marketplace_id" json:"marketplace_id"`
}

// Expired reports whether the campaign's active window has passed.
func (c *Campaign) Expired(now time.Time) bool {
	return c.ActiveUntil.Valid && now.After(c.ActiveUntil.Time)
}
