package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/kkkkikiki/discount/internal/apperr"
	"github.com/kkkkikiki/discount/internal/model"
)

// DBExecutor abstracts *sqlx.DB and *sqlx.Tx so write operations can
// run standalone or inside a caller-owned transaction.
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// CampaignRepository handles campaign and marketplace data operations
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// FindCampaign retrieves a campaign by ID
func (r *CampaignRepository) FindCampaign(ctx context.Context, id int64) (*model.Campaign, error) {
	query := `
		SELECT id, name, active_until, marketplace_id
		FROM campaigns
		WHERE id = $1
	`

	var campaign model.Campaign
	err := r.db.GetContext(ctx, &campaign, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return &campaign, nil
}

// CreateCampaign creates a new campaign and sets its generated ID
func (r *CampaignRepository) CreateCampaign(ctx context.Context, db DBExecutor, campaign *model.Campaign) error {
	query := `
		INSERT INTO campaigns (name, active_until, marketplace_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := db.GetContext(ctx, &campaign.ID, query,
		campaign.Name, campaign.ActiveUntil, campaign.MarketplaceID)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	return nil
}

// CreateMarketplace creates a new marketplace and sets its generated ID
func (r *CampaignRepository) CreateMarketplace(ctx context.Context, db DBExecutor, marketplace *model.Marketplace) error {
	query := `
		INSERT INTO marketplaces (name, website_url, is_approved, is_active, code_fetch_callback_method)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := db.GetContext(ctx, &marketplace.ID, query,
		marketplace.Name, marketplace.WebsiteURL, marketplace.IsApproved,
		marketplace.IsActive, marketplace.CodeFetchCallbackMethod)
	if err != nil {
		return fmt.Errorf("failed to create marketplace: %w", err)
	}

	return nil
}
