package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/kkkkikiki/discount/internal/codegen"
	"github.com/kkkkikiki/discount/internal/config"
	"github.com/kkkkikiki/discount/internal/database"
	"github.com/kkkkikiki/discount/internal/logging"
	"github.com/kkkkikiki/discount/internal/model"
	"github.com/kkkkikiki/discount/internal/repository"
)

const codesPerCampaign = 10000

// Loads demo data: two marketplaces, one campaign each, and a pool of
// codes per campaign.
func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(&cfg.App)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewDB(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	campaignRepo := repository.NewCampaignRepository(db.Postgres)
	discountRepo := repository.NewDiscountCodeRepository(db.Postgres)

	marketplaces := []struct {
		name     string
		url      string
		callback string
	}{
		{name: "My Test Shop 1", url: "https://shop1.com", callback: "webhook"},
		{name: "My Test Shop 2", url: "https://shop2.com", callback: "amqp"},
	}

	for _, m := range marketplaces {
		marketplace := &model.Marketplace{
			Name:       m.name,
			WebsiteURL: m.url,
			IsApproved: true,
			IsActive:   true,
			CodeFetchCallbackMethod: sql.NullString{
				String: m.callback,
				Valid:  true,
			},
		}
		if err := campaignRepo.CreateMarketplace(ctx, db.Postgres, marketplace); err != nil {
			logger.Fatal("failed to create marketplace", zap.Error(err))
		}

		campaign := &model.Campaign{
			Name: "First Order 10% discount",
			ActiveUntil: sql.NullTime{
				Time:  time.Now().Add(30 * 24 * time.Hour),
				Valid: true,
			},
			MarketplaceID: marketplace.ID,
		}
		if err := campaignRepo.CreateCampaign(ctx, db.Postgres, campaign); err != nil {
			logger.Fatal("failed to create campaign", zap.Error(err))
		}

		if err := discountRepo.InsertAvailableCodes(ctx, campaign.ID, codegen.GenerateBatch(codesPerCampaign)); err != nil {
			logger.Fatal("failed to create discount codes", zap.Error(err))
		}

		poolSize, err := discountRepo.CountAvailable(ctx, campaign.ID)
		if err != nil {
			logger.Fatal("failed to count discount codes", zap.Error(err))
		}

		logger.Info("seeded campaign",
			zap.String("marketplace", marketplace.Name),
			zap.Int64("campaign_id", campaign.ID),
			zap.Int64("discount_codes", poolSize))
	}
}
