package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kkkkikiki/discount/internal/apperr"
	"github.com/kkkkikiki/discount/internal/metrics"
	"github.com/kkkkikiki/discount/internal/model"
)

// notifyTimeout bounds the detached post-allocation notification.
const notifyTimeout = 5 * time.Second

// Allocator assigns discount codes to users, one per user per campaign.
type Allocator struct {
	campaigns CampaignStore
	codes     DiscountStore
	notifier  Notifier
	logger    *zap.Logger
}

// NewAllocator creates a new Allocator instance
func NewAllocator(campaigns CampaignStore, codes DiscountStore, notifier Notifier, logger *zap.Logger) *Allocator {
	return &Allocator{
		campaigns: campaigns,
		codes:     codes,
		notifier:  notifier,
		logger:    logger,
	}
}

// Fetch returns the user's discount code for a campaign, allocating one
// from the pool on first call. The bool reports whether the allocation
// is fresh. Repeated calls are idempotent: once a code is allocated the
// same code is returned forever, through a lock-free ledger read.
func (a *Allocator) Fetch(ctx context.Context, campaignID, userID int64) (*model.FetchedDiscountCode, bool, error) {
	start := time.Now()
	result := "failed"

	defer func() {
		metrics.RecordFetchDiscountDuration(result, time.Since(start).Seconds())
	}()

	existing, err := a.codes.FindFetchedCode(ctx, campaignID, userID)
	if err == nil {
		result = "success"
		return existing, false, nil
	}
	if !errors.Is(err, apperr.ErrCodeNotAvailable) {
		return nil, false, err
	}

	campaign, err := a.campaigns.FindCampaign(ctx, campaignID)
	if err != nil {
		return nil, false, err
	}
	if campaign.Expired(time.Now()) {
		return nil, false, apperr.Validation("campaign %d is no longer active", campaignID)
	}

	fetched, err := a.codes.AllocateCode(ctx, campaignID, userID)
	if err != nil {
		return nil, false, err
	}
	result = "success"

	a.logger.Info("discount_code_created",
		zap.String("id", fetched.Code),
		zap.Int64("campaign_id", fetched.CampaignID),
		zap.Int64("user_id", fetched.UserID))

	// Fire-and-forget: the notification must never delay or fail the
	// response, so it runs detached from the request context.
	go func(fetched model.FetchedDiscountCode) {
		notifyCtx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		a.notifier.Notify(notifyCtx, &fetched)
	}(*fetched)

	return fetched, true, nil
}

// Get returns the user's existing discount code for a campaign without
// ever allocating. ErrCodeNotAvailable when the user holds none.
func (a *Allocator) Get(ctx context.Context, campaignID, userID int64) (*model.FetchedDiscountCode, error) {
	return a.codes.FindFetchedCode(ctx, campaignID, userID)
}
