package service

import (
	"context"

	"github.com/kkkkikiki/discount/internal/model"
)

// CampaignStore provides read access to campaigns.
type CampaignStore interface {
	FindCampaign(ctx context.Context, id int64) (*model.Campaign, error)
}

// DiscountStore provides access to the code pool and the allocation
// ledger. AllocateCode is the contention-safe primitive: it must hand
// each concurrent caller a different pool code without waiting on rows
// locked by other in-flight allocations, and must fail with
// apperr.ErrCodeAlreadyAllocated when the (campaign, user) uniqueness
// constraint arbitrates a first-time race.
type DiscountStore interface {
	FindFetchedCode(ctx context.Context, campaignID, userID int64) (*model.FetchedDiscountCode, error)
	AllocateCode(ctx context.Context, campaignID, userID int64) (*model.FetchedDiscountCode, error)
	InsertAvailableCodes(ctx context.Context, campaignID int64, codes []string) error
	MarkFetchEventSent(ctx context.Context, code string, campaignID int64) error
}

// Notifier delivers post-allocation events to the owning marketplace.
// Best-effort: failures must never affect allocation results.
type Notifier interface {
	Notify(ctx context.Context, fetched *model.FetchedDiscountCode)
}
