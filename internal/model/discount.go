package model

// AvailableDiscountCode is an unused code sitting in a campaign's pool.
// Rows are only ever inserted by bulk generation and deleted on
// allocation, never updated.
type AvailableDiscountCode struct {
	Code       string `db:"id" json:"id"`
	CampaignID int64  `db:"campaign_id" json:"campaign_id"`
}

// FetchedDiscountCode binds one code to one user for one campaign.
// At most one row may exist per (campaign, user) pair.
type FetchedDiscountCode struct {
	Code             string `db:"id" json:"id"`
	CampaignID       int64  `db:"campaign_id" json:"campaign_id"`
	UserID           int64  `db:"user_id" json:"user_id"`
	IsUsed           bool   `db:"is_used" json:"is_used"`
	IsFetchEventSent bool   `db:"is_fetch_event_sent" json:"-"`
}
