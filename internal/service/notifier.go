package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/kkkkikiki/discount/internal/model"
)

// EventLogNotifier stands in for the marketplace notification queue:
// it logs the fetched-code event and records the dispatch on the
// ledger row. Delivery over webhook/AMQP belongs to a separate system.
type EventLogNotifier struct {
	codes  DiscountStore
	logger *zap.Logger
}

// NewEventLogNotifier creates a new EventLogNotifier instance
func NewEventLogNotifier(codes DiscountStore, logger *zap.Logger) *EventLogNotifier {
	return &EventLogNotifier{
		codes:  codes,
		logger: logger,
	}
}

// Notify emits the discount_code_fetched event and marks it sent.
// Best-effort: errors are logged and swallowed.
func (n *EventLogNotifier) Notify(ctx context.Context, fetched *model.FetchedDiscountCode) {
	n.logger.Info("send_discount_code_fetched_event",
		zap.String("discount_code_id", fetched.Code),
		zap.Int64("campaign_id", fetched.CampaignID),
		zap.Int64("user_id", fetched.UserID))

	if err := n.codes.MarkFetchEventSent(ctx, fetched.Code, fetched.CampaignID); err != nil {
		n.logger.Warn("failed to mark fetch event sent",
			zap.String("discount_code_id", fetched.Code),
			zap.Int64("campaign_id", fetched.CampaignID),
			zap.Error(err))
	}
}
