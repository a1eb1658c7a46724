package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kkkkikiki/discount/internal/model"
)

func TestEventLogNotifierMarksEventSent(t *testing.T) {
	codes := newFakeDiscountStore()
	codes.seedPool(testCampaignID, "ABCDEFGHIJ")
	fetched, err := codes.AllocateCode(context.Background(), testCampaignID, testUserID)
	require.NoError(t, err)

	notifier := NewEventLogNotifier(codes, zap.NewNop())
	notifier.Notify(context.Background(), fetched)

	assert.True(t, codes.eventSent("ABCDEFGHIJ", testCampaignID))
}

func TestEventLogNotifierSwallowsErrors(t *testing.T) {
	codes := newFakeDiscountStore()
	notifier := NewEventLogNotifier(codes, zap.NewNop())

	// Unknown ledger row: the store errors, Notify must not panic or
	// surface anything.
	notifier.Notify(context.Background(), &model.FetchedDiscountCode{
		Code:       "ZZZZZZZZZZ",
		CampaignID: testCampaignID,
		UserID:     testUserID,
	})
}
