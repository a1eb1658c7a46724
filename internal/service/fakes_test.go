package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/kkkkikiki/discount/internal/apperr"
	"github.com/kkkkikiki/discount/internal/model"
)

type pairKey struct {
	campaignID int64
	userID     int64
}

// fakeDiscountStore is an in-memory DiscountStore. A single mutex gives
// it the same atomicity the real store gets from its transaction, so
// concurrent allocator calls exercise the race semantics for real.
type fakeDiscountStore struct {
	mu          sync.Mutex
	pool        map[int64][]string
	ledger      map[pairKey]model.FetchedDiscountCode
	insertCalls []int
	// failInsertAt makes the nth InsertAvailableCodes call fail (1-based).
	failInsertAt int
}

func newFakeDiscountStore() *fakeDiscountStore {
	return &fakeDiscountStore{
		pool:   make(map[int64][]string),
		ledger: make(map[pairKey]model.FetchedDiscountCode),
	}
}

func (f *fakeDiscountStore) seedPool(campaignID int64, codes ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pool[campaignID] = append(f.pool[campaignID], codes...)
}

func (f *fakeDiscountStore) poolCount(campaignID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pool[campaignID])
}

func (f *fakeDiscountStore) allCodes(campaignID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pool[campaignID]...)
}

func (f *fakeDiscountStore) eventSent(code string, campaignID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fetched := range f.ledger {
		if fetched.Code == code && fetched.CampaignID == campaignID {
			return fetched.IsFetchEventSent
		}
	}
	return false
}

func (f *fakeDiscountStore) FindFetchedCode(_ context.Context, campaignID, userID int64) (*model.FetchedDiscountCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fetched, ok := f.ledger[pairKey{campaignID, userID}]
	if !ok {
		return nil, apperr.ErrCodeNotAvailable
	}
	return &fetched, nil
}

func (f *fakeDiscountStore) AllocateCode(_ context.Context, campaignID, userID int64) (*model.FetchedDiscountCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := pairKey{campaignID, userID}
	if _, exists := f.ledger[key]; exists {
		return nil, apperr.ErrCodeAlreadyAllocated
	}

	codes := f.pool[campaignID]
	if len(codes) == 0 {
		return nil, apperr.ErrCodeNotAvailable
	}
	code := codes[0]
	f.pool[campaignID] = codes[1:]

	fetched := model.FetchedDiscountCode{
		Code:       code,
		CampaignID: campaignID,
		UserID:     userID,
	}
	f.ledger[key] = fetched
	return &fetched, nil
}

func (f *fakeDiscountStore) InsertAvailableCodes(_ context.Context, campaignID int64, codes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.insertCalls = append(f.insertCalls, len(codes))
	if f.failInsertAt > 0 && len(f.insertCalls) == f.failInsertAt {
		return fmt.Errorf("injected insert failure")
	}
	f.pool[campaignID] = append(f.pool[campaignID], codes...)
	return nil
}

func (f *fakeDiscountStore) MarkFetchEventSent(_ context.Context, code string, campaignID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for key, fetched := range f.ledger {
		if fetched.Code == code && fetched.CampaignID == campaignID {
			fetched.IsFetchEventSent = true
			f.ledger[key] = fetched
			return nil
		}
	}
	return fmt.Errorf("fetched discount code %s not found", code)
}

// gatedDiscountStore delays every insert until released, so tests can
// observe the pool before a background job has committed anything.
type gatedDiscountStore struct {
	*fakeDiscountStore
	release chan struct{}
}

func newGatedDiscountStore() *gatedDiscountStore {
	return &gatedDiscountStore{
		fakeDiscountStore: newFakeDiscountStore(),
		release:           make(chan struct{}),
	}
}

func (g *gatedDiscountStore) InsertAvailableCodes(ctx context.Context, campaignID int64, codes []string) error {
	<-g.release
	return g.fakeDiscountStore.InsertAvailableCodes(ctx, campaignID, codes)
}

type fakeCampaignStore struct {
	campaigns map[int64]*model.Campaign
}

func newFakeCampaignStore(campaigns ...*model.Campaign) *fakeCampaignStore {
	store := &fakeCampaignStore{campaigns: make(map[int64]*model.Campaign)}
	for _, campaign := range campaigns {
		store.campaigns[campaign.ID] = campaign
	}
	return store
}

func (f *fakeCampaignStore) FindCampaign(_ context.Context, id int64) (*model.Campaign, error) {
	campaign, ok := f.campaigns[id]
	if !ok {
		return nil, apperr.ErrCampaignNotFound
	}
	return campaign, nil
}

// fakeNotifier records notified allocations on a channel so tests can
// wait for the detached goroutine.
type fakeNotifier struct {
	notified chan *model.FetchedDiscountCode
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{notified: make(chan *model.FetchedDiscountCode, 64)}
}

func (f *fakeNotifier) Notify(_ context.Context, fetched *model.FetchedDiscountCode) {
	f.notified <- fetched
}
