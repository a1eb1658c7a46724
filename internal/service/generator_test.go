package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kkkkikiki/discount/internal/apperr"
	"github.com/kkkkikiki/discount/internal/config"
)

func newTestGenerator(codes *fakeDiscountStore, campaigns *fakeCampaignStore, commitBatch int) *Generator {
	return NewGenerator(campaigns, codes, config.GeneratorConfig{
		CommitBatch:       commitBatch,
		MaxConcurrentJobs: 2,
	}, zap.NewNop())
}

func TestStartReturnsJobID(t *testing.T) {
	codes := newFakeDiscountStore()
	generator := newTestGenerator(codes, newFakeCampaignStore(testCampaign()), 100)

	jobID, err := generator.Start(context.Background(), testCampaignID, 2000)

	require.NoError(t, err)
	assert.NotEmpty(t, jobID)

	require.NoError(t, generator.Shutdown(context.Background()))
	assert.Equal(t, 2000, codes.poolCount(testCampaignID))
}

func TestStartDoesNotBlockOnGeneration(t *testing.T) {
	codes := newGatedDiscountStore()
	generator := NewGenerator(newFakeCampaignStore(testCampaign()), codes, config.GeneratorConfig{
		CommitBatch:       100,
		MaxConcurrentJobs: 2,
	}, zap.NewNop())

	// With every insert gated shut, Start can only return if the job
	// runs off the caller's path.
	jobID, err := generator.Start(context.Background(), testCampaignID, 2000)
	require.NoError(t, err)
	assert.NotEmpty(t, jobID)
	assert.Equal(t, 0, codes.poolCount(testCampaignID))

	close(codes.release)
	require.NoError(t, generator.Shutdown(context.Background()))
	assert.Equal(t, 2000, codes.poolCount(testCampaignID))
}

func TestStartBatchesCommits(t *testing.T) {
	codes := newFakeDiscountStore()
	generator := newTestGenerator(codes, newFakeCampaignStore(testCampaign()), 100)

	_, err := generator.Start(context.Background(), testCampaignID, 250)
	require.NoError(t, err)
	require.NoError(t, generator.Shutdown(context.Background()))

	// 250 codes with a commit batch of 100: two full batches plus the
	// remainder in a final one.
	assert.Equal(t, []int{100, 100, 50}, codes.insertCalls)
	assert.Equal(t, 250, codes.poolCount(testCampaignID))
}

func TestGeneratedCodesUnique(t *testing.T) {
	codes := newFakeDiscountStore()
	generator := newTestGenerator(codes, newFakeCampaignStore(testCampaign()), 500)

	_, err := generator.Start(context.Background(), testCampaignID, 2000)
	require.NoError(t, err)
	require.NoError(t, generator.Shutdown(context.Background()))

	seen := make(map[string]struct{})
	for _, code := range codes.allCodes(testCampaignID) {
		_, dup := seen[code]
		require.False(t, dup, "duplicate generated code %q", code)
		seen[code] = struct{}{}
	}
}

func TestGenerationConcurrentWithAllocations(t *testing.T) {
	const (
		seeded    = 50
		generated = 500
		callers   = 80
	)

	codes := newFakeDiscountStore()
	for i := 0; i < seeded; i++ {
		codes.seedPool(testCampaignID, fmt.Sprintf("SEED%06d", i))
	}
	campaigns := newFakeCampaignStore(testCampaign())
	allocator := newTestAllocator(codes, campaigns, nil)
	generator := newTestGenerator(codes, campaigns, 100)

	_, err := generator.Start(context.Background(), testCampaignID, generated)
	require.NoError(t, err)

	// Drain the pool while the generation job is appending to it.
	allocated := make(chan string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			fetched, _, err := allocator.Fetch(context.Background(), testCampaignID, userID)
			if err != nil {
				// The pool may be momentarily empty between batches.
				assert.ErrorIs(t, err, apperr.ErrCodeNotAvailable)
				return
			}
			allocated <- fetched.Code
		}(int64(7000 + i))
	}
	wg.Wait()
	require.NoError(t, generator.Shutdown(context.Background()))
	close(allocated)

	// Every code ever created is either allocated or still pooled,
	// exactly once.
	seen := make(map[string]struct{})
	allocatedCount := 0
	for code := range allocated {
		_, dup := seen[code]
		require.False(t, dup, "code %q handed out twice", code)
		seen[code] = struct{}{}
		allocatedCount++
	}
	for _, code := range codes.allCodes(testCampaignID) {
		_, dup := seen[code]
		require.False(t, dup, "code %q both allocated and pooled", code)
		seen[code] = struct{}{}
	}
	assert.Equal(t, seeded+generated, len(seen))
	assert.Equal(t, seeded+generated, allocatedCount+codes.poolCount(testCampaignID))
}

func TestStartUnknownCampaign(t *testing.T) {
	generator := newTestGenerator(newFakeDiscountStore(), newFakeCampaignStore(), 100)

	_, err := generator.Start(context.Background(), 42, 10)

	assert.ErrorIs(t, err, apperr.ErrCampaignNotFound)
}

func TestStartNonPositiveCount(t *testing.T) {
	generator := newTestGenerator(newFakeDiscountStore(), newFakeCampaignStore(testCampaign()), 100)

	for _, count := range []int{0, -5} {
		_, err := generator.Start(context.Background(), testCampaignID, count)
		appErr, ok := apperr.AsError(err)
		require.True(t, ok, "count %d must fail validation", count)
		assert.Equal(t, apperr.ErrValidation.Code, appErr.Code)
	}
}

func TestFailedBatchKeepsPartialProgress(t *testing.T) {
	codes := newFakeDiscountStore()
	codes.failInsertAt = 2
	generator := newTestGenerator(codes, newFakeCampaignStore(testCampaign()), 100)

	_, err := generator.Start(context.Background(), testCampaignID, 300)
	require.NoError(t, err)
	require.NoError(t, generator.Shutdown(context.Background()))

	// The first committed batch stays even though the job failed.
	assert.Equal(t, 100, codes.poolCount(testCampaignID))
	assert.Len(t, codes.insertCalls, 2)
}
