package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kkkkikiki/discount/internal/apperr"
	"github.com/kkkkikiki/discount/internal/codegen"
	"github.com/kkkkikiki/discount/internal/config"
	"github.com/kkkkikiki/discount/internal/metrics"
)

// Generator populates campaign code pools as background jobs. Start
// returns a job id immediately; the work runs on its own goroutine,
// with overall concurrency bounded by a semaphore so a burst of admin
// requests cannot exhaust the database pool.
type Generator struct {
	campaigns   CampaignStore
	codes       DiscountStore
	commitBatch int
	logger      *zap.Logger

	sem chan struct{}
	wg  sync.WaitGroup
}

// NewGenerator creates a new Generator instance
func NewGenerator(campaigns CampaignStore, codes DiscountStore, cfg config.GeneratorConfig, logger *zap.Logger) *Generator {
	if cfg.CommitBatch <= 0 {
		cfg.CommitBatch = 100000
	}
	if cfg.MaxConcurrentJobs <= 0 {
		cfg.MaxConcurrentJobs = 1
	}
	return &Generator{
		campaigns:   campaigns,
		codes:       codes,
		commitBatch: cfg.CommitBatch,
		logger:      logger,
		sem:         make(chan struct{}, cfg.MaxConcurrentJobs),
	}
}

// Start validates the request and submits a generation job for count
// new codes. Returns the job id without waiting for the job to run.
func (g *Generator) Start(ctx context.Context, campaignID int64, count int) (string, error) {
	if count <= 0 {
		return "", apperr.Validation("discount_codes_count must be positive, got %d", count)
	}

	if _, err := g.campaigns.FindCampaign(ctx, campaignID); err != nil {
		return "", err
	}

	jobID := uuid.NewString()
	g.wg.Add(1)
	go g.run(jobID, campaignID, count)

	return jobID, nil
}

// run executes one generation job. Each commit batch is generated and
// inserted in its own transaction; a failed batch ends the job but
// already-committed batches stay, so partial progress is kept.
func (g *Generator) run(jobID string, campaignID int64, count int) {
	defer g.wg.Done()

	g.sem <- struct{}{}
	defer func() { <-g.sem }()

	metrics.GenerationJobsRunning.Inc()
	defer metrics.GenerationJobsRunning.Dec()

	start := time.Now()
	log := g.logger.With(
		zap.String("job_id", jobID),
		zap.Int64("campaign_id", campaignID),
		zap.Int("discount_codes_count", count))
	log.Info("generate_discount_codes_job", zap.Bool("started", true))

	// The job outlives the admin request on purpose.
	ctx := context.Background()

	inserted := 0
	for inserted < count {
		batch := g.commitBatch
		if remaining := count - inserted; remaining < batch {
			batch = remaining
		}

		if err := g.codes.InsertAvailableCodes(ctx, campaignID, codegen.GenerateBatch(batch)); err != nil {
			log.Error("generate_discount_codes_job",
				zap.Bool("failed", true),
				zap.Int("inserted", inserted),
				zap.Error(err))
			return
		}
		inserted += batch
		metrics.GeneratedCodes.WithLabelValues(campaignIDLabel(campaignID)).Add(float64(batch))
	}

	log.Info("generate_discount_codes_job",
		zap.Bool("finished", true),
		zap.Float64("finished_in_seconds", time.Since(start).Seconds()))
}

func campaignIDLabel(campaignID int64) string {
	return strconv.FormatInt(campaignID, 10)
}

// Shutdown waits for in-flight generation jobs, giving up when ctx ends.
func (g *Generator) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
