package job

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/AdityaDas31/Whisp-Backend/internal/model"
	"github.com/AdityaDas31/Whisp-Backend/internal/repo"
	"github.com/AdityaDas31/Whisp-Backend/internal/storage"
)

const defaultSweepSchedule = "*/10 * * * *"

// sweepConcurrency bounds how many stories are cleaned in parallel per run.
const sweepConcurrency = 8

// StorySweeper deletes stories whose expiry has passed: blob object
// first, then the record. Deleting in that order can leave a record
// pointing at a gone blob for one cycle, but never an orphaned blob
// with no record naming it.
type StorySweeper struct {
	stories  repo.StoryRepository
	blobs    storage.BlobStore
	schedule string
	logger   *zap.Logger

	cron *cron.Cron
}

func NewStorySweeper(stories repo.StoryRepository, blobs storage.BlobStore, schedule string, logger *zap.Logger) *StorySweeper {
	if schedule == "" {
		schedule = defaultSweepSchedule
	}
	return &StorySweeper{
		stories:  stories,
		blobs:    blobs,
		schedule: schedule,
		logger:   logger,
	}
}

// Start schedules the sweep and runs it once immediately so a restart
// never extends a story's lifetime by a full interval.
func (s *StorySweeper) Start(ctx context.Context) error {
	s.cron = cron.New()

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.Sweep(ctx)
	}); err != nil {
		return err
	}

	s.cron.Start()
	go s.Sweep(ctx)

	s.logger.Info("story sweep scheduled", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts the scheduler and waits for an in-flight run to finish.
func (s *StorySweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// Sweep runs one pass. Failures are per-story: a story whose blob or
// record could not be deleted stays behind for the next cycle.
func (s *StorySweeper) Sweep(ctx context.Context) {
	expired, err := s.stories.FindExpired(ctx, time.Now())
	if err != nil {
		s.logger.Error("story sweep query failed", zap.Error(err))
		return
	}
	if len(expired) == 0 {
		return
	}

	var (
		wg      sync.WaitGroup
		sem     = make(chan struct{}, sweepConcurrency)
		swept   int
		sweptMu sync.Mutex
	)

	for i := range expired {
		story := expired[i]

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			if s.sweepOne(ctx, &story) {
				sweptMu.Lock()
				swept++
				sweptMu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.logger.Info("story sweep completed",
		zap.Int("expired", len(expired)),
		zap.Int("swept", swept),
	)
}

func (s *StorySweeper) sweepOne(ctx context.Context, story *model.Story) bool {
	storyID := story.ID.Hex()

	if story.HasBlob() {
		if err := s.blobs.Delete(ctx, story.Media.PublicID); err != nil {
			s.logger.Warn("failed to delete story blob, record kept for retry",
				zap.String("story_id", storyID),
				zap.String("public_id", story.Media.PublicID),
				zap.Error(err),
			)
			return false
		}
	}

	if err := s.stories.Delete(ctx, storyID); err != nil {
		s.logger.Warn("failed to delete expired story record",
			zap.String("story_id", storyID), zap.Error(err))
		return false
	}
	return true
}
