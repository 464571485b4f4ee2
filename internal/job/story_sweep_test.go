package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/AdityaDas31/Whisp-Backend/internal/model"
	"github.com/AdityaDas31/Whisp-Backend/internal/storage"
)

type fakeStoryRepo struct {
	mu      sync.Mutex
	expired []model.Story
	deleted []string
	findErr error
	delErr  map[string]error
}

func (f *fakeStoryRepo) FindExpired(_ context.Context, _ time.Time) ([]model.Story, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	return append([]model.Story(nil), f.expired...), nil
}

func (f *fakeStoryRepo) Delete(_ context.Context, storyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.delErr[storyID]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, storyID)
	return nil
}

func (f *fakeStoryRepo) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func mediaStory(publicID string) model.Story {
	return model.Story{
		ID:        primitive.NewObjectID(),
		UserID:    "alice",
		Media:     model.StoryMedia{URL: "https://cdn/" + publicID, PublicID: publicID, Format: "image"},
		ExpiresAt: time.Now().Add(-time.Hour),
	}
}

func textStory() model.Story {
	return model.Story{
		ID:        primitive.NewObjectID(),
		UserID:    "bob",
		Media:     model.StoryMedia{Format: "text"},
		Caption:   "status text",
		ExpiresAt: time.Now().Add(-time.Hour),
	}
}

func TestSweepDeletesBlobThenRecord(t *testing.T) {
	withBlob := mediaStory("stories/s1")
	textOnly := textStory()

	repo := &fakeStoryRepo{expired: []model.Story{withBlob, textOnly}}
	blobs := storage.NewMockBlobStore()

	s := NewStorySweeper(repo, blobs, "", zap.NewNop())
	s.Sweep(context.Background())

	assert.Equal(t, []string{"stories/s1"}, blobs.DeletedKeys(),
		"text-only stories have no blob to delete")
	assert.ElementsMatch(t, []string{withBlob.ID.Hex(), textOnly.ID.Hex()}, repo.deletedIDs())
}

func TestSweepKeepsRecordWhenBlobDeleteFails(t *testing.T) {
	broken := mediaStory("stories/broken")
	healthy := mediaStory("stories/healthy")

	repo := &fakeStoryRepo{expired: []model.Story{broken, healthy}}
	blobs := storage.NewMockBlobStore()
	blobs.DeleteFunc = func(_ context.Context, key string) error {
		if key == "stories/broken" {
			return errors.New("bucket unavailable")
		}
		return nil
	}

	s := NewStorySweeper(repo, blobs, "", zap.NewNop())
	s.Sweep(context.Background())

	assert.Equal(t, []string{healthy.ID.Hex()}, repo.deletedIDs(),
		"record stays behind for the next cycle when its blob survives")
}

func TestSweepToleratesRecordDeleteFailure(t *testing.T) {
	first := textStory()
	second := textStory()

	repo := &fakeStoryRepo{
		expired: []model.Story{first, second},
		delErr:  map[string]error{first.ID.Hex(): errors.New("write conflict")},
	}

	s := NewStorySweeper(repo, storage.NewMockBlobStore(), "", zap.NewNop())
	s.Sweep(context.Background())

	assert.Equal(t, []string{second.ID.Hex()}, repo.deletedIDs())
}

func TestSweepQueryFailureIsANoOp(t *testing.T) {
	repo := &fakeStoryRepo{findErr: errors.New("server selection timeout")}
	blobs := storage.NewMockBlobStore()

	s := NewStorySweeper(repo, blobs, "", zap.NewNop())
	s.Sweep(context.Background())

	assert.Empty(t, blobs.DeletedKeys())
	assert.Empty(t, repo.deletedIDs())
}

func TestSweeperStartRunsImmediately(t *testing.T) {
	story := textStory()
	repo := &fakeStoryRepo{expired: []model.Story{story}}

	s := NewStorySweeper(repo, storage.NewMockBlobStore(), "@every 1h", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	require.Eventually(t, func() bool {
		return len(repo.deletedIDs()) == 1
	}, time.Second, 10*time.Millisecond, "startup sweep should not wait for the first tick")
}
