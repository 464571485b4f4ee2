package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Story is ephemeral content with a hard expiry. The sweep job removes
// the blob object and then the record once ExpiresAt has passed.
type Story struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"user_id"`
	Media     StoryMedia         `json:"media" bson:"media"`
	Caption   string             `json:"caption,omitempty" bson:"caption,omitempty"`
	Viewers   []StoryView        `json:"viewers" bson:"viewers"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
	ExpiresAt time.Time          `json:"expiresAt" bson:"expires_at"`
}

// StoryMedia is empty (Format "text") for text-only statuses; such
// stories have no blob object to delete.
type StoryMedia struct {
	URL      string `json:"url,omitempty" bson:"url,omitempty"`
	PublicID string `json:"publicId,omitempty" bson:"public_id,omitempty"`
	Format   string `json:"format" bson:"format"` // image / video / audio / document / text
}

type StoryView struct {
	UserID   string    `json:"userId" bson:"user_id"`
	ViewedAt time.Time `json:"viewedAt" bson:"viewed_at"`
}

// HasBlob reports whether the story owns a blob-storage object.
func (s *Story) HasBlob() bool {
	return s.Media.PublicID != "" && s.Media.Format != "text"
}
