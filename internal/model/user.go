package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a user document. Only the presence fields are touched by the
// realtime layer; the rest belong to the REST surface.
type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	ProfileImage string             `json:"profileImage,omitempty" bson:"profile_image,omitempty"`
	OnlineStatus bool               `json:"onlineStatus" bson:"online_status"`
	LastSeen     *time.Time         `json:"lastSeen,omitempty" bson:"last_seen,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"created_at"`
}
