package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a chat message document. Delivery state is tracked with
// per-recipient sets: a recipient id lives in exactly one of Receivers
// (pending), DeliveredTo, or SeenBy at any instant and only ever moves
// forward through them.
type Message struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SenderID string             `json:"senderId" bson:"sender_id"`
	ChatID   primitive.ObjectID `json:"chatId" bson:"chat_id"`
	Type     string             `json:"type" bson:"type"`

	Content  string           `json:"content,omitempty" bson:"content,omitempty"`
	Media    *MediaPayload    `json:"media,omitempty" bson:"media,omitempty"`
	Location *LocationPayload `json:"location,omitempty" bson:"location,omitempty"`
	Contact  *ContactPayload  `json:"contact,omitempty" bson:"contact,omitempty"`
	Poll     *PollPayload     `json:"poll,omitempty" bson:"poll,omitempty"`

	Receivers   []string `json:"receivers" bson:"receivers"`
	DeliveredTo []string `json:"deliveredTo" bson:"delivered_to"`
	SeenBy      []string `json:"seenBy" bson:"seen_by"`

	// Dispatched is set once the recipient set has been resolved, so a
	// re-sent sendMessage never resets delivery state.
	Dispatched      bool `json:"dispatched" bson:"dispatched"`
	PayloadStripped bool `json:"payloadStripped" bson:"payload_stripped"`

	CreatedAt time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" bson:"updated_at,omitempty"`
}

// MediaPayload points at a blob-storage object.
type MediaPayload struct {
	URL      string `json:"url" bson:"url"`
	PublicID string `json:"publicId" bson:"public_id"`
	Format   string `json:"format" bson:"format"` // image / video / audio / document
}

type LocationPayload struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
	Link      string  `json:"link,omitempty" bson:"link,omitempty"`
}

type ContactPayload struct {
	Name        string `json:"name" bson:"name"`
	PhoneNumber string `json:"phoneNumber" bson:"phone_number"`
	Email       string `json:"email,omitempty" bson:"email,omitempty"`
}

type PollPayload struct {
	Topic   string     `json:"topic" bson:"topic"`
	Options []string   `json:"options" bson:"options"`
	Votes   []PollVote `json:"votes" bson:"votes"`
}

type PollVote struct {
	UserID      string `json:"userId" bson:"user_id"`
	OptionIndex int    `json:"optionIndex" bson:"option_index"`
}

// IsRecipient reports whether the user is owed this message in any state.
func (m *Message) IsRecipient(userID string) bool {
	return contains(m.Receivers, userID) ||
		contains(m.DeliveredTo, userID) ||
		contains(m.SeenBy, userID)
}

// FullySeen reports whether every recipient has seen the message.
func (m *Message) FullySeen() bool {
	return len(m.Receivers) == 0 && len(m.DeliveredTo) == 0
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
