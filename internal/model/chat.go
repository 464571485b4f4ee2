package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat is a conversation document. Users holds the member ids, sender
// included; the delivery recipient set for a message is Users minus the
// message sender.
type Chat struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	ChatName    string              `json:"chatName" bson:"chat_name"`
	IsGroupChat bool                `json:"isGroupChat" bson:"is_group_chat"`
	Users       []string            `json:"users" bson:"users"`
	GroupAdmin  string              `json:"groupAdmin,omitempty" bson:"group_admin,omitempty"`
	LatestMsgID *primitive.ObjectID `json:"latestMessage,omitempty" bson:"latest_message,omitempty"`
	CreatedAt   time.Time           `json:"createdAt" bson:"created_at"`
	UpdatedAt   *time.Time          `json:"updatedAt,omitempty" bson:"updated_at,omitempty"`
}

// RecipientsOf returns the member set minus the sender.
func (c *Chat) RecipientsOf(senderID string) []string {
	recipients := make([]string, 0, len(c.Users))
	for _, id := range c.Users {
		if id != senderID {
			recipients = append(recipients, id)
		}
	}
	return recipients
}

// RecipientCount is the number of users owed a copy of any message in
// this chat, i.e. members minus one sender.
func (c *Chat) RecipientCount() int {
	if len(c.Users) == 0 {
		return 0
	}
	return len(c.Users) - 1
}

// HasMember reports whether userID belongs to this chat.
func (c *Chat) HasMember(userID string) bool {
	return contains(c.Users, userID)
}
