package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
)

// FriendRequest links a sender and recipient by their public IDs. PairKey is
// the two IDs sorted and joined, backed by a unique index so at most one
// request can exist per unordered pair regardless of direction.
type FriendRequest struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Sender    string             `json:"sender" bson:"sender"`
	Recipient string             `json:"recipient" bson:"recipient"`
	PairKey   string             `json:"-" bson:"pair_key"`
	Status    string             `json:"status" bson:"status"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}
