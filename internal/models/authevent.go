package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthEvent is a best-effort audit record of what happened at the auth
// boundary. Stored in Mongo, never on the hot path.
type AuthEvent struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID string             `bson:"user_id" json:"user_id"`
	Email  string             `bson:"email,omitempty" json:"email,omitempty"`

	Kind      string    `bson:"kind" json:"kind"` // signed_in|signed_up|signed_out|token_refreshed|reset_requested
	RequestID string    `bson:"request_id,omitempty" json:"request_id,omitempty"`
	IP        string    `bson:"ip,omitempty" json:"ip,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

const (
	AuthEventSignedIn       = "signed_in"
	AuthEventSignedUp       = "signed_up"
	AuthEventSignedOut      = "signed_out"
	AuthEventTokenRefreshed = "token_refreshed"
	AuthEventResetRequested = "reset_requested"
)
