package model

import "time"

// AssetLock is an advisory lock keyed by asset, taken for the duration of a
// check-then-reserve sequence. The unique _id insert is what makes acquisition
// atomic; ExpiresAt backs a TTL index so a crashed holder cannot leak the lock.
type AssetLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
