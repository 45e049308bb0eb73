package model

import (
	"fmt"
	"time"
)

// BookingLock is an advisory lock document. Only one commit per business day
// may hold it; a TTL index on expires_at reaps locks left by crashed writers.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// BusinessDayLockID names the lock guarding commits for businessID on day.
func BusinessDayLockID(businessID string, day time.Time) string {
	return fmt.Sprintf("booking_lock_%s_%s", businessID, day.Format("2006-01-02"))
}
