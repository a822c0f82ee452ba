package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that owns one Memory profile and an ordered history
// of messages, events, and daily reports.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Timezone     string
	CreatedAt    time.Time
}
