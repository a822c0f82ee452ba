package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is one turn of the conversation. Immutable once written;
// creation time defines conversation order.
type Message struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Role      MessageRole
	Content   string
	Source    MessageSource
	CreatedAt time.Time
}
