package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event is a structured wellness fact extracted from a message.
// Created only as a byproduct of extraction; never mutated afterwards.
// SourceMessageID is a weak back-reference, not ownership: many events
// may point at one message.
type Event struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	SourceMessageID uuid.UUID
	Type            EventType
	Title           string
	Details         string
	Severity        Severity
	TimeRef         string
	Tags            []string
	CreatedAt       time.Time
}

// Feedback records whether a reply or report was helpful.
// Exactly one of MessageID / DailyReportID is set.
type Feedback struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	MessageID     *uuid.UUID
	DailyReportID *uuid.UUID
	Helpful       bool
	Notes         string
	CreatedAt     time.Time
}
