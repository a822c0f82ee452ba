package domain

import (
	"time"

	"github.com/google/uuid"
)

// PipelineRun is the audit record of one provider gateway invocation.
// Write-once; used for observability, never for control flow.
type PipelineRun struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Kind           RunKind
	Operation      string
	ProviderUsed   string
	LatencyMS      int64
	Status         RunStatus
	FallbackReason string
	CreatedAt      time.Time
}
