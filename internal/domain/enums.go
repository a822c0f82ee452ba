package domain

// MessageRole identifies who authored a message in the conversation.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

func (r MessageRole) String() string { return string(r) }

func (r MessageRole) IsValid() bool {
	switch r {
	case MessageRoleUser, MessageRoleAssistant:
		return true
	}
	return false
}

// MessageSource identifies the input channel a message arrived through.
type MessageSource string

const (
	MessageSourceText  MessageSource = "text"
	MessageSourceVoice MessageSource = "voice"
)

func (s MessageSource) String() string { return string(s) }

func (s MessageSource) IsValid() bool {
	switch s {
	case MessageSourceText, MessageSourceVoice:
		return true
	}
	return false
}

// EventType categorizes a structured wellness event extracted from a message.
type EventType string

const (
	EventTypeSymptom    EventType = "symptom"
	EventTypeMood       EventType = "mood"
	EventTypeSleep      EventType = "sleep"
	EventTypeMedication EventType = "medication"
	EventTypeLifestyle  EventType = "lifestyle"
	EventTypeStress     EventType = "stress"
	EventTypeDiet       EventType = "diet"
	EventTypeIncident   EventType = "incident"
	EventTypeOther      EventType = "other"
)

func (t EventType) String() string { return string(t) }

func (t EventType) IsValid() bool {
	switch t {
	case EventTypeSymptom, EventTypeMood, EventTypeSleep, EventTypeMedication,
		EventTypeLifestyle, EventTypeStress, EventTypeDiet, EventTypeIncident,
		EventTypeOther:
		return true
	}
	return false
}

// Severity is the coarse intensity attached to an extracted event.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) String() string { return string(s) }

func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// RiskLevel is the triage signal attached to a response or report.
// It is never a diagnosis.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

func (l RiskLevel) String() string { return string(l) }

func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh:
		return true
	}
	return false
}

// FlagConfidence grades how confident the extractor is in a risk flag.
type FlagConfidence string

const (
	FlagConfidenceLow    FlagConfidence = "low"
	FlagConfidenceMedium FlagConfidence = "medium"
	FlagConfidenceHigh   FlagConfidence = "high"
)

func (c FlagConfidence) String() string { return string(c) }

func (c FlagConfidence) IsValid() bool {
	switch c {
	case FlagConfidenceLow, FlagConfidenceMedium, FlagConfidenceHigh:
		return true
	}
	return false
}

// RunKind identifies which pipeline produced a PipelineRun record.
type RunKind string

const (
	RunKindMessage RunKind = "message"
	RunKindDaily   RunKind = "daily"
)

func (k RunKind) String() string { return string(k) }

func (k RunKind) IsValid() bool {
	switch k {
	case RunKindMessage, RunKindDaily:
		return true
	}
	return false
}

// RunStatus is the outcome of one provider gateway invocation.
type RunStatus string

const (
	RunStatusOK       RunStatus = "ok"
	RunStatusFallback RunStatus = "fallback"
	RunStatusError    RunStatus = "error"
)

func (s RunStatus) String() string { return string(s) }

func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusOK, RunStatusFallback, RunStatusError:
		return true
	}
	return false
}
