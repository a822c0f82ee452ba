// Package provider defines the closed set of operations, payloads, and
// tagged result variants exchanged with extraction/generation providers,
// plus the schemas that validate provider output before it is accepted.
package provider

// Operation names a capability the gateway can invoke on a provider.
type Operation string

const (
	OpExtract      Operation = "extract"
	OpRespond      Operation = "respond"
	OpDailyAnalyze Operation = "daily_analyze"
)

func (o Operation) String() string { return string(o) }

func (o Operation) IsValid() bool {
	switch o {
	case OpExtract, OpRespond, OpDailyAnalyze:
		return true
	}
	return false
}
