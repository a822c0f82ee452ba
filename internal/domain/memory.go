package domain

import (
	"time"

	"github.com/google/uuid"
)

// Memory is the single mutable profile document per user. It is never
// wholesale-replaced, only patched: set-valued fields grow by union,
// scalar and object fields are shallow-overwritten (nested maps merge
// recursively, matching the patch-merge invariant).
type Memory struct {
	UserID            uuid.UUID
	Preferences       map[string]any
	RecurringPatterns map[string]any
	KnownTriggers     []string
	HelpfulActions    []string
	UpdatedAt         time.Time
}

// MemoryPatch is a partial update produced by extraction or daily analysis.
// Zero-value fields are no-ops.
type MemoryPatch struct {
	Preferences       map[string]any `json:"preferences,omitempty"`
	RecurringPatterns map[string]any `json:"recurring_patterns,omitempty"`
	KnownTriggers     []string       `json:"known_triggers,omitempty"`
	HelpfulActions    []string       `json:"helpful_actions,omitempty"`
}

// IsZero reports whether the patch would change nothing.
func (p MemoryPatch) IsZero() bool {
	return len(p.Preferences) == 0 &&
		len(p.RecurringPatterns) == 0 &&
		len(p.KnownTriggers) == 0 &&
		len(p.HelpfulActions) == 0
}

// NewMemory returns the starter profile written at signup.
func NewMemory(userID uuid.UUID) Memory {
	return Memory{
		UserID:            userID,
		Preferences:       map[string]any{},
		RecurringPatterns: map[string]any{},
		KnownTriggers:     []string{},
		HelpfulActions:    []string{},
	}
}

// Apply merges a patch into the memory in place.
//
// KnownTriggers and HelpfulActions are additive sets: union, preserving
// first-seen order, so applying P1 then P2 yields the same set as applying
// their union in one step. Preferences and RecurringPatterns merge key by
// key: nested maps recurse, lists union, scalars overwrite.
func (m *Memory) Apply(patch MemoryPatch) {
	m.KnownTriggers = unionStrings(m.KnownTriggers, patch.KnownTriggers)
	m.HelpfulActions = unionStrings(m.HelpfulActions, patch.HelpfulActions)
	m.Preferences = mergeMap(m.Preferences, patch.Preferences)
	m.RecurringPatterns = mergeMap(m.RecurringPatterns, patch.RecurringPatterns)
}

// unionStrings appends the values of add that base does not already
// contain, keeping base's order intact.
func unionStrings(base, add []string) []string {
	if len(add) == 0 {
		if base == nil {
			return []string{}
		}
		return base
	}
	seen := make(map[string]struct{}, len(base))
	out := make([]string, 0, len(base)+len(add))
	for _, v := range base {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, v := range add {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// mergeMap merges patch into base without mutating either argument.
// Map values merge recursively, list values union (deduplicated by their
// string form for scalars), anything else overwrites.
func mergeMap(base, patch map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range patch {
		existing, ok := merged[k]
		if !ok {
			merged[k] = v
			continue
		}
		switch pv := v.(type) {
		case map[string]any:
			if ev, ok := existing.(map[string]any); ok {
				merged[k] = mergeMap(ev, pv)
				continue
			}
		case []any:
			if ev, ok := existing.([]any); ok {
				merged[k] = unionAny(ev, pv)
				continue
			}
		}
		merged[k] = v
	}
	return merged
}

// unionAny unions two loosely typed lists, deduplicating comparable
// elements. Non-comparable elements (nested maps or lists) are appended
// as-is.
func unionAny(base, add []any) []any {
	out := make([]any, 0, len(base)+len(add))
	seen := make(map[any]struct{}, len(base))
	appendOne := func(v any) {
		switch v.(type) {
		case map[string]any, []any:
			out = append(out, v)
		default:
			if _, ok := seen[v]; ok {
				return
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	for _, v := range base {
		appendOne(v)
	}
	for _, v := range add {
		appendOne(v)
	}
	return out
}
