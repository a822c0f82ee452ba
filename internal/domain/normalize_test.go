package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"deduplicates", []string{"fatigue", "Fatigue", "fatigue"}, []string{"fatigue"}},
		{"trims and lowercases", []string{" Stress ", "SLEEP"}, []string{"stress", "sleep"}},
		{"drops empty", []string{"", "  ", "hydration"}, []string{"hydration"}},
		{"preserves order", []string{"b", "a", "b"}, []string{"b", "a"}},
		{"nil input", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeTags(tt.in))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "demo@pulsepal.app", NormalizeEmail("  Demo@PulsePal.app "))
}
