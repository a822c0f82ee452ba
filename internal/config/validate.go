package config

import (
	"fmt"
	"slices"
	"strings"
)

var knownProviders = []string{"airia", "gemini", "anthropic"}

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31 (got %d)", c.Auth.BcryptCost)
	}

	order, err := ParseProviderOrder(c.Providers.OrderRaw)
	if err != nil {
		return fmt.Errorf("providers.order: %w", err)
	}
	c.Providers.Order = order

	if c.Pipeline.ProviderTimeout <= 0 {
		return fmt.Errorf("pipeline.provider_timeout must be > 0 (got %v)", c.Pipeline.ProviderTimeout)
	}
	if c.Pipeline.RecentMessages <= 0 {
		return fmt.Errorf("pipeline.recent_messages must be > 0 (got %d)", c.Pipeline.RecentMessages)
	}
	if c.Pipeline.RecentEvents <= 0 {
		return fmt.Errorf("pipeline.recent_events must be > 0 (got %d)", c.Pipeline.RecentEvents)
	}

	if c.Daily.WindowDays <= 0 {
		return fmt.Errorf("daily.window_days must be > 0 (got %d)", c.Daily.WindowDays)
	}
	if c.Daily.MaxEvents <= 0 {
		return fmt.Errorf("daily.max_events must be > 0 (got %d)", c.Daily.MaxEvents)
	}
	if c.Daily.SuppressWithin < 0 {
		return fmt.Errorf("daily.suppress_within must be >= 0 (got %v)", c.Daily.SuppressWithin)
	}

	return nil
}

// ParseProviderOrder parses a comma-separated provider chain. Names are
// lowercased; duplicates and unknown providers are rejected. An empty
// string returns a nil slice, which means fallback-only operation.
func ParseProviderOrder(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	order := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if !slices.Contains(knownProviders, p) {
			return nil, fmt.Errorf("unknown provider %q", p)
		}
		if slices.Contains(order, p) {
			return nil, fmt.Errorf("provider %q listed twice", p)
		}
		order = append(order, p)
	}

	return order, nil
}
