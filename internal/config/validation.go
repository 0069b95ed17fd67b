package config

import (
	"fmt"

	"github.com/law-makers/bizcrawl/pkg/models"
)

func validate(c *Config) error {
	if c.NavTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be > 0")
	}
	if c.WaitTimeout <= 0 {
		return fmt.Errorf("wait timeout must be > 0")
	}
	if c.MaxPages < 1 || c.MaxPages > MaxPagesLimit {
		return fmt.Errorf("max pages must be between 1 and %d", MaxPagesLimit)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be > 0")
	}
	if c.LinkSelector == "" || c.ResultsSelector == "" || c.ProfileSelector == "" {
		return fmt.Errorf("selectors must not be empty")
	}
	if _, ok := models.ParseExtractionMode(c.Mode); !ok {
		return fmt.Errorf("unknown extraction mode %q (use explicit or model)", c.Mode)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("model max tokens must be > 0")
	}

	switch c.Sink {
	case "none", "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("postgres sink requires a database URL")
		}
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("redis sink requires an address")
		}
	case "http":
		if c.SubmitURL == "" {
			return fmt.Errorf("http sink requires a submit URL")
		}
	default:
		return fmt.Errorf("unknown sink %q (use none, memory, postgres, redis or http)", c.Sink)
	}
	return nil
}
