package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel  = "warn"
	DefaultJSONLog   = false
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	DefaultNavTimeout      = 60 * time.Second
	DefaultWaitTimeout     = 10 * time.Second
	DefaultBrowserHeadless = true

	DefaultSearchURL       = "https://www.bbb.org/search?filter_category=60548-100&filter_category=60142-000&filter_ratings=A&find_country=USA&find_text=Medical+Billing&page=1"
	DefaultMaxPages        = 15
	MaxPagesLimit          = 500
	DefaultMode            = "explicit"
	DefaultRateLimitRPS    = 1.0
	DefaultRateLimitBurst  = 1
	DefaultResultsSelector = "main"
	DefaultLinkSelector    = "a[href*='/profile/'].text-blue-medium"
	DefaultProfileSelector = "script[type='application/ld+json']"

	DefaultSink        = "memory"
	DefaultRedisAddr   = "localhost:6379"
	DefaultPhoneRegion = "US"

	DefaultModel        = "claude-sonnet-4-5"
	DefaultMaxTokens    = 1024
	DefaultModelTimeout = 90 * time.Second

	DefaultListenAddr = ":3000"
)

// DefaultHeaders are sent with every browser request unless overridden
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Accept-Language": "en-US,en;q=0.9",
		"Referer":         "https://www.bbb.org/",
	}
}
