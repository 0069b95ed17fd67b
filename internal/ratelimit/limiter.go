// Package ratelimit paces page loads per host so a crawl does not hammer the directory.
package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Defaults used when a non-positive rate or burst is given
const (
	DefaultRPS   = 1.0
	DefaultBurst = 1
)

// HostLimiter keeps one token bucket per host. It satisfies engine.Throttle.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewHostLimiter creates a limiter allowing rps page loads per second per host
func NewHostLimiter(rps float64, burst int) *HostLimiter {
	if rps <= 0 {
		rps = DefaultRPS
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

// Wait blocks until a load of urlStr may proceed or ctx is done.
// URLs without a host are not throttled.
func (l *HostLimiter) Wait(ctx context.Context, urlStr string) error {
	host := hostOf(urlStr)
	if host == "" {
		return nil
	}

	start := time.Now()
	if err := l.forHost(host).Wait(ctx); err != nil {
		return err
	}
	if waited := time.Since(start); waited > 10*time.Millisecond {
		log.Debug().Str("host", host).Dur("waited", waited).Msg("Throttled page load")
	}
	return nil
}

// SetLimit gives host its own bucket of rps loads per second, starting full.
// Non-positive values fall back to the limiter's defaults.
func (l *HostLimiter) SetLimit(host string, rps float64, burst int) {
	if rps <= 0 {
		rps = float64(l.limit)
	}
	if burst <= 0 {
		burst = l.burst
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiters[strings.ToLower(strings.TrimSpace(host))] = rate.NewLimiter(rate.Limit(rps), burst)
}

// ParseOverrides reads a comma separated "host=rps" list, e.g.
// "www.bbb.org=0.5,api.example.com=4". Hosts are lowercased.
func ParseOverrides(s string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		host, val, ok := strings.Cut(item, "=")
		host = strings.ToLower(strings.TrimSpace(host))
		if !ok || host == "" {
			return nil, fmt.Errorf("invalid rate override %q: want host=rps", item)
		}
		rps, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || rps <= 0 {
			return nil, fmt.Errorf("invalid rate for %s: %q", host, val)
		}
		out[host] = rps
	}
	return out, nil
}

func (l *HostLimiter) forHost(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[host]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[host] = lim
	}
	return lim
}

func hostOf(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
