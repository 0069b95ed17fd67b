package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/bizcrawl/internal/config"
	"github.com/law-makers/bizcrawl/internal/sink"
	"github.com/law-makers/bizcrawl/pkg/models"
)

func TestNew_MemorySinkWithoutAPIKey(t *testing.T) {
	cfg := config.Defaults()

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.NotNil(t, a.Crawler)
	assert.IsType(t, &sink.MemoryStore{}, a.Store)
	assert.Contains(t, a.Extractors, models.ModeExplicit)
	assert.NotContains(t, a.Extractors, models.ModeModel)
}

func TestNew_ModelExtractorWithAPIKey(t *testing.T) {
	cfg := config.Defaults()
	cfg.AnthropicAPIKey = "sk-test"

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "model", a.Extractors[models.ModeModel].Name())
}

func TestNew_RateLimitHostOverrides(t *testing.T) {
	cfg := config.Defaults()
	cfg.RateLimitRPS = 1000
	cfg.RateLimitHosts = map[string]float64{"slow.example": 0.001}

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close(context.Background())

	waitBriefly := func(u string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		return a.Limiter.Wait(ctx, u)
	}

	require.NoError(t, waitBriefly("https://slow.example/a"))
	assert.Error(t, waitBriefly("https://slow.example/b"), "overridden host is throttled")

	require.NoError(t, waitBriefly("https://fast.example/a"))
	assert.NoError(t, waitBriefly("https://fast.example/b"), "other hosts use the default rate")
}

func TestNewStore(t *testing.T) {
	cfg := config.Defaults()

	cfg.Sink = sink.KindNone
	s, err := NewStore(context.Background(), cfg)
	require.NoError(t, err)
	outcome, err := s.UpsertIfAbsent(context.Background(), models.BusinessRecord{})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeInserted, outcome)

	cfg.Sink = sink.KindHTTP
	cfg.SubmitURL = "http://localhost:3000/api/submit-business"
	s, err = NewStore(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &sink.HTTPStore{}, s)

	cfg.Sink = "kafka"
	_, err = NewStore(context.Background(), cfg)
	assert.Error(t, err)
}

func TestMode(t *testing.T) {
	cfg := config.Defaults()
	a := &Application{Config: cfg}

	mode, err := a.Mode(false)
	require.NoError(t, err)
	assert.Equal(t, models.ModeExplicit, mode)

	mode, err = a.Mode(true)
	require.NoError(t, err)
	assert.Equal(t, models.ModeModel, mode)

	cfg.Mode = "guess"
	_, err = a.Mode(false)
	assert.Error(t, err)
}

func TestNew_ProxyRotation(t *testing.T) {
	cfg := config.Defaults()
	cfg.Proxy = "http://proxy-a:8080, http://proxy-b:8080"

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Proxies.Len())
}
