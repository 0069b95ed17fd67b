package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/bizcrawl/internal/engine"
	"github.com/law-makers/bizcrawl/internal/engine/enginetest"
	"github.com/law-makers/bizcrawl/internal/engine/explicit"
	"github.com/law-makers/bizcrawl/internal/sink"
	"github.com/law-makers/bizcrawl/pkg/models"
)

const (
	searchURL  = "https://dir.example/search?find_text=billing"
	profileURL = "https://dir.example/us/il/profile/acme-1"
)

const searchHTML = `<html><body><main>
<a class="text-blue-medium" href="/us/il/profile/acme-1">Acme Billing</a>
</main></body></html>`

const profileHTML = `<html><head>
<script>window.__PRELOADED_STATE__ = {"businessProfile":{"accreditationInformation":{"isAccredited":false},"urls":{"primary":"https://acme.example"}}};</script>
<script type="application/ld+json">{"name":"Acme Billing","telephone":"(650) 253-0000"}</script>
</head><body></body></html>`

// newCrawler returns a crawler whose every session is a fresh in-memory browser
func newCrawler(launchErr error) *engine.Crawler {
	launch := func(ctx context.Context) (engine.Session, error) {
		if launchErr != nil {
			return nil, launchErr
		}
		return enginetest.NewFakeBrowser(map[string]string{
			searchURL + "&page=1": searchHTML,
			profileURL:            profileHTML,
		}), nil
	}
	extractors := map[models.ExtractionMode]engine.Extractor{
		models.ModeExplicit: explicit.New("body", time.Second),
	}
	return engine.NewCrawler(launch, extractors, nil, nil, engine.Options{
		MaxPages: 1,
		Collector: engine.LinkCollector{
			ContainerSelector: "main",
			LinkSelector:      "a[href*='/profile/'].text-blue-medium",
			WaitTimeout:       time.Second,
		},
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestScrape_ReturnsRecords(t *testing.T) {
	srv := New(newCrawler(nil), sink.NewMemoryStore())

	rec := do(t, srv.Handler(), http.MethodPost, "/api/scrape", `{"url":"`+searchURL+`","LLM":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Acme Billing", got[0]["name"])
	assert.Equal(t, "https://acme.example", got[0]["url"])
	assert.Equal(t, false, got[0]["accreditation_status"])
	assert.Contains(t, got[0], "principal_contact")
	assert.Nil(t, got[0]["principal_contact"])
}

func TestScrape_InvalidRequest(t *testing.T) {
	srv := New(newCrawler(nil), sink.NewMemoryStore())

	for name, body := range map[string]string{
		"missing LLM":    `{"url":"https://dir.example/search"}`,
		"not a url":      `{"url":"billing","LLM":false}`,
		"malformed":      `{"url":`,
		"wrong LLM type": `{"url":"https://dir.example/search","LLM":"yes"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(t, srv.Handler(), http.MethodPost, "/api/scrape", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"Invalid request"}`, rec.Body.String())
		})
	}
}

func TestScrape_SessionFailure(t *testing.T) {
	srv := New(newCrawler(errors.New("no chrome")), sink.NewMemoryStore())

	rec := do(t, srv.Handler(), http.MethodPost, "/api/scrape", `{"url":"`+searchURL+`","LLM":false}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Scraper failed"}`, rec.Body.String())
}

func TestScrape_ModelModeUnavailable(t *testing.T) {
	srv := New(newCrawler(nil), sink.NewMemoryStore())

	rec := do(t, srv.Handler(), http.MethodPost, "/api/scrape", `{"url":"`+searchURL+`","LLM":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitBusiness_InsertThenDuplicate(t *testing.T) {
	store := sink.NewMemoryStore()
	srv := New(newCrawler(nil), store)
	body := `{"name":"Acme Billing","url":"https://acme.example","accreditation_status":true}`

	rec := do(t, srv.Handler(), http.MethodPost, "/api/submit-business", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = do(t, srv.Handler(), http.MethodPost, "/api/submit-business", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Duplicate skipped"}`, rec.Body.String())

	assert.Len(t, store.Records(), 1)
}

type failingStore struct{ sink.Store }

func (failingStore) UpsertIfAbsent(ctx context.Context, rec models.BusinessRecord) (models.SinkOutcome, error) {
	return models.OutcomeFailed, errors.New("connection refused")
}

func (failingStore) DeleteAll(ctx context.Context) error { return errors.New("connection refused") }

func TestSubmitBusiness_StoreFailure(t *testing.T) {
	srv := New(newCrawler(nil), failingStore{})

	rec := do(t, srv.Handler(), http.MethodPost, "/api/submit-business", `{"url":"https://acme.example"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Insert failed"}`, rec.Body.String())
}

func TestDelete(t *testing.T) {
	store := sink.NewMemoryStore()
	_, err := store.UpsertIfAbsent(context.Background(), models.BusinessRecord{Domain: models.String("https://acme.example")})
	require.NoError(t, err)
	srv := New(newCrawler(nil), store)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/delete", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"All business data deleted"}`, rec.Body.String())
	assert.Empty(t, store.Records())

	rec = do(t, New(newCrawler(nil), failingStore{}).Handler(), http.MethodPost, "/api/delete", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthz(t *testing.T) {
	rec := do(t, New(newCrawler(nil), sink.NewMemoryStore()).Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
