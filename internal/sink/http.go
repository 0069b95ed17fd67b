package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/law-makers/bizcrawl/internal/retry"
	"github.com/law-makers/bizcrawl/pkg/models"
)

// DuplicateMessage is the submit endpoint's reply for an existing url
const DuplicateMessage = "Duplicate skipped"

// submitResponse is the body returned by the submit and delete endpoints
type submitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// HTTPStore forwards records to a remote submit endpoint
type HTTPStore struct {
	client    *http.Client
	submitURL string
	deleteURL string
	retry     retry.Config
}

// NewHTTPStore creates an HTTPStore posting to submitURL. deleteURL may be empty.
func NewHTTPStore(client *http.Client, submitURL, deleteURL string, cfg retry.Config) *HTTPStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPStore{client: client, submitURL: submitURL, deleteURL: deleteURL, retry: cfg}
}

// UpsertIfAbsent posts rec; the endpoint decides between insert and duplicate
func (s *HTTPStore) UpsertIfAbsent(ctx context.Context, rec models.BusinessRecord) (models.SinkOutcome, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return models.OutcomeFailed, fmt.Errorf("encode record: %w", err)
	}

	var resp submitResponse
	err = retry.WithRetry(ctx, s.retry, func() error {
		var perr error
		resp, perr = s.post(ctx, s.submitURL, payload)
		return perr
	})
	if err != nil {
		return models.OutcomeFailed, err
	}

	if strings.EqualFold(resp.Message, DuplicateMessage) {
		return models.OutcomeDuplicate, nil
	}
	return models.OutcomeInserted, nil
}

// DeleteAll asks the remote endpoint to drop every record
func (s *HTTPStore) DeleteAll(ctx context.Context) error {
	if s.deleteURL == "" {
		return fmt.Errorf("no delete endpoint configured")
	}
	return retry.WithRetry(ctx, s.retry, func() error {
		_, err := s.post(ctx, s.deleteURL, []byte("{}"))
		return err
	})
}

func (s *HTTPStore) post(ctx context.Context, url string, payload []byte) (submitResponse, error) {
	var out submitResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return out, retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return out, fmt.Errorf("post %s: %w", url, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return out, fmt.Errorf("read response: %w", err)
	}
	decodeErr := json.Unmarshal(body, &out)

	if res.StatusCode >= http.StatusBadRequest {
		msg := out.Error
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return out, retry.NewHTTPError(res.StatusCode, http.StatusText(res.StatusCode), msg)
	}
	if decodeErr != nil {
		return out, retry.Permanent(fmt.Errorf("unexpected %s response from %s: %w", contentType(res), url, decodeErr))
	}
	return out, nil
}

func contentType(res *http.Response) string {
	if ct := res.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "untyped"
}

func (s *HTTPStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
