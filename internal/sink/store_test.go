package sink

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/bizcrawl/pkg/models"
)

func record(url string) models.BusinessRecord {
	rec := models.BusinessRecord{Name: models.String("Acme Billing"), Phone: models.String("(650) 253-0000")}
	if url != "" {
		rec.Domain = models.String(url)
	}
	return rec
}

func TestMemoryStore_InsertThenDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	first, err := store.UpsertIfAbsent(ctx, record("https://acme.example"))
	require.NoError(t, err)
	second, err := store.UpsertIfAbsent(ctx, record("https://acme.example"))
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeInserted, first)
	assert.Equal(t, models.OutcomeDuplicate, second)
	assert.Len(t, store.Records(), 1)
}

func TestMemoryStore_NilURLAlwaysInserts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i := 0; i < 2; i++ {
		outcome, err := store.UpsertIfAbsent(ctx, record(""))
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeInserted, outcome)
	}
	require.NoError(t, store.DeleteAll(ctx))
	assert.Empty(t, store.Records())
}

type failingStore struct{ MemoryStore }

func (f *failingStore) UpsertIfAbsent(ctx context.Context, rec models.BusinessRecord) (models.SinkOutcome, error) {
	return models.OutcomeFailed, errors.New("connection refused")
}

func TestAdapter_CountsOutcomes(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(NewMemoryStore())

	_, err := a.Forward(ctx, record("https://a.example"))
	require.NoError(t, err)
	outcome, err := a.Forward(ctx, record("https://a.example"))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeDuplicate, outcome)

	failing := NewAdapter(&failingStore{})
	outcome, err = failing.Forward(ctx, record("https://b.example"))
	assert.Error(t, err)
	assert.Equal(t, models.OutcomeFailed, outcome)

	assert.Equal(t, Stats{Inserted: 1, Duplicate: 1}, a.Stats())
	assert.Equal(t, Stats{Failed: 1}, failing.Stats())
}

func TestE164(t *testing.T) {
	assert.Equal(t, "+16502530000", E164("(650) 253-0000", "US"))
	assert.Equal(t, "+442070313000", E164("+44 20 7031 3000", ""))
	assert.Equal(t, "", E164("not a phone", "US"))
	assert.Equal(t, "", E164("", "US"))
}
