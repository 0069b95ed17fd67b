package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/bizcrawl/internal/reqctx"
	"github.com/law-makers/bizcrawl/pkg/models"
)

const createBusinessesSQL = `
CREATE TABLE IF NOT EXISTS businesses (
	id                   uuid PRIMARY KEY,
	name                 text,
	phone                text,
	phone_e164           text,
	principal_contact    text,
	url                  text,
	address              text,
	accreditation_status boolean,
	crawl_run_id         text,
	created_at           timestamptz NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS businesses_url_key ON businesses (url);
`

const insertBusinessSQL = `
INSERT INTO businesses (id, name, phone, phone_e164, principal_contact, url, address, accreditation_status, crawl_run_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (url) DO NOTHING`

const deleteBusinessesSQL = `DELETE FROM businesses`

// pgxExecutor is the subset of *pgxpool.Pool the store needs
type pgxExecutor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

var _ pgxExecutor = (*pgxpool.Pool)(nil)

// PostgresStore persists records in the businesses table
type PostgresStore struct {
	db     pgxExecutor
	pool   *pgxpool.Pool
	region string
}

// NewPostgresStore wraps an executor. The caller owns its lifecycle.
func NewPostgresStore(db pgxExecutor, region string) *PostgresStore {
	return &PostgresStore{db: db, region: region}
}

// ConnectPostgres opens a pool for dsn, verifies it and ensures the schema exists
func ConnectPostgres(ctx context.Context, dsn, region string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN must not be empty")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{db: pool, pool: pool, region: region}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the businesses table and its url index when missing
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createBusinessesSQL); err != nil {
		return fmt.Errorf("create businesses table: %w", err)
	}
	return nil
}

// UpsertIfAbsent inserts rec unless its url is already stored
func (s *PostgresStore) UpsertIfAbsent(ctx context.Context, rec models.BusinessRecord) (models.SinkOutcome, error) {
	var phoneE164 *string
	if rec.Phone != nil {
		phoneE164 = models.String(E164(*rec.Phone, s.region))
	}
	runID := models.String(reqctx.RunID(ctx))

	tag, err := s.db.Exec(ctx, insertBusinessSQL,
		uuid.New(),
		rec.Name,
		rec.Phone,
		phoneE164,
		rec.PrincipalContact,
		rec.Domain,
		rec.Address,
		rec.Accredited,
		runID,
	)
	if err != nil {
		return models.OutcomeFailed, fmt.Errorf("insert business: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.OutcomeDuplicate, nil
	}
	return models.OutcomeInserted, nil
}

// DeleteAll removes every row from businesses
func (s *PostgresStore) DeleteAll(ctx context.Context) error {
	tag, err := s.db.Exec(ctx, deleteBusinessesSQL)
	if err != nil {
		return fmt.Errorf("delete businesses: %w", err)
	}
	log.Info().Int64("rows", tag.RowsAffected()).Msg("Deleted stored businesses")
	return nil
}

// Close releases the pool when the store opened it
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
