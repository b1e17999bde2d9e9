package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrWong99/callswarm/pkg/types"
)

// Schema is the SQL DDL for the campaigns table. Execute it via
// [PostgresPersister.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS campaigns (
    campaign_id  TEXT PRIMARY KEY,
    status       TEXT NOT NULL DEFAULT 'running',
    request      JSONB NOT NULL DEFAULT '{}',
    progress     JSONB NOT NULL DEFAULT '{}',
    providers    JSONB NOT NULL DEFAULT '[]',
    call_results JSONB NOT NULL DEFAULT '[]',
    ranked       JSONB NOT NULL DEFAULT '[]',
    best         JSONB,
    booking      JSONB,
    debug        JSONB NOT NULL DEFAULT '{}',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// DB is the database interface used by [PostgresPersister]. Both
// *pgxpool.Pool and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresPersister is a Persister backed by a PostgreSQL database. It
// serialises the campaign's nested fields as JSONB, matching the demo
// JSONFilePersister's all-or-nothing document model.
type PostgresPersister struct {
	db DB
}

// NewPostgresPersister returns a PostgresPersister using db. Callers must
// call Migrate before issuing queries against a fresh database.
func NewPostgresPersister(db DB) *PostgresPersister {
	return &PostgresPersister{db: db}
}

var _ Persister = (*PostgresPersister)(nil)

// Migrate executes the Schema DDL, creating the campaigns table if it does
// not already exist.
func (p *PostgresPersister) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Save implements Persister, upserting the full campaign document.
func (p *PostgresPersister) Save(ctx context.Context, campaign *types.Campaign) error {
	requestJSON, err := json.Marshal(campaign.Request)
	if err != nil {
		return fmt.Errorf("store: marshal request: %w", err)
	}
	progressJSON, err := json.Marshal(campaign.Progress)
	if err != nil {
		return fmt.Errorf("store: marshal progress: %w", err)
	}
	providersJSON, err := json.Marshal(emptySlice(campaign.Providers))
	if err != nil {
		return fmt.Errorf("store: marshal providers: %w", err)
	}
	resultsJSON, err := json.Marshal(emptySlice(campaign.CallResults))
	if err != nil {
		return fmt.Errorf("store: marshal call_results: %w", err)
	}
	rankedJSON, err := json.Marshal(emptySlice(campaign.Ranked))
	if err != nil {
		return fmt.Errorf("store: marshal ranked: %w", err)
	}
	bestJSON, err := json.Marshal(campaign.Best)
	if err != nil {
		return fmt.Errorf("store: marshal best: %w", err)
	}
	bookingJSON, err := json.Marshal(campaign.BookingConfirmation)
	if err != nil {
		return fmt.Errorf("store: marshal booking: %w", err)
	}
	debugJSON, err := json.Marshal(emptyMap(campaign.Debug))
	if err != nil {
		return fmt.Errorf("store: marshal debug: %w", err)
	}

	const query = `
		INSERT INTO campaigns (
			campaign_id, status, request, progress, providers,
			call_results, ranked, best, booking, debug, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (campaign_id) DO UPDATE SET
			status = $2, request = $3, progress = $4, providers = $5,
			call_results = $6, ranked = $7, best = $8, booking = $9,
			debug = $10, updated_at = $12`

	_, err = p.db.Exec(ctx, query,
		campaign.CampaignID, string(campaign.Status), requestJSON, progressJSON, providersJSON,
		resultsJSON, rankedJSON, bestJSON, bookingJSON, debugJSON,
		campaign.CreatedAt, campaign.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: save campaign %q: %w", campaign.CampaignID, err)
	}
	return nil
}

// Load implements Persister.
func (p *PostgresPersister) Load(ctx context.Context, campaignID string) (*types.Campaign, error) {
	const query = `
		SELECT campaign_id, status, request, progress, providers,
		       call_results, ranked, best, booking, debug, created_at, updated_at
		FROM campaigns
		WHERE campaign_id = $1`

	campaign, err := scanCampaign(p.db.QueryRow(ctx, query, campaignID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: load campaign %q: %w", campaignID, err)
	}
	return campaign, nil
}

// LoadAll implements Persister, returning every row in the campaigns table.
func (p *PostgresPersister) LoadAll(ctx context.Context) ([]*types.Campaign, error) {
	const query = `
		SELECT campaign_id, status, request, progress, providers,
		       call_results, ranked, best, booking, debug, created_at, updated_at
		FROM campaigns`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: load all campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []*types.Campaign
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("store: decode campaign row: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: load all campaigns: %w", err)
	}
	return campaigns, nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows, letting scanCampaign
// serve Load's single-row query and LoadAll's multi-row query alike.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*types.Campaign, error) {
	var (
		campaign types.Campaign
		status   string
		requestJSON, progressJSON, providersJSON, resultsJSON, rankedJSON, bestJSON, bookingJSON, debugJSON []byte
	)

	if err := row.Scan(
		&campaign.CampaignID, &status, &requestJSON, &progressJSON, &providersJSON,
		&resultsJSON, &rankedJSON, &bestJSON, &bookingJSON, &debugJSON,
		&campaign.CreatedAt, &campaign.UpdatedAt,
	); err != nil {
		return nil, err
	}
	campaign.Status = types.CampaignStatus(status)

	if err := json.Unmarshal(requestJSON, &campaign.Request); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	if err := json.Unmarshal(progressJSON, &campaign.Progress); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	if err := json.Unmarshal(providersJSON, &campaign.Providers); err != nil {
		return nil, fmt.Errorf("decode providers: %w", err)
	}
	if err := json.Unmarshal(resultsJSON, &campaign.CallResults); err != nil {
		return nil, fmt.Errorf("decode call_results: %w", err)
	}
	if err := json.Unmarshal(rankedJSON, &campaign.Ranked); err != nil {
		return nil, fmt.Errorf("decode ranked: %w", err)
	}
	if len(bestJSON) > 0 && string(bestJSON) != "null" {
		if err := json.Unmarshal(bestJSON, &campaign.Best); err != nil {
			return nil, fmt.Errorf("decode best: %w", err)
		}
	}
	if len(bookingJSON) > 0 && string(bookingJSON) != "null" {
		if err := json.Unmarshal(bookingJSON, &campaign.BookingConfirmation); err != nil {
			return nil, fmt.Errorf("decode booking: %w", err)
		}
	}
	if err := json.Unmarshal(debugJSON, &campaign.Debug); err != nil {
		return nil, fmt.Errorf("decode debug: %w", err)
	}

	return &campaign, nil
}

// emptySlice returns s if non-nil, otherwise an empty non-nil slice. This
// ensures JSON marshaling produces [] instead of null for absent collections.
func emptySlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// emptyMap returns m if non-nil, otherwise an empty non-nil map. This
// ensures JSON marshaling produces {} instead of null for an absent map.
func emptyMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return map[K]V{}
	}
	return m
}

// isDuplicateKeyError checks whether a PostgreSQL error is a unique-violation
// (SQLSTATE 23505). Kept for future callers that need insert-only semantics;
// Save currently upserts and does not need it.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
