package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/sector-rotation/internal/contracts"
)

// ErrNotFound is returned when no run has been stored yet
var ErrNotFound = errors.New("storage: no screening run found")

// schemaSQL creates the rotation schema when missing
const schemaSQL = `
CREATE SCHEMA IF NOT EXISTS rotation;

CREATE TABLE IF NOT EXISTS rotation.runs (
	id           TEXT PRIMARY KEY,
	as_of        DATE NOT NULL,
	data_from    DATE NOT NULL,
	data_to      DATE NOT NULL,
	benchmark    TEXT NOT NULL,
	config_hash  TEXT NOT NULL,
	evaluated    INT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS runs_created_at_idx ON rotation.runs (created_at DESC);

CREATE TABLE IF NOT EXISTS rotation.sector_scores (
	run_id                TEXT NOT NULL REFERENCES rotation.runs (id) ON DELETE CASCADE,
	rank                  INT NOT NULL,
	code                  TEXT NOT NULL,
	name                  TEXT NOT NULL,
	rotation_score        INT NOT NULL,
	max_score             INT NOT NULL,
	is_undervalued        BOOLEAN NOT NULL,
	is_bouncing           BOOLEAN NOT NULL,
	has_volume_surge      BOOLEAN NOT NULL,
	rs_improving          BOOLEAN NOT NULL,
	long_term_return_pct  DOUBLE PRECISION NOT NULL,
	short_term_return_pct DOUBLE PRECISION NOT NULL,
	volume_surge_ratio    DOUBLE PRECISION NOT NULL,
	current_rs_pct        DOUBLE PRECISION NOT NULL,
	past_rs_pct           DOUBLE PRECISION NOT NULL,
	supply_increase_pct   DOUBLE PRECISION NOT NULL,
	headlines             TEXT[] NOT NULL DEFAULT '{}',
	skipped               JSONB NOT NULL DEFAULT '[]',
	PRIMARY KEY (run_id, code)
);
`

// Repository handles screening run persistence
// ⭐ SSOT: 스크리닝 결과 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the rotation schema and tables if they do not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// SaveRun stores a run and its reported sectors (rank = position in Reports)
func (r *Repository) SaveRun(ctx context.Context, run *contracts.ScreenRun) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	runQuery := `
		INSERT INTO rotation.runs (
			id, as_of, data_from, data_to, benchmark, config_hash, evaluated, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			as_of = EXCLUDED.as_of,
			data_from = EXCLUDED.data_from,
			data_to = EXCLUDED.data_to,
			benchmark = EXCLUDED.benchmark,
			config_hash = EXCLUDED.config_hash,
			evaluated = EXCLUDED.evaluated
	`
	_, err = tx.Exec(ctx, runQuery,
		run.ID, run.AsOf, run.DataFrom, run.DataTo, run.Benchmark, run.ConfigHash, run.Evaluated, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if _, err := tx.Exec(ctx, "DELETE FROM rotation.sector_scores WHERE run_id = $1", run.ID); err != nil {
		return fmt.Errorf("failed to delete old scores: %w", err)
	}

	scoreQuery := `
		INSERT INTO rotation.sector_scores (
			run_id, rank, code, name, rotation_score, max_score,
			is_undervalued, is_bouncing, has_volume_surge, rs_improving,
			long_term_return_pct, short_term_return_pct, volume_surge_ratio,
			current_rs_pct, past_rs_pct, supply_increase_pct, headlines, skipped
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	batch := &pgx.Batch{}
	for i, rep := range run.Reports {
		rot := rep.Rotation
		skipped, err := json.Marshal(rot.Skipped)
		if err != nil {
			return fmt.Errorf("failed to marshal skipped checks: %w", err)
		}
		headlines := rep.Headlines
		if headlines == nil {
			headlines = []string{}
		}

		batch.Queue(scoreQuery,
			run.ID, i+1, rep.Code, rep.Name, rot.RotationScore, rot.MaxScore,
			rot.IsUndervalued, rot.IsBouncing, rot.HasVolumeSurge, rot.RSImproving,
			rot.LongTermReturnPct, rot.ShortTermReturnPct, rot.VolumeSurgeRatio,
			rot.CurrentRSPct, rot.PastRSPct, rep.SupplyIncreasePct, headlines, skipped,
		)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert sector scores: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LatestRun loads the most recently created run
func (r *Repository) LatestRun(ctx context.Context) (*contracts.ScreenRun, error) {
	query := `
		SELECT id, as_of, data_from, data_to, benchmark, config_hash, evaluated, created_at
		FROM rotation.runs
		ORDER BY created_at DESC
		LIMIT 1
	`

	var run contracts.ScreenRun
	err := r.pool.QueryRow(ctx, query).Scan(
		&run.ID, &run.AsOf, &run.DataFrom, &run.DataTo, &run.Benchmark, &run.ConfigHash, &run.Evaluated, &run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	reports, err := r.loadReports(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	run.Reports = reports

	return &run, nil
}

// loadReports reads the sector rows of a run in rank order
func (r *Repository) loadReports(ctx context.Context, runID string) ([]contracts.SectorReport, error) {
	query := `
		SELECT code, name, rotation_score, max_score,
			is_undervalued, is_bouncing, has_volume_surge, rs_improving,
			long_term_return_pct, short_term_return_pct, volume_surge_ratio,
			current_rs_pct, past_rs_pct, supply_increase_pct, headlines, skipped
		FROM rotation.sector_scores
		WHERE run_id = $1
		ORDER BY rank
	`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sector scores: %w", err)
	}
	defer rows.Close()

	reports := make([]contracts.SectorReport, 0)
	for rows.Next() {
		var rep contracts.SectorReport
		var skipped []byte
		rot := &rep.Rotation

		if err := rows.Scan(
			&rep.Code, &rep.Name, &rot.RotationScore, &rot.MaxScore,
			&rot.IsUndervalued, &rot.IsBouncing, &rot.HasVolumeSurge, &rot.RSImproving,
			&rot.LongTermReturnPct, &rot.ShortTermReturnPct, &rot.VolumeSurgeRatio,
			&rot.CurrentRSPct, &rot.PastRSPct, &rep.SupplyIncreasePct, &rep.Headlines, &skipped,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sector score: %w", err)
		}
		if err := json.Unmarshal(skipped, &rot.Skipped); err != nil {
			return nil, fmt.Errorf("failed to unmarshal skipped checks: %w", err)
		}
		rot.Code = rep.Code
		reports = append(reports, rep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sector scores: %w", err)
	}
	return reports, nil
}
