package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/localsignal/visibility-cli/internal/db"
	"github.com/localsignal/visibility-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_run":        `INSERT INTO scan_runs (id, profile_id, status, models, cache_key, started_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"update_run_status": `UPDATE scan_runs SET status = $1 WHERE id = $2`,
	"get_run":           `SELECT id, profile_id, status, models, cache_key, error_count, quality, started_at, finished_at FROM scan_runs WHERE id = $1`,
	"get_quick_scan":    `SELECT data FROM quick_scans WHERE fingerprint = $1 AND expires_at > now()`,
	"set_quick_scan":    `INSERT INTO quick_scans (fingerprint, data, cached_at, expires_at) VALUES ($1, $2, $3, $4) ON CONFLICT (fingerprint) DO UPDATE SET data = EXCLUDED.data, cached_at = EXCLUDED.cached_at, expires_at = EXCLUDED.expires_at`,
	"list_prompts":      `SELECT id, profile_id, layer, text, intent, active, created_at FROM prompt_templates WHERE profile_id = $1 AND active ORDER BY created_at, id`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need
// direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS profiles (
	id                   TEXT PRIMARY KEY,
	user_id              TEXT NOT NULL,
	name                 TEXT NOT NULL,
	domain               TEXT NOT NULL,
	location             JSONB NOT NULL,
	service_areas        JSONB,
	service_radius_miles INTEGER NOT NULL DEFAULT 0,
	categories           JSONB NOT NULL,
	neighborhoods        JSONB,
	brand_synonyms       JSONB,
	competitor_overrides JSONB,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, domain)
);

CREATE TABLE IF NOT EXISTS prompt_templates (
	id         TEXT PRIMARY KEY,
	profile_id TEXT NOT NULL REFERENCES profiles(id),
	layer      TEXT NOT NULL,
	text       TEXT NOT NULL,
	intent     TEXT NOT NULL DEFAULT '',
	active     BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_prompt_templates_profile ON prompt_templates(profile_id, active);

CREATE TABLE IF NOT EXISTS scan_runs (
	id          TEXT PRIMARY KEY,
	profile_id  TEXT NOT NULL REFERENCES profiles(id),
	status      TEXT NOT NULL DEFAULT 'queued',
	models      JSONB NOT NULL,
	cache_key   TEXT NOT NULL,
	error_count INTEGER NOT NULL DEFAULT 0,
	quality     JSONB,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_scan_runs_profile ON scan_runs(profile_id);
CREATE INDEX IF NOT EXISTS idx_scan_runs_cache ON scan_runs(profile_id, cache_key, finished_at DESC);

CREATE TABLE IF NOT EXISTS scan_results (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL REFERENCES scan_runs(id),
	prompt_id   TEXT NOT NULL,
	layer       TEXT NOT NULL,
	model       TEXT NOT NULL,
	mentioned   BOOLEAN NOT NULL DEFAULT false,
	recommended BOOLEAN NOT NULL DEFAULT false,
	position    INTEGER,
	competitors JSONB,
	response    TEXT NOT NULL DEFAULT '',
	citations   JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_scan_results_run ON scan_results(run_id);

CREATE TABLE IF NOT EXISTS score_records (
	id              TEXT PRIMARY KEY,
	run_id          TEXT NOT NULL UNIQUE REFERENCES scan_runs(id),
	total_score     INTEGER NOT NULL,
	status          TEXT NOT NULL,
	breakdown       JSONB NOT NULL,
	competitors     JSONB,
	recommendations JSONB,
	confidence      JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS quick_scans (
	fingerprint TEXT PRIMARY KEY,
	data        JSONB NOT NULL,
	cached_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quick_scans_expires_at ON quick_scans(expires_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertProfile(ctx context.Context, profile *model.BusinessProfile) (*model.BusinessProfile, model.UpsertOutcome, error) {
	p := *profile
	p.Domain = model.NormalizeDomain(p.Domain)
	now := time.Now().UTC()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	locJSON, err := json.Marshal(p.Location)
	if err != nil {
		return nil, "", eris.Wrap(err, "postgres: marshal location")
	}
	areasJSON, err := json.Marshal(p.ServiceAreas)
	if err != nil {
		return nil, "", eris.Wrap(err, "postgres: marshal service areas")
	}
	catsJSON, err := json.Marshal(p.Categories)
	if err != nil {
		return nil, "", eris.Wrap(err, "postgres: marshal categories")
	}
	hoodsJSON, err := json.Marshal(p.Neighborhoods)
	if err != nil {
		return nil, "", eris.Wrap(err, "postgres: marshal neighborhoods")
	}
	synsJSON, err := json.Marshal(p.BrandSynonyms)
	if err != nil {
		return nil, "", eris.Wrap(err, "postgres: marshal brand synonyms")
	}
	rivalsJSON, err := json.Marshal(p.CompetitorOverrides)
	if err != nil {
		return nil, "", eris.Wrap(err, "postgres: marshal competitor overrides")
	}

	// xmax = 0 only for freshly inserted rows, which distinguishes
	// create from update without a second round trip.
	var inserted bool
	err = s.pool.QueryRow(ctx,
		`INSERT INTO profiles (id, user_id, name, domain, location, service_areas, service_radius_miles, categories, neighborhoods, brand_synonyms, competitor_overrides, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		 ON CONFLICT (user_id, domain) DO UPDATE SET
			name = EXCLUDED.name,
			location = EXCLUDED.location,
			service_areas = EXCLUDED.service_areas,
			service_radius_miles = EXCLUDED.service_radius_miles,
			categories = EXCLUDED.categories,
			neighborhoods = EXCLUDED.neighborhoods,
			brand_synonyms = EXCLUDED.brand_synonyms,
			competitor_overrides = EXCLUDED.competitor_overrides,
			updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at, updated_at, (xmax = 0)`,
		p.ID, p.UserID, p.Name, p.Domain, locJSON, areasJSON, p.ServiceRadiusMiles, catsJSON, hoodsJSON, synsJSON, rivalsJSON, now,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt, &inserted)
	if err != nil {
		return nil, "", eris.Wrapf(err, "postgres: upsert profile for user %s", p.UserID)
	}

	outcome := model.UpsertUpdated
	if inserted {
		outcome = model.UpsertCreated
	}
	return &p, outcome, nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, profileID string) (*model.BusinessProfile, error) {
	var p model.BusinessProfile
	var locJSON, areasJSON, catsJSON, hoodsJSON, synsJSON, rivalsJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, name, domain, location, service_areas, service_radius_miles, categories, neighborhoods, brand_synonyms, competitor_overrides, created_at, updated_at
		 FROM profiles WHERE id = $1`,
		profileID,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.Domain, &locJSON, &areasJSON, &p.ServiceRadiusMiles, &catsJSON, &hoodsJSON, &synsJSON, &rivalsJSON, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get profile %s", profileID)
	}

	for _, f := range []struct {
		raw []byte
		dst any
	}{
		{locJSON, &p.Location},
		{areasJSON, &p.ServiceAreas},
		{catsJSON, &p.Categories},
		{hoodsJSON, &p.Neighborhoods},
		{synsJSON, &p.BrandSynonyms},
		{rivalsJSON, &p.CompetitorOverrides},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal profile field")
		}
	}
	return &p, nil
}

func (s *PostgresStore) ReplacePromptTemplates(ctx context.Context, profileID string, templates []model.PromptTemplate) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace prompts")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE prompt_templates SET active = false WHERE profile_id = $1 AND active`, profileID); err != nil {
		return eris.Wrapf(err, "postgres: deactivate prompts for profile %s", profileID)
	}

	now := time.Now().UTC()
	for i := range templates {
		t := &templates[i]
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		t.ProfileID = profileID
		t.Active = true
		t.CreatedAt = now
		if _, err := tx.Exec(ctx,
			`INSERT INTO prompt_templates (id, profile_id, layer, text, intent, active, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			t.ID, t.ProfileID, string(t.Layer), t.Text, t.Intent, t.Active, t.CreatedAt,
		); err != nil {
			return eris.Wrapf(err, "postgres: insert prompt for profile %s", profileID)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace prompts")
}

func (s *PostgresStore) ListActivePrompts(ctx context.Context, profileID string) ([]model.PromptTemplate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, profile_id, layer, text, intent, active, created_at FROM prompt_templates WHERE profile_id = $1 AND active ORDER BY created_at, id`,
		profileID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list prompts for profile %s", profileID)
	}
	defer rows.Close()

	var prompts []model.PromptTemplate
	for rows.Next() {
		var t model.PromptTemplate
		if err := rows.Scan(&t.ID, &t.ProfileID, &t.Layer, &t.Text, &t.Intent, &t.Active, &t.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan prompt")
		}
		prompts = append(prompts, t)
	}
	return prompts, eris.Wrap(rows.Err(), "postgres: list prompts iterate")
}

func (s *PostgresStore) ListPrompts(ctx context.Context, profileID string) ([]model.PromptTemplate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, profile_id, layer, text, intent, active, created_at FROM prompt_templates WHERE profile_id = $1 ORDER BY created_at, id`,
		profileID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list all prompts for profile %s", profileID)
	}
	defer rows.Close()

	var prompts []model.PromptTemplate
	for rows.Next() {
		var t model.PromptTemplate
		if err := rows.Scan(&t.ID, &t.ProfileID, &t.Layer, &t.Text, &t.Intent, &t.Active, &t.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan prompt")
		}
		prompts = append(prompts, t)
	}
	return prompts, eris.Wrap(rows.Err(), "postgres: list all prompts iterate")
}

func (s *PostgresStore) CreateRun(ctx context.Context, run *model.ScanRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Status == "" {
		run.Status = model.RunStatusQueued
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	modelsJSON, err := json.Marshal(run.Models)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal models")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO scan_runs (id, profile_id, status, models, cache_key, started_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.ProfileID, string(run.Status), modelsJSON, run.CacheKey, run.StartedAt,
	)
	return eris.Wrapf(err, "postgres: insert run for profile %s", run.ProfileID)
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scan_runs SET status = $1 WHERE id = $2`,
		string(status), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, errorCount int, quality model.QualityFlags) error {
	qualityJSON, err := json.Marshal(quality)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal quality")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE scan_runs SET status = $1, error_count = $2, quality = $3, finished_at = $4 WHERE id = $5`,
		string(status), errorCount, qualityJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRunRow(row pgx.Row) (*model.ScanRun, error) {
	var r model.ScanRun
	var modelsJSON, qualityJSON []byte
	if err := row.Scan(&r.ID, &r.ProfileID, &r.Status, &modelsJSON, &r.CacheKey, &r.ErrorCount, &qualityJSON, &r.StartedAt, &r.FinishedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(modelsJSON, &r.Models); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal models")
	}
	if len(qualityJSON) > 0 {
		if err := json.Unmarshal(qualityJSON, &r.Quality); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal quality")
		}
	}
	return &r, nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.ScanRun, error) {
	r, err := scanRunRow(s.pool.QueryRow(ctx,
		`SELECT id, profile_id, status, models, cache_key, error_count, quality, started_at, finished_at FROM scan_runs WHERE id = $1`,
		runID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.ScanRun, error) {
	query := `SELECT id, profile_id, status, models, cache_key, error_count, quality, started_at, finished_at FROM scan_runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.ProfileID != "" {
		query += fmt.Sprintf(` AND profile_id = $%d`, argIdx)
		args = append(args, filter.ProfileID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.ScanRun
	for rows.Next() {
		r, err := scanRunRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) FindCachedRun(ctx context.Context, profileID, cacheKey string, finishedAfter time.Time) (*model.ScanRun, error) {
	r, err := scanRunRow(s.pool.QueryRow(ctx,
		`SELECT id, profile_id, status, models, cache_key, error_count, quality, started_at, finished_at
		 FROM scan_runs
		 WHERE profile_id = $1 AND cache_key = $2 AND status = $3 AND finished_at >= $4
		 ORDER BY finished_at DESC LIMIT 1`,
		profileID, cacheKey, string(model.RunStatusComplete), finishedAfter,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: find cached run for profile %s", profileID)
	}
	return r, nil
}

var resultColumns = []string{"id", "run_id", "prompt_id", "layer", "model", "mentioned", "recommended", "position", "competitors", "response", "citations", "created_at"}

func (s *PostgresStore) InsertResults(ctx context.Context, results []model.ScanResult) error {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(results))
	for i := range results {
		r := &results[i]
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		rivalsJSON, err := json.Marshal(r.Competitors)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal competitors")
		}
		citationsJSON, err := json.Marshal(r.Citations)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal citations")
		}
		rows = append(rows, []any{
			r.ID, r.RunID, r.PromptID, string(r.Layer), r.Model,
			r.Mentioned, r.Recommended, r.Position, rivalsJSON, r.Response, citationsJSON, r.CreatedAt,
		})
	}

	_, err := db.CopyFrom(ctx, s.pool, "scan_results", resultColumns, rows)
	return eris.Wrap(err, "postgres: insert results")
}

func (s *PostgresStore) ListResults(ctx context.Context, runID string) ([]model.ScanResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, prompt_id, layer, model, mentioned, recommended, position, competitors, response, citations, created_at
		 FROM scan_results WHERE run_id = $1 ORDER BY created_at, id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list results for run %s", runID)
	}
	defer rows.Close()

	var results []model.ScanResult
	for rows.Next() {
		var r model.ScanResult
		var rivalsJSON, citationsJSON []byte
		if err := rows.Scan(&r.ID, &r.RunID, &r.PromptID, &r.Layer, &r.Model, &r.Mentioned, &r.Recommended, &r.Position, &rivalsJSON, &r.Response, &citationsJSON, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan result")
		}
		if len(rivalsJSON) > 0 {
			if err := json.Unmarshal(rivalsJSON, &r.Competitors); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal competitors")
			}
		}
		if len(citationsJSON) > 0 {
			if err := json.Unmarshal(citationsJSON, &r.Citations); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal citations")
			}
		}
		results = append(results, r)
	}
	return results, eris.Wrap(rows.Err(), "postgres: list results iterate")
}

func (s *PostgresStore) UpdateResultCitations(ctx context.Context, resultID string, citations []model.Citation) error {
	citationsJSON, err := json.Marshal(citations)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal citations")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE scan_results SET citations = $1 WHERE id = $2`,
		citationsJSON, resultID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update citations %s", resultID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SaveScore(ctx context.Context, score *model.ScoreRecord) error {
	if score.ID == "" {
		score.ID = uuid.New().String()
	}
	if score.CreatedAt.IsZero() {
		score.CreatedAt = time.Now().UTC()
	}

	breakdownJSON, err := json.Marshal(score.Breakdown)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal breakdown")
	}
	rivalsJSON, err := json.Marshal(score.Competitors)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal competitors")
	}
	recsJSON, err := json.Marshal(score.Recommendations)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal recommendations")
	}
	confJSON, err := json.Marshal(score.Confidence)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal confidence")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO score_records (id, run_id, total_score, status, breakdown, competitors, recommendations, confidence, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		score.ID, score.RunID, score.TotalScore, string(score.Status), breakdownJSON, rivalsJSON, recsJSON, confJSON, score.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: save score for run %s", score.RunID)
}

func (s *PostgresStore) GetScore(ctx context.Context, runID string) (*model.ScoreRecord, error) {
	var sc model.ScoreRecord
	var breakdownJSON, rivalsJSON, recsJSON, confJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, run_id, total_score, status, breakdown, competitors, recommendations, confidence, created_at
		 FROM score_records WHERE run_id = $1`,
		runID,
	).Scan(&sc.ID, &sc.RunID, &sc.TotalScore, &sc.Status, &breakdownJSON, &rivalsJSON, &recsJSON, &confJSON, &sc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrapf(err, "postgres: get score for run %s", runID)
	}

	if err := json.Unmarshal(breakdownJSON, &sc.Breakdown); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal breakdown")
	}
	if len(rivalsJSON) > 0 {
		if err := json.Unmarshal(rivalsJSON, &sc.Competitors); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal competitors")
		}
	}
	if len(recsJSON) > 0 {
		if err := json.Unmarshal(recsJSON, &sc.Recommendations); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal recommendations")
		}
	}
	if err := json.Unmarshal(confJSON, &sc.Confidence); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal confidence")
	}
	return &sc, nil
}

func (s *PostgresStore) GetQuickScan(ctx context.Context, fingerprint string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM quick_scans WHERE fingerprint = $1 AND expires_at > now()`,
		fingerprint,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get quick scan %s", fingerprint)
	}
	return data, nil
}

func (s *PostgresStore) SetQuickScan(ctx context.Context, fingerprint string, data []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quick_scans (fingerprint, data, cached_at, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (fingerprint) DO UPDATE SET data = EXCLUDED.data, cached_at = EXCLUDED.cached_at, expires_at = EXCLUDED.expires_at`,
		fingerprint, data, now, now.Add(ttl),
	)
	return eris.Wrapf(err, "postgres: set quick scan %s", fingerprint)
}

func (s *PostgresStore) DeleteExpiredQuickScans(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quick_scans WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired quick scans")
	}
	return int(tag.RowsAffected()), nil
}
