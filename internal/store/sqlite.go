package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/localsignal/visibility-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sqldb.Exec(pragma); err != nil {
			sqldb.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sqldb}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS profiles (
	id                   TEXT PRIMARY KEY,
	user_id              TEXT NOT NULL,
	name                 TEXT NOT NULL,
	domain               TEXT NOT NULL,
	location             TEXT NOT NULL,
	service_areas        TEXT,
	service_radius_miles INTEGER NOT NULL DEFAULT 0,
	categories           TEXT NOT NULL,
	neighborhoods        TEXT,
	brand_synonyms       TEXT,
	competitor_overrides TEXT,
	created_at           DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at           DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (user_id, domain)
);

CREATE TABLE IF NOT EXISTS prompt_templates (
	id         TEXT PRIMARY KEY,
	profile_id TEXT NOT NULL REFERENCES profiles(id),
	layer      TEXT NOT NULL,
	text       TEXT NOT NULL,
	intent     TEXT NOT NULL DEFAULT '',
	active     INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_prompt_templates_profile ON prompt_templates(profile_id, active);

CREATE TABLE IF NOT EXISTS scan_runs (
	id          TEXT PRIMARY KEY,
	profile_id  TEXT NOT NULL REFERENCES profiles(id),
	status      TEXT NOT NULL DEFAULT 'queued',
	models      TEXT NOT NULL,
	cache_key   TEXT NOT NULL,
	error_count INTEGER NOT NULL DEFAULT 0,
	quality     TEXT,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_scan_runs_profile ON scan_runs(profile_id);
CREATE INDEX IF NOT EXISTS idx_scan_runs_cache ON scan_runs(profile_id, cache_key, finished_at);

CREATE TABLE IF NOT EXISTS scan_results (
	id          TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL REFERENCES scan_runs(id),
	prompt_id   TEXT NOT NULL,
	layer       TEXT NOT NULL,
	model       TEXT NOT NULL,
	mentioned   INTEGER NOT NULL DEFAULT 0,
	recommended INTEGER NOT NULL DEFAULT 0,
	position    INTEGER,
	competitors TEXT,
	response    TEXT NOT NULL DEFAULT '',
	citations   TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_scan_results_run ON scan_results(run_id);

CREATE TABLE IF NOT EXISTS score_records (
	id              TEXT PRIMARY KEY,
	run_id          TEXT NOT NULL UNIQUE REFERENCES scan_runs(id),
	total_score     INTEGER NOT NULL,
	status          TEXT NOT NULL,
	breakdown       TEXT NOT NULL,
	competitors     TEXT,
	recommendations TEXT,
	confidence      TEXT NOT NULL,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS quick_scans (
	fingerprint TEXT PRIMARY KEY,
	data        TEXT NOT NULL,
	cached_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_quick_scans_expires_at ON quick_scans(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertProfile(ctx context.Context, profile *model.BusinessProfile) (*model.BusinessProfile, model.UpsertOutcome, error) {
	p := *profile
	p.Domain = model.NormalizeDomain(p.Domain)
	now := time.Now().UTC()

	locJSON, err := json.Marshal(p.Location)
	if err != nil {
		return nil, "", eris.Wrap(err, "sqlite: marshal location")
	}
	areasJSON, err := json.Marshal(p.ServiceAreas)
	if err != nil {
		return nil, "", eris.Wrap(err, "sqlite: marshal service areas")
	}
	catsJSON, err := json.Marshal(p.Categories)
	if err != nil {
		return nil, "", eris.Wrap(err, "sqlite: marshal categories")
	}
	hoodsJSON, err := json.Marshal(p.Neighborhoods)
	if err != nil {
		return nil, "", eris.Wrap(err, "sqlite: marshal neighborhoods")
	}
	synsJSON, err := json.Marshal(p.BrandSynonyms)
	if err != nil {
		return nil, "", eris.Wrap(err, "sqlite: marshal brand synonyms")
	}
	rivalsJSON, err := json.Marshal(p.CompetitorOverrides)
	if err != nil {
		return nil, "", eris.Wrap(err, "sqlite: marshal competitor overrides")
	}

	var existingID string
	var createdAt time.Time
	err = s.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM profiles WHERE user_id = ? AND domain = ?`,
		p.UserID, p.Domain,
	).Scan(&existingID, &createdAt)

	switch {
	case err == sql.ErrNoRows:
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		p.CreatedAt = now
		p.UpdatedAt = now
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO profiles (id, user_id, name, domain, location, service_areas, service_radius_miles, categories, neighborhoods, brand_synonyms, competitor_overrides, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.UserID, p.Name, p.Domain, string(locJSON), string(areasJSON), p.ServiceRadiusMiles, string(catsJSON), string(hoodsJSON), string(synsJSON), string(rivalsJSON), now, now,
		)
		if err != nil {
			return nil, "", eris.Wrapf(err, "sqlite: insert profile for user %s", p.UserID)
		}
		return &p, model.UpsertCreated, nil

	case err != nil:
		return nil, "", eris.Wrapf(err, "sqlite: lookup profile for user %s", p.UserID)

	default:
		p.ID = existingID
		p.CreatedAt = createdAt
		p.UpdatedAt = now
		_, err = s.db.ExecContext(ctx,
			`UPDATE profiles SET name = ?, location = ?, service_areas = ?, service_radius_miles = ?, categories = ?, neighborhoods = ?, brand_synonyms = ?, competitor_overrides = ?, updated_at = ? WHERE id = ?`,
			p.Name, string(locJSON), string(areasJSON), p.ServiceRadiusMiles, string(catsJSON), string(hoodsJSON), string(synsJSON), string(rivalsJSON), now, existingID,
		)
		if err != nil {
			return nil, "", eris.Wrapf(err, "sqlite: update profile %s", existingID)
		}
		return &p, model.UpsertUpdated, nil
	}
}

func (s *SQLiteStore) GetProfile(ctx context.Context, profileID string) (*model.BusinessProfile, error) {
	var p model.BusinessProfile
	var locJSON, catsJSON string
	var areasJSON, hoodsJSON, synsJSON, rivalsJSON sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, domain, location, service_areas, service_radius_miles, categories, neighborhoods, brand_synonyms, competitor_overrides, created_at, updated_at
		 FROM profiles WHERE id = ?`,
		profileID,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.Domain, &locJSON, &areasJSON, &p.ServiceRadiusMiles, &catsJSON, &hoodsJSON, &synsJSON, &rivalsJSON, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get profile %s", profileID)
	}

	if err := json.Unmarshal([]byte(locJSON), &p.Location); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal location")
	}
	if err := json.Unmarshal([]byte(catsJSON), &p.Categories); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal categories")
	}
	for _, f := range []struct {
		raw sql.NullString
		dst any
	}{
		{areasJSON, &p.ServiceAreas},
		{hoodsJSON, &p.Neighborhoods},
		{synsJSON, &p.BrandSynonyms},
		{rivalsJSON, &p.CompetitorOverrides},
	} {
		if !f.raw.Valid || f.raw.String == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.raw.String), f.dst); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal profile field")
		}
	}
	return &p, nil
}

func (s *SQLiteStore) ReplacePromptTemplates(ctx context.Context, profileID string, templates []model.PromptTemplate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace prompts")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE prompt_templates SET active = 0 WHERE profile_id = ? AND active = 1`, profileID); err != nil {
		return eris.Wrapf(err, "sqlite: deactivate prompts for profile %s", profileID)
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
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO prompt_templates (id, profile_id, layer, text, intent, active, created_at) VALUES (?, ?, ?, ?, ?, 1, ?)`,
			t.ID, t.ProfileID, string(t.Layer), t.Text, t.Intent, t.CreatedAt,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert prompt for profile %s", profileID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit replace prompts")
}

func (s *SQLiteStore) ListActivePrompts(ctx context.Context, profileID string) ([]model.PromptTemplate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, profile_id, layer, text, intent, active, created_at FROM prompt_templates WHERE profile_id = ? AND active = 1 ORDER BY created_at, id`,
		profileID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list prompts for profile %s", profileID)
	}
	defer rows.Close()

	var prompts []model.PromptTemplate
	for rows.Next() {
		var t model.PromptTemplate
		if err := rows.Scan(&t.ID, &t.ProfileID, &t.Layer, &t.Text, &t.Intent, &t.Active, &t.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan prompt")
		}
		prompts = append(prompts, t)
	}
	return prompts, eris.Wrap(rows.Err(), "sqlite: list prompts iterate")
}

func (s *SQLiteStore) ListPrompts(ctx context.Context, profileID string) ([]model.PromptTemplate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, profile_id, layer, text, intent, active, created_at FROM prompt_templates WHERE profile_id = ? ORDER BY created_at, id`,
		profileID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list all prompts for profile %s", profileID)
	}
	defer rows.Close()

	var prompts []model.PromptTemplate
	for rows.Next() {
		var t model.PromptTemplate
		if err := rows.Scan(&t.ID, &t.ProfileID, &t.Layer, &t.Text, &t.Intent, &t.Active, &t.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan prompt")
		}
		prompts = append(prompts, t)
	}
	return prompts, eris.Wrap(rows.Err(), "sqlite: list all prompts iterate")
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run *model.ScanRun) error {
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
		return eris.Wrap(err, "sqlite: marshal models")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scan_runs (id, profile_id, status, models, cache_key, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.ProfileID, string(run.Status), string(modelsJSON), run.CacheKey, run.StartedAt,
	)
	return eris.Wrapf(err, "sqlite: insert run for profile %s", run.ProfileID)
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scan_runs SET status = ? WHERE id = ?`,
		string(status), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res)
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, status model.RunStatus, errorCount int, quality model.QualityFlags) error {
	qualityJSON, err := json.Marshal(quality)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal quality")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE scan_runs SET status = ?, error_count = ?, quality = ?, finished_at = ? WHERE id = ?`,
		string(status), errorCount, string(qualityJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.ScanRun, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT id, profile_id, status, models, cache_key, error_count, quality, started_at, finished_at FROM scan_runs WHERE id = ?`,
		runID,
	))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.ScanRun, error) {
	query := `SELECT id, profile_id, status, models, cache_key, error_count, quality, started_at, finished_at FROM scan_runs WHERE 1=1`
	var args []any

	if filter.ProfileID != "" {
		query += ` AND profile_id = ?`
		args = append(args, filter.ProfileID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.ScanRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) FindCachedRun(ctx context.Context, profileID, cacheKey string, finishedAfter time.Time) (*model.ScanRun, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT id, profile_id, status, models, cache_key, error_count, quality, started_at, finished_at
		 FROM scan_runs
		 WHERE profile_id = ? AND cache_key = ? AND status = ? AND finished_at >= ?
		 ORDER BY finished_at DESC LIMIT 1`,
		profileID, cacheKey, string(model.RunStatusComplete), finishedAfter,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find cached run for profile %s", profileID)
	}
	return r, nil
}

func (s *SQLiteStore) InsertResults(ctx context.Context, results []model.ScanResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin insert results")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO scan_results (id, run_id, prompt_id, layer, model, mentioned, recommended, position, competitors, response, citations, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert result")
	}
	defer stmt.Close()

	now := time.Now().UTC()
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
			return eris.Wrap(err, "sqlite: marshal competitors")
		}
		citationsJSON, err := json.Marshal(r.Citations)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal citations")
		}
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.RunID, r.PromptID, string(r.Layer), r.Model,
			r.Mentioned, r.Recommended, r.Position, string(rivalsJSON), r.Response, string(citationsJSON), r.CreatedAt,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert result for run %s", r.RunID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit insert results")
}

func (s *SQLiteStore) ListResults(ctx context.Context, runID string) ([]model.ScanResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, prompt_id, layer, model, mentioned, recommended, position, competitors, response, citations, created_at
		 FROM scan_results WHERE run_id = ? ORDER BY created_at, id`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list results for run %s", runID)
	}
	defer rows.Close()

	var results []model.ScanResult
	for rows.Next() {
		var r model.ScanResult
		var position sql.NullInt64
		var rivalsJSON, citationsJSON sql.NullString
		if err := rows.Scan(&r.ID, &r.RunID, &r.PromptID, &r.Layer, &r.Model, &r.Mentioned, &r.Recommended, &position, &rivalsJSON, &r.Response, &citationsJSON, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result")
		}
		if position.Valid {
			p := int(position.Int64)
			r.Position = &p
		}
		if rivalsJSON.Valid && rivalsJSON.String != "" {
			if err := json.Unmarshal([]byte(rivalsJSON.String), &r.Competitors); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal competitors")
			}
		}
		if citationsJSON.Valid && citationsJSON.String != "" {
			if err := json.Unmarshal([]byte(citationsJSON.String), &r.Citations); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal citations")
			}
		}
		results = append(results, r)
	}
	return results, eris.Wrap(rows.Err(), "sqlite: list results iterate")
}

func (s *SQLiteStore) UpdateResultCitations(ctx context.Context, resultID string, citations []model.Citation) error {
	citationsJSON, err := json.Marshal(citations)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal citations")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE scan_results SET citations = ? WHERE id = ?`,
		string(citationsJSON), resultID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update citations %s", resultID)
	}
	return checkRowsAffected(res)
}

func (s *SQLiteStore) SaveScore(ctx context.Context, score *model.ScoreRecord) error {
	if score.ID == "" {
		score.ID = uuid.New().String()
	}
	if score.CreatedAt.IsZero() {
		score.CreatedAt = time.Now().UTC()
	}

	breakdownJSON, err := json.Marshal(score.Breakdown)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal breakdown")
	}
	rivalsJSON, err := json.Marshal(score.Competitors)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal competitors")
	}
	recsJSON, err := json.Marshal(score.Recommendations)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal recommendations")
	}
	confJSON, err := json.Marshal(score.Confidence)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal confidence")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO score_records (id, run_id, total_score, status, breakdown, competitors, recommendations, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		score.ID, score.RunID, score.TotalScore, string(score.Status), string(breakdownJSON), string(rivalsJSON), string(recsJSON), string(confJSON), score.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: save score for run %s", score.RunID)
}

func (s *SQLiteStore) GetScore(ctx context.Context, runID string) (*model.ScoreRecord, error) {
	var sc model.ScoreRecord
	var breakdownJSON, confJSON string
	var rivalsJSON, recsJSON sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, run_id, total_score, status, breakdown, competitors, recommendations, confidence, created_at
		 FROM score_records WHERE run_id = ?`,
		runID,
	).Scan(&sc.ID, &sc.RunID, &sc.TotalScore, &sc.Status, &breakdownJSON, &rivalsJSON, &recsJSON, &confJSON, &sc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get score for run %s", runID)
	}

	if err := json.Unmarshal([]byte(breakdownJSON), &sc.Breakdown); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal breakdown")
	}
	if rivalsJSON.Valid && rivalsJSON.String != "" {
		if err := json.Unmarshal([]byte(rivalsJSON.String), &sc.Competitors); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal competitors")
		}
	}
	if recsJSON.Valid && recsJSON.String != "" {
		if err := json.Unmarshal([]byte(recsJSON.String), &sc.Recommendations); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal recommendations")
		}
	}
	if err := json.Unmarshal([]byte(confJSON), &sc.Confidence); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal confidence")
	}
	return &sc, nil
}

func (s *SQLiteStore) GetQuickScan(ctx context.Context, fingerprint string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM quick_scans WHERE fingerprint = ? AND expires_at > ?`,
		fingerprint, time.Now().UTC(),
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get quick scan %s", fingerprint)
	}
	return []byte(data), nil
}

func (s *SQLiteStore) SetQuickScan(ctx context.Context, fingerprint string, data []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quick_scans (fingerprint, data, cached_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (fingerprint) DO UPDATE SET data = excluded.data, cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		fingerprint, string(data), now, now.Add(ttl),
	)
	return eris.Wrapf(err, "sqlite: set quick scan %s", fingerprint)
}

func (s *SQLiteStore) DeleteExpiredQuickScans(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM quick_scans WHERE expires_at <= ?`, time.Now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired quick scans")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

// helpers

func checkRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.ScanRun, error) {
	var r model.ScanRun
	var modelsJSON string
	var qualityJSON sql.NullString
	var finishedAt sql.NullTime

	if err := row.Scan(&r.ID, &r.ProfileID, &r.Status, &modelsJSON, &r.CacheKey, &r.ErrorCount, &qualityJSON, &r.StartedAt, &finishedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(modelsJSON), &r.Models); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal models")
	}
	if qualityJSON.Valid && qualityJSON.String != "" {
		if err := json.Unmarshal([]byte(qualityJSON.String), &r.Quality); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal quality")
		}
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		r.FinishedAt = &t
	}
	return &r, nil
}
