package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/localsignal/visibility-cli/internal/model"
)

// ErrNotFound is returned by lookups whose subject does not exist.
// Cache getters return (nil, nil) on miss instead; a miss is not an error.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	ProfileID string          `json:"profile_id,omitempty"`
	Status    model.RunStatus `json:"status,omitempty"`
	Limit     int             `json:"limit,omitempty"`
	Offset    int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the scan pipeline.
type Store interface {
	// Profiles. Upsert is idempotent on (user, normalized domain) and
	// reports whether it created or updated the row.
	UpsertProfile(ctx context.Context, profile *model.BusinessProfile) (*model.BusinessProfile, model.UpsertOutcome, error)
	GetProfile(ctx context.Context, profileID string) (*model.BusinessProfile, error)

	// Prompt templates. Replace deactivates the prior set and inserts
	// the new one; old rows are kept because past run results still
	// reference them.
	ReplacePromptTemplates(ctx context.Context, profileID string, templates []model.PromptTemplate) error
	ListActivePrompts(ctx context.Context, profileID string) ([]model.PromptTemplate, error)
	// ListPrompts returns every template for the profile, active or not.
	ListPrompts(ctx context.Context, profileID string) ([]model.PromptTemplate, error)

	// Runs.
	CreateRun(ctx context.Context, run *model.ScanRun) error
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	FinishRun(ctx context.Context, runID string, status model.RunStatus, errorCount int, quality model.QualityFlags) error
	GetRun(ctx context.Context, runID string) (*model.ScanRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.ScanRun, error)
	// FindCachedRun returns the newest complete run for the cache key
	// finished at or after the cutoff, or nil when there is none.
	FindCachedRun(ctx context.Context, profileID, cacheKey string, finishedAfter time.Time) (*model.ScanRun, error)

	// Results are write-once; only citations mutate afterward.
	InsertResults(ctx context.Context, results []model.ScanResult) error
	ListResults(ctx context.Context, runID string) ([]model.ScanResult, error)
	UpdateResultCitations(ctx context.Context, resultID string, citations []model.Citation) error

	// Scores are computed once per run and immutable.
	SaveScore(ctx context.Context, score *model.ScoreRecord) error
	GetScore(ctx context.Context, runID string) (*model.ScoreRecord, error)

	// Quick-score cache, keyed by fingerprint.
	GetQuickScan(ctx context.Context, fingerprint string) ([]byte, error)
	SetQuickScan(ctx context.Context, fingerprint string, data []byte, ttl time.Duration) error

	// Lifecycle.
	Migrate(ctx context.Context) error
	Close() error
}
