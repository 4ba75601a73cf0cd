package scan

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/localsignal/visibility-cli/internal/model"
	"github.com/localsignal/visibility-cli/internal/store"
)

// fakeStore is an in-memory store.Store for orchestrator and executor
// tests.
type fakeStore struct {
	mu        sync.Mutex
	profiles  map[string]*model.BusinessProfile
	prompts   map[string][]model.PromptTemplate
	runs      map[string]*model.ScanRun
	results   map[string][]model.ScanResult
	scores    map[string]*model.ScoreRecord
	quick     map[string][]byte
	quickSets int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: make(map[string]*model.BusinessProfile),
		prompts:  make(map[string][]model.PromptTemplate),
		runs:     make(map[string]*model.ScanRun),
		results:  make(map[string][]model.ScanResult),
		scores:   make(map[string]*model.ScoreRecord),
		quick:    make(map[string][]byte),
	}
}

func (f *fakeStore) UpsertProfile(_ context.Context, profile *model.BusinessProfile) (*model.BusinessProfile, model.UpsertOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := *profile
	p.Domain = model.NormalizeDomain(p.Domain)
	for _, existing := range f.profiles {
		if existing.UserID == p.UserID && existing.Domain == p.Domain {
			p.ID = existing.ID
			p.CreatedAt = existing.CreatedAt
			p.UpdatedAt = time.Now().UTC()
			f.profiles[p.ID] = &p
			return &p, model.UpsertUpdated, nil
		}
	}
	p.ID = uuid.New().String()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	f.profiles[p.ID] = &p
	return &p, model.UpsertCreated, nil
}

func (f *fakeStore) GetProfile(_ context.Context, profileID string) (*model.BusinessProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[profileID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) ReplacePromptTemplates(_ context.Context, profileID string, templates []model.PromptTemplate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	prior := f.prompts[profileID]
	for i := range prior {
		prior[i].Active = false
	}
	now := time.Now().UTC()
	for i := range templates {
		if templates[i].ID == "" {
			templates[i].ID = uuid.New().String()
		}
		templates[i].ProfileID = profileID
		templates[i].Active = true
		templates[i].CreatedAt = now
	}
	f.prompts[profileID] = append(prior, templates...)
	return nil
}

func (f *fakeStore) ListActivePrompts(_ context.Context, profileID string) ([]model.PromptTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var active []model.PromptTemplate
	for _, t := range f.prompts[profileID] {
		if t.Active {
			active = append(active, t)
		}
	}
	return active, nil
}

func (f *fakeStore) ListPrompts(_ context.Context, profileID string) ([]model.PromptTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.PromptTemplate(nil), f.prompts[profileID]...), nil
}

func (f *fakeStore) CreateRun(_ context.Context, run *model.ScanRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.Status == "" {
		run.Status = model.RunStatusQueued
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	cp := *run
	f.runs[run.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateRunStatus(_ context.Context, runID string, status model.RunStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[runID]
	if !ok {
		return store.ErrNotFound
	}
	r.Status = status
	return nil
}

func (f *fakeStore) FinishRun(_ context.Context, runID string, status model.RunStatus, errorCount int, quality model.QualityFlags) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[runID]
	if !ok {
		return store.ErrNotFound
	}
	now := time.Now().UTC()
	r.Status = status
	r.ErrorCount = errorCount
	r.Quality = quality
	r.FinishedAt = &now
	return nil
}

func (f *fakeStore) GetRun(_ context.Context, runID string) (*model.ScanRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.runs[runID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) ListRuns(_ context.Context, filter store.RunFilter) ([]model.ScanRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ScanRun
	for _, r := range f.runs {
		if filter.ProfileID != "" && r.ProfileID != filter.ProfileID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeStore) FindCachedRun(_ context.Context, profileID, cacheKey string, finishedAfter time.Time) (*model.ScanRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *model.ScanRun
	for _, r := range f.runs {
		if r.ProfileID != profileID || r.CacheKey != cacheKey || r.Status != model.RunStatusComplete {
			continue
		}
		if r.FinishedAt == nil || r.FinishedAt.Before(finishedAfter) {
			continue
		}
		if best == nil || r.FinishedAt.After(*best.FinishedAt) {
			best = r
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (f *fakeStore) InsertResults(_ context.Context, results []model.ScanResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	for i := range results {
		if results[i].ID == "" {
			results[i].ID = uuid.New().String()
		}
		if results[i].CreatedAt.IsZero() {
			results[i].CreatedAt = now
		}
		f.results[results[i].RunID] = append(f.results[results[i].RunID], results[i])
	}
	return nil
}

func (f *fakeStore) ListResults(_ context.Context, runID string) ([]model.ScanResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ScanResult(nil), f.results[runID]...), nil
}

func (f *fakeStore) UpdateResultCitations(_ context.Context, resultID string, citations []model.Citation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for runID, results := range f.results {
		for i := range results {
			if results[i].ID == resultID {
				f.results[runID][i].Citations = citations
				return nil
			}
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) SaveScore(_ context.Context, score *model.ScoreRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *score
	f.scores[score.RunID] = &cp
	return nil
}

func (f *fakeStore) GetScore(_ context.Context, runID string) (*model.ScoreRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sc, ok := f.scores[runID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *sc
	return &cp, nil
}

func (f *fakeStore) GetQuickScan(_ context.Context, fingerprint string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quick[fingerprint], nil
}

func (f *fakeStore) SetQuickScan(_ context.Context, fingerprint string, data []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quick[fingerprint] = data
	f.quickSets++
	return nil
}

func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Close() error                  { return nil }

var _ store.Store = (*fakeStore)(nil)
