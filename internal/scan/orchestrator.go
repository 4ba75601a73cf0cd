package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/localsignal/visibility-cli/internal/billing"
	"github.com/localsignal/visibility-cli/internal/citations"
	"github.com/localsignal/visibility-cli/internal/config"
	"github.com/localsignal/visibility-cli/internal/model"
	"github.com/localsignal/visibility-cli/internal/prompts"
	"github.com/localsignal/visibility-cli/internal/store"
)

// Service is the run orchestrator: it owns tier gating, cache
// resolution, and run bookkeeping. Model calls happen in the executor.
type Service struct {
	store       store.Store
	billing     billing.Store
	generator   *prompts.Generator
	callers     *Registry
	verifier    *citations.Verifier
	cacheTTL    time.Duration
	concurrency int
	callTimeout time.Duration
}

// NewService wires the orchestrator from config and collaborators.
func NewService(st store.Store, bill billing.Store, gen *prompts.Generator, callers *Registry, cfg config.ScanConfig, citCfg config.CitationsConfig) *Service {
	if callers == nil {
		callers = NewRegistry()
	}
	return &Service{
		store:     st,
		billing:   bill,
		generator: gen,
		callers:   callers,
		verifier: citations.NewVerifier(citations.Options{
			Concurrency: citCfg.Concurrency,
			Timeout:     time.Duration(citCfg.TimeoutSecs) * time.Second,
		}),
		cacheTTL:    time.Duration(cfg.CacheTTLHours) * time.Hour,
		concurrency: cfg.Concurrency,
		callTimeout: time.Duration(cfg.CallTimeoutSecs) * time.Second,
	}
}

// UpsertProfile validates and persists a business profile for a user.
func (s *Service) UpsertProfile(ctx context.Context, userID string, profile *model.BusinessProfile) (*model.BusinessProfile, model.UpsertOutcome, error) {
	profile.UserID = userID
	if fieldErrs := profile.Validate(); len(fieldErrs) > 0 {
		return nil, "", validationError(fieldErrs)
	}

	saved, outcome, err := s.store.UpsertProfile(ctx, profile)
	if err != nil {
		return nil, "", eris.Wrap(err, "scan: upsert profile")
	}
	zap.L().Info("profile upserted",
		zap.String("profile_id", saved.ID),
		zap.String("domain", saved.Domain),
		zap.String("outcome", string(outcome)))
	return saved, outcome, nil
}

// GeneratePrompts builds the four-layer taxonomy for a profile and
// replaces its active template set, returning per-layer counts.
func (s *Service) GeneratePrompts(ctx context.Context, userID, profileID string) (map[model.Layer]int, error) {
	profile, err := s.ownedProfile(ctx, userID, profileID)
	if err != nil {
		return nil, err
	}

	templates := s.generator.Generate(profile)
	if err := s.store.ReplacePromptTemplates(ctx, profileID, templates); err != nil {
		return nil, eris.Wrap(err, "scan: replace prompt templates")
	}

	counts := prompts.CountByLayer(templates)
	zap.L().Info("prompts generated",
		zap.String("profile_id", profileID),
		zap.Int("total", len(templates)))
	return counts, nil
}

// RunRef is the orchestrator's answer to a run request: either a fresh
// queued run or a reference to a cached complete one.
type RunRef struct {
	RunID  string `json:"run_id"`
	Cached bool   `json:"cached"`
}

// CreateRun gates, resolves the cache, and creates a queued run on a
// miss. It does not execute the run; callers hand the returned run id
// to ExecuteRun (directly or in a goroutine) and poll its status.
func (s *Service) CreateRun(ctx context.Context, userID, profileID string, modelsRequested []string, force bool) (*RunRef, error) {
	profile, err := s.ownedProfile(ctx, userID, profileID)
	if err != nil {
		return nil, err
	}

	roster, err := s.gate(ctx, userID, modelsRequested)
	if err != nil {
		return nil, err
	}

	active, err := s.store.ListActivePrompts(ctx, profileID)
	if err != nil {
		return nil, eris.Wrap(err, "scan: list active prompts")
	}
	if len(active) == 0 {
		return nil, &Error{Kind: KindNoPrompts, Message: "no active prompt templates; generate prompts first"}
	}

	key := CacheKey(profileID, roster, len(active), time.Now().UTC())

	if !force {
		cached, err := s.store.FindCachedRun(ctx, profileID, key, time.Now().UTC().Add(-s.cacheTTL))
		if err != nil {
			return nil, eris.Wrap(err, "scan: cache lookup")
		}
		if cached != nil {
			zap.L().Info("run cache hit",
				zap.String("profile_id", profileID),
				zap.String("run_id", cached.ID))
			return &RunRef{RunID: cached.ID, Cached: true}, nil
		}
	}

	run := &model.ScanRun{
		ProfileID: profile.ID,
		Status:    model.RunStatusQueued,
		Models:    roster,
		CacheKey:  key,
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		return nil, eris.Wrap(err, "scan: create run")
	}
	zap.L().Info("run created",
		zap.String("profile_id", profileID),
		zap.String("run_id", run.ID),
		zap.Strings("models", roster))
	return &RunRef{RunID: run.ID, Cached: false}, nil
}

// gate enforces subscription requirements and resolves the model
// roster: the tier default, or the requested subset when every
// requested model is within the caller's entitlement.
func (s *Service) gate(ctx context.Context, userID string, modelsRequested []string) ([]string, error) {
	sub, err := s.billing.Lookup(ctx, userID)
	if err != nil {
		return nil, eris.Wrap(err, "scan: billing lookup")
	}

	if !sub.Subscribed || !sub.PaymentCollected {
		return nil, &Error{
			Kind:         KindSubscriptionRequired,
			Message:      "an active paid subscription is required to run scans",
			CurrentTier:  sub.Tier,
			RequiredTier: billing.TierStarter,
		}
	}
	if !billing.Allowed(sub.Tier) {
		return nil, &Error{
			Kind:         KindPlanUpgradeRequired,
			Message:      fmt.Sprintf("tier %q cannot run scans", sub.Tier),
			CurrentTier:  sub.Tier,
			RequiredTier: billing.TierStarter,
		}
	}

	roster := billing.RosterFor(sub.Tier)
	if len(modelsRequested) == 0 {
		return roster, nil
	}

	entitled := make(map[string]bool, len(roster))
	for _, m := range roster {
		entitled[m] = true
	}
	for _, m := range modelsRequested {
		if !entitled[m] {
			return nil, &Error{
				Kind:         KindPlanUpgradeRequired,
				Message:      fmt.Sprintf("model %q is not included in the %s tier", m, sub.Tier),
				CurrentTier:  sub.Tier,
				RequiredTier: requiredTierFor(m),
			}
		}
	}
	return modelsRequested, nil
}

// requiredTierFor names the lowest tier whose roster includes the model.
func requiredTierFor(modelName string) string {
	for _, tier := range []string{billing.TierStarter, billing.TierGrowth, billing.TierScale} {
		for _, m := range billing.RosterFor(tier) {
			if m == modelName {
				return tier
			}
		}
	}
	return billing.TierScale
}

// SampleResponse is one illustrative model answer from a run.
type SampleResponse struct {
	Model    string `json:"model"`
	Prompt   string `json:"prompt"`
	Response string `json:"response"`
}

// RunDetail is the assembled view of one run for its owner.
type RunDetail struct {
	Profile         *model.BusinessProfile  `json:"profile"`
	Run             *model.ScanRun          `json:"run"`
	Score           *model.ScoreRecord      `json:"score,omitempty"`
	Highlights      []string                `json:"highlights,omitempty"`
	TopCompetitors  []model.CompetitorRank  `json:"top_competitors,omitempty"`
	SampleResponses []SampleResponse        `json:"sample_responses,omitempty"`
	Confidence      *model.ConfidenceReport `json:"confidence,omitempty"`
}

const maxSampleResponses = 3

// GetRunDetail loads a run with its score and derived highlights,
// enforcing row ownership via the owning profile.
func (s *Service) GetRunDetail(ctx context.Context, userID, runID string) (*RunDetail, error) {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			return nil, notFoundError("run", runID)
		}
		return nil, eris.Wrap(err, "scan: get run")
	}

	profile, err := s.ownedProfile(ctx, userID, run.ProfileID)
	if err != nil {
		return nil, err
	}

	detail := &RunDetail{Profile: profile, Run: run}

	score, err := s.store.GetScore(ctx, runID)
	if err != nil && !eris.Is(err, store.ErrNotFound) {
		return nil, eris.Wrap(err, "scan: get score")
	}
	if score != nil {
		detail.Score = score
		detail.TopCompetitors = score.Competitors
		detail.Confidence = &score.Confidence
	}

	results, err := s.store.ListResults(ctx, runID)
	if err != nil {
		return nil, eris.Wrap(err, "scan: list results")
	}

	// Results reference prompt rows that a later regeneration may have
	// deactivated, so resolve texts against every template for the
	// profile.
	templates, err := s.store.ListPrompts(ctx, run.ProfileID)
	if err != nil {
		return nil, eris.Wrap(err, "scan: list prompts")
	}
	promptText := make(map[string]string, len(templates))
	for _, p := range templates {
		promptText[p.ID] = p.Text
	}

	for _, r := range results {
		if r.Recommended {
			detail.Highlights = append(detail.Highlights,
				fmt.Sprintf("%s recommended %s for %q", r.Model, profile.Name, promptText[r.PromptID]))
		}
		if r.Response != "" && len(detail.SampleResponses) < maxSampleResponses {
			detail.SampleResponses = append(detail.SampleResponses, SampleResponse{
				Model:    r.Model,
				Prompt:   promptText[r.PromptID],
				Response: r.Response,
			})
		}
	}
	return detail, nil
}

// ListRuns returns the user's runs for a profile.
func (s *Service) ListRuns(ctx context.Context, userID string, filter store.RunFilter) ([]model.ScanRun, error) {
	if filter.ProfileID != "" {
		if _, err := s.ownedProfile(ctx, userID, filter.ProfileID); err != nil {
			return nil, err
		}
	}
	runs, err := s.store.ListRuns(ctx, filter)
	return runs, eris.Wrap(err, "scan: list runs")
}

// GetProfile loads a profile for its owner.
func (s *Service) GetProfile(ctx context.Context, userID, profileID string) (*model.BusinessProfile, error) {
	return s.ownedProfile(ctx, userID, profileID)
}

// ownedProfile loads a profile and enforces row ownership.
func (s *Service) ownedProfile(ctx context.Context, userID, profileID string) (*model.BusinessProfile, error) {
	profile, err := s.store.GetProfile(ctx, profileID)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			return nil, notFoundError("profile", profileID)
		}
		return nil, eris.Wrap(err, "scan: get profile")
	}
	if profile.UserID != userID {
		return nil, accessDeniedError("profile", profileID)
	}
	return profile, nil
}
