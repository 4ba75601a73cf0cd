package scan

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/localsignal/visibility-cli/internal/citations"
	"github.com/localsignal/visibility-cli/internal/model"
	"github.com/localsignal/visibility-cli/internal/resilience"
	"github.com/localsignal/visibility-cli/internal/scoring"
)

// ExecuteRun drives a queued run to a terminal status: fan out
// prompt-by-model calls, persist write-once results, score, verify
// citations, and finish the run. Individual call failures are counted
// and degrade confidence; only infrastructure failures (store errors)
// abort the run with status error.
func (s *Service) ExecuteRun(ctx context.Context, runID string) error {
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return eris.Wrap(err, "scan: load run")
	}
	if run.Finished() {
		return eris.Errorf("scan: run %s already finished", runID)
	}

	profile, err := s.store.GetProfile(ctx, run.ProfileID)
	if err != nil {
		return s.fail(ctx, runID, eris.Wrap(err, "scan: load profile"))
	}
	active, err := s.store.ListActivePrompts(ctx, run.ProfileID)
	if err != nil {
		return s.fail(ctx, runID, eris.Wrap(err, "scan: load prompts"))
	}

	if err := s.store.UpdateRunStatus(ctx, runID, model.RunStatusRunning); err != nil {
		return eris.Wrap(err, "scan: mark running")
	}

	results, errorCount := s.collect(ctx, run, profile, active)

	// Errored calls are already counted; the partial flag covers only
	// slots missing beyond them.
	expected := len(active) * len(run.Models)
	quality := model.QualityFlags{PartialResults: len(results)+errorCount < expected}

	if err := s.store.InsertResults(ctx, results); err != nil {
		return s.fail(ctx, runID, eris.Wrap(err, "scan: insert results"))
	}

	// Confidence is assessed against the finished run's metadata, so
	// fill in what FinishRun is about to record.
	run.ErrorCount = errorCount
	run.Quality = quality

	outcomes := make([]scoring.Outcome, len(results))
	for i, r := range results {
		outcomes[i] = scoring.Outcome{
			Layer:       r.Layer,
			Mentioned:   r.Mentioned,
			Recommended: r.Recommended,
			Position:    r.Position,
			Competitors: r.Competitors,
		}
	}
	score := scoring.BuildScore(runID, outcomes, len(active), len(run.Models))
	score.Confidence = scoring.Assess(run, len(results))

	if err := s.store.SaveScore(ctx, score); err != nil {
		return s.fail(ctx, runID, eris.Wrap(err, "scan: save score"))
	}

	s.verifyCitations(ctx, results)

	if err := s.store.FinishRun(ctx, runID, model.RunStatusComplete, errorCount, quality); err != nil {
		return eris.Wrap(err, "scan: finish run")
	}
	zap.L().Info("run complete",
		zap.String("run_id", runID),
		zap.Int("results", len(results)),
		zap.Int("errors", errorCount),
		zap.Int("score", score.TotalScore))
	return nil
}

// collect fans out every prompt-model pair with bounded concurrency.
// Failed calls are logged and counted; their slots stay empty.
func (s *Service) collect(ctx context.Context, run *model.ScanRun, profile *model.BusinessProfile, active []model.PromptTemplate) ([]model.ScanResult, int) {
	var (
		mu         sync.Mutex
		results    []model.ScanResult
		errorCount int
	)

	g, gctx := errgroup.WithContext(ctx)
	limit := s.concurrency
	if limit <= 0 {
		limit = 4
	}
	g.SetLimit(limit)

	for _, prompt := range active {
		for _, modelName := range run.Models {
			g.Go(func() error {
				callCtx := gctx
				if s.callTimeout > 0 {
					var cancel context.CancelFunc
					callCtx, cancel = context.WithTimeout(gctx, s.callTimeout)
					defer cancel()
				}

				resp, err := resilience.DoVal(callCtx, resilience.RetryConfig{
					MaxAttempts:    2,
					InitialBackoff: time.Second,
					OnRetry:        resilience.RetryLogger(modelName, "prompt call"),
				}, func(ctx context.Context) (Response, error) {
					return s.callers.For(modelName).Call(ctx, profile, prompt.Text)
				})

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errorCount++
					zap.L().Warn("model call failed",
						zap.String("run_id", run.ID),
						zap.String("model", modelName),
						zap.String("prompt_id", prompt.ID),
						zap.Error(err))
					return nil
				}
				results = append(results, model.ScanResult{
					RunID:       run.ID,
					PromptID:    prompt.ID,
					Layer:       prompt.Layer,
					Model:       modelName,
					Mentioned:   resp.Mentioned,
					Recommended: resp.Recommended,
					Position:    resp.Position,
					Competitors: resp.Competitors,
					Response:    resp.Text,
					Citations:   resp.Citations,
				})
				return nil
			})
		}
	}
	_ = g.Wait()

	return results, errorCount
}

// verifyCitations runs the accessibility verifier over each result's
// citations and writes the mutated lists back. Verification is best
// effort: a failure here never fails the run.
func (s *Service) verifyCitations(ctx context.Context, results []model.ScanResult) {
	for i := range results {
		r := &results[i]
		if len(r.Citations) == 0 {
			continue
		}
		citations.BestEffort("update result citations", func() error {
			summary := s.verifier.Verify(ctx, r.Citations)
			r.Citations = summary.Citations
			return s.store.UpdateResultCitations(ctx, r.ID, summary.Citations)
		})
	}
}

// fail transitions the run to error status, preserving the original
// cause as the returned error.
func (s *Service) fail(ctx context.Context, runID string, cause error) error {
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.store.FinishRun(finishCtx, runID, model.RunStatusError, 0, model.QualityFlags{}); err != nil {
		zap.L().Error("mark run failed", zap.String("run_id", runID), zap.Error(err))
	}
	return cause
}
