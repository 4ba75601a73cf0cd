package scan

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/localsignal/visibility-cli/internal/fingerprint"
	"github.com/localsignal/visibility-cli/internal/scoring"
)

// QuickScore computes the standalone fingerprint-cached visibility
// score. No subscription gating: this is the free demo path. The
// second return reports whether the answer came from the cache.
func (s *Service) QuickScore(ctx context.Context, name, website, city, category string, ttl time.Duration) (*scoring.QuickScore, bool, error) {
	fp := fingerprint.Token(name, website, city, category)

	if data, err := s.store.GetQuickScan(ctx, fp); err != nil {
		return nil, false, eris.Wrap(err, "scan: quick scan cache lookup")
	} else if data != nil {
		var cached scoring.QuickScore
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, true, nil
		}
		// A corrupt cache entry falls through to recomputation.
		zap.L().Warn("discarding unreadable quick scan cache entry", zap.String("fingerprint", fp))
	}

	qs := scoring.ComputeQuickScore(name, website, city, category)

	data, err := json.Marshal(qs)
	if err != nil {
		return nil, false, eris.Wrap(err, "scan: marshal quick score")
	}
	if err := s.store.SetQuickScan(ctx, fp, data, ttl); err != nil {
		return nil, false, eris.Wrap(err, "scan: cache quick score")
	}
	return &qs, false, nil
}
