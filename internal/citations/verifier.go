// Package citations validates that source URLs cited by AI responses are
// actually reachable. Verification is batched: each batch issues its
// requests concurrently and fully resolves before the next batch starts,
// bounding peak outbound connections.
package citations

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/localsignal/visibility-cli/internal/model"
)

// Options tunes the verifier. Zero values pick the defaults.
type Options struct {
	Concurrency int           // batch size; observed values 3-5
	Timeout     time.Duration // per-request hard timeout; observed 3-5s
	HTTPClient  *http.Client
}

// Verifier checks citation URLs in bounded concurrent batches.
type Verifier struct {
	client      *http.Client
	concurrency int
	timeout     time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewVerifier builds a Verifier from options.
func NewVerifier(opts Options) *Verifier {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: opts.Concurrency,
				IdleConnTimeout:     30 * time.Second,
			},
			// Per-request deadlines come from context; no client-wide
			// timeout on top.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}
	return &Verifier{
		client:      client,
		concurrency: opts.Concurrency,
		timeout:     opts.Timeout,
		limiters:    make(map[string]*rate.Limiter),
	}
}

// Summary is the result of one verification pass.
type Summary struct {
	Citations       []model.Citation `json:"citations"`
	Accessible      []model.Citation `json:"accessible"`
	Total           int              `json:"total"`
	Validated       int              `json:"validated"`
	AccessibleCount int              `json:"accessible_count"`
	Filtered        int              `json:"filtered"`
}

// Verify checks every citation and returns the full validated list plus
// the accessible-only filtered list. A timeout or network failure is
// recorded on the citation as inaccessible, never raised: a broken link
// is data, not an exception. Context cancellation marks the remaining
// unchecked citations as failed and returns what was gathered.
func (v *Verifier) Verify(ctx context.Context, citations []model.Citation) Summary {
	out := make([]model.Citation, len(citations))
	copy(out, citations)

	for start := 0; start < len(out); start += v.concurrency {
		end := start + v.concurrency
		if end > len(out) {
			end = len(out)
		}

		if ctx.Err() != nil {
			for i := start; i < len(out); i++ {
				out[i].Status = model.CitationFailed
				out[i].Accessible = false
				out[i].ValidationError = "verification cancelled"
			}
			break
		}

		// One batch: all requests in flight together, then wait for the
		// whole batch before moving on.
		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				v.check(ctx, &out[i])
				return nil
			})
		}
		_ = g.Wait()
	}

	summary := Summary{Citations: out, Total: len(out)}
	for _, c := range out {
		if c.Status == model.CitationCompleted {
			summary.Validated++
		}
		if c.Accessible {
			summary.AccessibleCount++
			summary.Accessible = append(summary.Accessible, c)
		}
	}
	summary.Filtered = len(summary.Accessible)
	return summary
}

// check performs the existence probe for one citation, mutating it in
// place through the validating -> completed state machine.
func (v *Verifier) check(ctx context.Context, c *model.Citation) {
	c.Status = model.CitationValidating

	reqCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	if host := hostOf(c.URL); host != "" {
		if err := v.limiterFor(host).Wait(reqCtx); err != nil {
			v.record(c, 0, "rate limit wait: "+err.Error())
			return
		}
	}

	status, err := v.probe(reqCtx, c.URL)
	if err != nil {
		v.record(c, 0, err.Error())
		return
	}
	v.record(c, status, "")
}

// probe issues a HEAD request (no body fetch); servers that reject HEAD
// outright get one GET retry with the body discarded unread.
func (v *Verifier) probe(ctx context.Context, rawURL string) (int, error) {
	status, err := v.do(ctx, http.MethodHead, rawURL)
	if err != nil {
		return 0, err
	}
	if status == http.StatusMethodNotAllowed {
		return v.do(ctx, http.MethodGet, rawURL)
	}
	return status, nil
}

func (v *Verifier) do(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", "visibility-cli/1.0 citation-check")

	resp, err := v.client.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

// record finalizes one citation. Status 0 means no response was
// obtained; anything below 400 counts as accessible.
func (v *Verifier) record(c *model.Citation, status int, errMsg string) {
	now := time.Now().UTC()
	c.HTTPStatus = status
	c.Accessible = status > 0 && status < 400
	c.ValidatedAt = &now
	c.ValidationError = errMsg
	c.Status = model.CitationCompleted
	if c.Domain == "" {
		c.Domain = hostOf(c.URL)
	}
}

func (v *Verifier) limiterFor(host string) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()
	lim, ok := v.limiters[host]
	if !ok {
		lim = rate.NewLimiter(10, 10)
		v.limiters[host] = lim
	}
	return lim
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// BestEffort runs a cleanup step whose failure must not propagate. The
// suppression is deliberate and lives at this single logged boundary
// rather than scattered empty error checks.
func BestEffort(op string, fn func() error) {
	if err := fn(); err != nil {
		zap.L().Warn("best-effort cleanup failed",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}
