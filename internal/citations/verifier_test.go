package citations

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localsignal/visibility-cli/internal/model"
)

func newTestVerifier(concurrency int, timeout time.Duration) *Verifier {
	return NewVerifier(Options{Concurrency: concurrency, Timeout: timeout})
}

func TestVerify_AllResolvedWithBoundedConcurrency(t *testing.T) {
	var inFlight, maxInFlight atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			prev := maxInFlight.Load()
			if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := newTestVerifier(5, 3*time.Second)

	cits := make([]model.Citation, 12)
	for i := range cits {
		cits[i] = model.Citation{URL: fmt.Sprintf("%s/page/%d", srv.URL, i)}
	}

	summary := v.Verify(context.Background(), cits)

	assert.Equal(t, 12, summary.Total)
	assert.Equal(t, 12, summary.Validated)
	assert.Equal(t, 12, summary.AccessibleCount)
	assert.Equal(t, summary.Total, summary.AccessibleCount+(summary.Total-summary.AccessibleCount))
	assert.LessOrEqual(t, maxInFlight.Load(), int64(5))

	for _, c := range summary.Citations {
		assert.Equal(t, model.CitationCompleted, c.Status)
		assert.NotNil(t, c.ValidatedAt)
	}
}

func TestVerify_InaccessibleStatusCodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	v := newTestVerifier(3, time.Second)
	summary := v.Verify(context.Background(), []model.Citation{{URL: srv.URL + "/gone"}})

	require.Len(t, summary.Citations, 1)
	c := summary.Citations[0]
	assert.False(t, c.Accessible)
	assert.Equal(t, http.StatusNotFound, c.HTTPStatus)
	assert.Equal(t, model.CitationCompleted, c.Status)
	assert.Empty(t, summary.Accessible)
	assert.Zero(t, summary.Filtered)
}

func TestVerify_TimeoutRecordedNotRaised(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := newTestVerifier(2, 50*time.Millisecond)
	summary := v.Verify(context.Background(), []model.Citation{
		{URL: srv.URL + "/slow"},
	})

	require.Len(t, summary.Citations, 1)
	c := summary.Citations[0]
	assert.False(t, c.Accessible)
	assert.Zero(t, c.HTTPStatus)
	assert.NotEmpty(t, c.ValidationError)
	assert.Equal(t, model.CitationCompleted, c.Status)
}

func TestVerify_UnreachableHost(t *testing.T) {
	v := newTestVerifier(2, 500*time.Millisecond)
	// RFC 5737 TEST-NET, should fail to connect.
	summary := v.Verify(context.Background(), []model.Citation{
		{URL: "http://192.0.2.1:1/x"},
		{URL: "http://192.0.2.1:1/y"},
	})

	assert.Equal(t, 2, summary.Total)
	assert.Zero(t, summary.AccessibleCount)
	for _, c := range summary.Citations {
		assert.NotEmpty(t, c.ValidationError)
	}
}

func TestVerify_MethodNotAllowedFallsBackToGet(t *testing.T) {
	var sawGet atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		sawGet.Store(true)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := newTestVerifier(1, time.Second)
	summary := v.Verify(context.Background(), []model.Citation{{URL: srv.URL}})

	assert.True(t, sawGet.Load())
	assert.True(t, summary.Citations[0].Accessible)
}

func TestVerify_CancelledContextMarksRemainingFailed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := newTestVerifier(2, time.Second)
	summary := v.Verify(ctx, []model.Citation{
		{URL: "http://example.com/a"},
		{URL: "http://example.com/b"},
		{URL: "http://example.com/c"},
	})

	assert.Equal(t, 3, summary.Total)
	for _, c := range summary.Citations {
		assert.Equal(t, model.CitationFailed, c.Status)
		assert.False(t, c.Accessible)
	}
}

func TestVerify_FillsDomainFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v := newTestVerifier(1, time.Second)
	summary := v.Verify(context.Background(), []model.Citation{{URL: srv.URL + "/page"}})
	assert.NotEmpty(t, summary.Citations[0].Domain)
}

func TestVerify_Empty(t *testing.T) {
	v := newTestVerifier(5, time.Second)
	summary := v.Verify(context.Background(), nil)
	assert.Zero(t, summary.Total)
	assert.Empty(t, summary.Citations)
}
