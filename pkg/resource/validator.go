// Package resource checks that external URLs discovered by agents are reachable.
//
// Only a confirmed non-200 response prunes a URL. Timeouts and transport failures leave the
// URL in place as "unknown", because a flaky network says nothing about the resource.
package resource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"autodev/pkg/agent/middleware/metrics"
	"autodev/pkg/logx"
)

// DefaultTimeout is the per-probe deadline.
const DefaultTimeout = 5 * time.Second

// Probe outcomes, also used as metric labels.
const (
	OutcomeKept    = "kept"
	OutcomePruned  = "pruned"
	OutcomeUnknown = "unknown"
)

// Prober fetches a URL and reports its HTTP status code.
type Prober interface {
	Probe(ctx context.Context, url string) (int, error)
}

// HTTPProber probes URLs with a GET request.
type HTTPProber struct {
	client *http.Client
}

// NewHTTPProber creates a prober whose requests time out after timeout.
func NewHTTPProber(timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPProber{client: &http.Client{Timeout: timeout}}
}

// Probe issues a GET and returns the status code. Redirects are followed.
func (p *HTTPProber) Probe(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to probe %s: %w", url, err)
	}
	defer resp.Body.Close()
	// Drain a little so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	return resp.StatusCode, nil
}

// Report is the outcome of validating a URL list.
type Report struct {
	Kept    []string       // Input order, pruned entries removed
	Pruned  []string       // URLs that answered with a non-200 status
	Unknown []string       // URLs whose probe failed; these are also in Kept
	Status  map[string]int // Status code per probed URL, absent on probe failure
}

// Changed reports whether any URL was pruned.
func (r Report) Changed() bool {
	return len(r.Pruned) > 0
}

// Validator probes URL lists.
type Validator struct {
	prober      Prober
	concurrency int
	recorder    metrics.Recorder
	logger      *logx.Logger

	// OnProbe, when set, is called before each probe.
	OnProbe func(url string)
}

// NewValidator creates a validator. concurrency <= 1 probes sequentially.
func NewValidator(prober Prober, concurrency int, recorder metrics.Recorder) *Validator {
	if recorder == nil {
		recorder = metrics.Nop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Validator{
		prober:      prober,
		concurrency: concurrency,
		recorder:    recorder,
		logger:      logx.NewLogger("validator"),
	}
}

type probeResult struct {
	status int
	err    error
}

// Validate probes each distinct URL once and classifies the list.
// Probe failures are logged and never returned as errors.
func (v *Validator) Validate(ctx context.Context, urls []string) Report {
	unique := make([]string, 0, len(urls))
	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			unique = append(unique, u)
		}
	}

	results := make([]probeResult, len(unique))
	if v.concurrency == 1 {
		for i, u := range unique {
			results[i] = v.probe(ctx, u)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(v.concurrency)
		for i, u := range unique {
			g.Go(func() error {
				results[i] = v.probe(gctx, u)
				return nil
			})
		}
		_ = g.Wait() // probe never returns an error
	}

	report := Report{Status: make(map[string]int, len(unique))}
	prune := make(map[string]bool)
	for i, u := range unique {
		res := results[i]
		switch {
		case res.err != nil:
			v.logger.Warn("Error checking url %s: %v", u, res.err)
			report.Unknown = append(report.Unknown, u)
		case res.status != http.StatusOK:
			report.Status[u] = res.status
			report.Pruned = append(report.Pruned, u)
			prune[u] = true
		default:
			report.Status[u] = res.status
		}
	}

	report.Kept = slices.DeleteFunc(slices.Clone(urls), func(u string) bool { return prune[u] })
	if report.Kept == nil {
		report.Kept = []string{}
	}
	return report
}

func (v *Validator) probe(ctx context.Context, url string) probeResult {
	if v.OnProbe != nil {
		v.OnProbe(url)
	}
	start := time.Now()
	status, err := v.prober.Probe(ctx, url)
	outcome := OutcomeKept
	switch {
	case err != nil:
		outcome = OutcomeUnknown
	case status != http.StatusOK:
		outcome = OutcomePruned
	}
	v.recorder.ObserveProbe(outcome, time.Since(start))
	logx.Debug(ctx, "validator", "probe %s: status=%d outcome=%s", url, status, outcome)
	return probeResult{status: status, err: err}
}
