package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/vietddude/seqfetch/internal/metrics"
)

// DefaultUserAgent identifies this client to the sequence sources.
const DefaultUserAgent = "seqfetch/1.0 (+https://github.com/vietddude/seqfetch)"

// maxBodySize caps how much of a response is read.
const maxBodySize = 32 << 20

// HTTPProbe performs single GET requests and classifies the response.
// It never retries; that is the routing package's job.
type HTTPProbe struct {
	httpClient *http.Client
	userAgent  string

	mu       sync.Mutex
	monitors map[string]*SourceMonitor
}

// NewHTTPProbe creates a probe with the given per-request timeout.
func NewHTTPProbe(timeout time.Duration, userAgent string) *HTTPProbe {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPProbe{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: userAgent,
		monitors:  make(map[string]*SourceMonitor),
	}
}

// Probe performs one GET against url on behalf of the named source.
func (p *HTTPProbe) Probe(ctx context.Context, source, url string) Result {
	start := time.Now()
	res := p.do(ctx, url)
	res.Latency = time.Since(start)

	mon := p.Monitor(source)
	switch res.Class {
	case ClassValid:
		mon.RecordSuccess(res.Latency)
	case ClassInvalid:
		mon.RecordMiss(res.Status)
	default:
		mon.RecordFailure()
	}

	metrics.ProbesTotal.WithLabelValues(source, res.Class.String()).Inc()
	metrics.ProbeLatency.WithLabelValues(source).Observe(res.Latency.Seconds())
	return res
}

func (p *HTTPProbe) do(ctx context.Context, url string) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Class: ClassTransportError, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/plain,*/*;q=0.8")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return Result{Class: ClassTransportError, Err: fmt.Errorf("get: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Result{
			Class:  ClassTransportError,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("read response: %w", err),
		}
	}

	res := Result{Status: resp.StatusCode, Body: string(body)}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res.Class = ClassInvalid
		res.Err = fmt.Errorf("http %d", resp.StatusCode)
		return res
	}
	if !LooksLikeFASTA(res.Body) {
		res.Class = ClassInvalid
		res.Err = fmt.Errorf("response is not a FASTA record")
		return res
	}
	res.Class = ClassValid
	return res
}

// FetchJSON performs one GET against url and decodes a 2xx JSON body into v.
func (p *HTTPProbe) FetchJSON(ctx context.Context, source, url string, v any) error {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	mon := p.Monitor(source)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		mon.RecordFailure()
		metrics.ProbesTotal.WithLabelValues(source, ClassTransportError.String()).Inc()
		return fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		mon.RecordMiss(resp.StatusCode)
		metrics.ProbesTotal.WithLabelValues(source, ClassInvalid.String()).Inc()
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(v); err != nil {
		mon.RecordMiss(resp.StatusCode)
		metrics.ProbesTotal.WithLabelValues(source, ClassInvalid.String()).Inc()
		return fmt.Errorf("parse response: %w", err)
	}

	latency := time.Since(start)
	mon.RecordSuccess(latency)
	metrics.ProbesTotal.WithLabelValues(source, ClassValid.String()).Inc()
	metrics.ProbeLatency.WithLabelValues(source).Observe(latency.Seconds())
	return nil
}

// Monitor returns the health monitor of the named source, creating it on first use.
func (p *HTTPProbe) Monitor(source string) *SourceMonitor {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.monitors[source]
	if !ok {
		m = NewSourceMonitor(source)
		p.monitors[source] = m
	}
	return m
}

// Health returns a snapshot of every source seen so far.
func (p *HTTPProbe) Health() map[string]HealthStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]HealthStatus, len(p.monitors))
	for name, m := range p.monitors {
		out[name] = m.Health()
	}
	return out
}

// Close releases idle connections.
func (p *HTTPProbe) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
