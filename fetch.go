package plexus

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
)

// Remote failure categories. Every error returned by FetchGraph is marked
// with exactly one of these, distinguishable via errors.Is, so callers can
// surface timeouts, unreachable hosts, server errors, and bad payloads
// differently.
var (
	ErrTimeout     = errors.New("request timed out")
	ErrUnreachable = errors.New("network unreachable")
	ErrHTTPStatus  = errors.New("unexpected http status")
	ErrParse       = errors.New("response parse failed")
)

// FetchConfig is the reconstruction-service configuration, carried opaque:
// the engine never interprets these fields.
type FetchConfig struct {
	SimilarityThreshold float64 `json:"similarityThreshold"`
	MinCorrelation      float64 `json:"minCorrelation"`
	MaxCrossEntropyGap  float64 `json:"maxCrossEntropyGap"`
	IntraLayerOnly      bool    `json:"intraLayerOnly"`
}

// defaultFetchTimeout bounds every remote call; the context passed to
// FetchGraph may shorten it further.
const defaultFetchTimeout = 15 * time.Second

// Client fetches {nodes, edges, metadata} payloads from a graph
// reconstruction service.
type Client struct {
	// HTTP is the underlying client. Defaults to http.DefaultClient.
	HTTP *http.Client
	// Timeout aborts the request (not just the read) when exceeded.
	Timeout time.Duration
}

// NewClient returns a client with the default timeout.
func NewClient() *Client {
	return &Client{HTTP: http.DefaultClient, Timeout: defaultFetchTimeout}
}

// FetchGraph retrieves and parses a graph. With a non-nil cfg the config is
// POSTed as JSON; otherwise a plain GET is issued. The request is aborted
// once Timeout elapses.
func (c *Client) FetchGraph(ctx context.Context, url string, cfg *FetchConfig) (*Graph, []string, error) {
	data, err := c.FetchRaw(ctx, url, cfg)
	if err != nil {
		return nil, nil, err
	}
	g, notes, err := Parse(data)
	if err != nil {
		return nil, nil, errors.Mark(err, ErrParse)
	}
	return g, notes, nil
}

// FetchRaw retrieves the raw payload bytes without parsing them, for
// callers that persist the response as-is. Errors carry the same
// categories as FetchGraph.
func (c *Client) FetchRaw(ctx context.Context, url string, cfg *FetchConfig) ([]byte, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var req *http.Request
	var err error
	if cfg != nil {
		body, merr := json.Marshal(cfg)
		if merr != nil {
			return nil, errors.Mark(errors.Wrap(merr, "encode config"), ErrParse)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "build request"), ErrUnreachable)
	}

	httpc := c.HTTP
	if httpc == nil {
		httpc = http.DefaultClient
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return nil, categorizeTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Mark(
			errors.Newf("fetch graph: status %d from %s", resp.StatusCode, url), ErrHTTPStatus)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, categorizeTransport(err)
	}
	return data, nil
}

// categorizeTransport separates timeouts from plain unreachability.
func categorizeTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Mark(errors.Wrap(err, "fetch graph"), ErrTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Mark(errors.Wrap(err, "fetch graph"), ErrTimeout)
	}
	return errors.Mark(errors.Wrap(err, "fetch graph"), ErrUnreachable)
}

// Loader wraps fetches with a loading flag for spinner display. The flag
// can never persist indefinitely: a secondary failsafe timer clears it
// even if the primary completion path fails to fire.
type Loader struct {
	Client *Client
	// FailsafeDelay bounds how long Loading can stay true. Defaults to
	// twice the client timeout.
	FailsafeDelay time.Duration

	mu       sync.Mutex
	loading  bool
	failsafe *time.Timer
}

// NewLoader returns a loader over the given client.
func NewLoader(c *Client) *Loader {
	return &Loader{Client: c}
}

// Loading reports whether a fetch is in flight (or the failsafe hasn't
// cleared a wedged one yet).
func (l *Loader) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Load starts an asynchronous fetch. done is invoked from the fetch
// goroutine with the parsed graph or the categorized error.
func (l *Loader) Load(ctx context.Context, url string, cfg *FetchConfig, done func(*Graph, []string, error)) {
	delay := l.FailsafeDelay
	if delay <= 0 {
		timeout := l.Client.Timeout
		if timeout <= 0 {
			timeout = defaultFetchTimeout
		}
		delay = 2 * timeout
	}

	l.mu.Lock()
	l.loading = true
	if l.failsafe != nil {
		l.failsafe.Stop()
	}
	l.failsafe = time.AfterFunc(delay, l.clear)
	l.mu.Unlock()

	go func() {
		g, notes, err := l.Client.FetchGraph(ctx, url, cfg)
		l.clear()
		done(g, notes, err)
	}()
}

func (l *Loader) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
	if l.failsafe != nil {
		l.failsafe.Stop()
		l.failsafe = nil
	}
}
