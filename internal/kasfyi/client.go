// Package kasfyi queries historical blocks by blue-score window from the
// kas.fyi REST API.
//
// Calls are spaced at least 1/RateLimit seconds apart, measured from the
// completion of one call to the start of the next. The spacing holds across
// goroutines sharing a Client.
package kasfyi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/b0ase/path402/apps/kaspa-mcp/internal/kaspa"
)

const (
	// DefaultBaseURL is the public kas.fyi API.
	DefaultBaseURL = "https://api.kas.fyi"
	// DefaultRateLimit is requests per second.
	DefaultRateLimit = 5.0
	// MaxWindow is the largest allowed End-Start.
	MaxWindow = 100

	maxErrorBody = 64 << 10
)

// Config configures a Client.
type Config struct {
	APIKey     string
	BaseURL    string
	RateLimit  float64
	HTTPClient *http.Client
}

// Range selects blocks whose blue score lies in [Start, End].
type Range struct {
	Start               uint64
	End                 uint64
	ChainBlocksOnly     bool
	IncludeTransactions bool
	IncludePayload      bool
}

// Client is a rate-limited kas.fyi client.
type Client struct {
	apiKey      string
	baseURL     string
	minInterval time.Duration
	httpClient  *http.Client

	// mu is held for the whole wait-request-record sequence so two callers
	// cannot both pass the spacing check.
	mu   sync.Mutex
	last time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a client. Zero values take the package defaults.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		minInterval: time.Duration(float64(time.Second) / cfg.RateLimit),
		httpClient:  cfg.HTTPClient,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.apiKey != "" }

// MinInterval returns the enforced spacing between calls.
func (c *Client) MinInterval() time.Duration { return c.minInterval }

// BlocksByBlueScore fetches the blocks in r. Credential and range checks run
// before any network call.
func (c *Client) BlocksByBlueScore(ctx context.Context, r Range) (any, error) {
	if c.apiKey == "" {
		return nil, &kaspa.ConfigurationError{Setting: "KASFYI_API_KEY", Message: "kas.fyi API key is not configured"}
	}
	if r.End < r.Start {
		return nil, &kaspa.ValidationError{Field: "end", Message: fmt.Sprintf("end %d is before start %d", r.End, r.Start)}
	}
	if r.End-r.Start > MaxWindow {
		return nil, &kaspa.ValidationError{
			Field:   "end",
			Message: fmt.Sprintf("range %d-%d spans %d blue scores, maximum is %d", r.Start, r.End, r.End-r.Start, MaxWindow),
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.last.IsZero() {
		if wait := c.minInterval - c.now().Sub(c.last); wait > 0 {
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
	}

	out, err := c.get(ctx, r)
	c.last = c.now()
	return out, err
}

func (c *Client) get(ctx context.Context, r Range) (any, error) {
	q := url.Values{}
	q.Set("chain_blocks_only", strconv.FormatBool(r.ChainBlocksOnly))
	q.Set("include_transactions", strconv.FormatBool(r.IncludeTransactions))
	q.Set("include_payload", strconv.FormatBool(r.IncludePayload))
	endpoint := fmt.Sprintf("%s/v1/blocks/blue-score/%d/%d?%s", c.baseURL, r.Start, r.End, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &kaspa.TransportError{Op: "kas.fyi request", Err: err}
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &kaspa.TransportError{Op: "kas.fyi request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Printf("[kasfyi] %d-%d returned status %d", r.Start, r.End, resp.StatusCode)
		return nil, &kaspa.TransportError{Op: "kas.fyi request", StatusCode: resp.StatusCode, Body: string(text)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &kaspa.TransportError{Op: "read kas.fyi response", Err: err}
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, &kaspa.TransportError{Op: "decode kas.fyi response", Err: err}
	}
	return out, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
