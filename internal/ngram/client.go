// Package ngram talks to the external linguistic service that extracts
// part-of-speech verified n-grams from sentences.
//
// The service is the most failure-prone collaborator in the pipeline measured
// by wall-clock time, so every call is context-bound with a timeout and
// throttled by a client-side rate limiter.
package ngram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/openlms/ask4summary/internal/log"
)

const (
	// maxResponseSize caps service response bodies.
	maxResponseSize = 4 << 20

	defaultTimeout = 30 * time.Second
)

// Ngram is one part-of-speech verified n-gram extracted from a sentence.
type Ngram struct {
	// Text is the n-gram itself, lowercased word sequence.
	Text string
	// POS is the part-of-speech label assigned by the service.
	POS string
	// N is the n-gram order (1 to 4).
	N int
}

// Config holds the linguistic service connection settings.
type Config struct {
	// Endpoint is the full URL the extraction request is posted to.
	Endpoint string
	// Timeout bounds a single service call. Zero means 30s.
	Timeout time.Duration
	// RequestsPerSecond throttles outbound calls. Zero disables throttling.
	RequestsPerSecond float64
}

// Client extracts verified n-grams through the linguistic service.
type Client struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     log.Logger
}

// New creates a linguistic service client.
func New(cfg Config, logger log.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("linguistic service endpoint is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		endpoint:   cfg.Endpoint,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		logger:     logger,
	}, nil
}

// extractRequest is the wire format the service expects. The misspelled
// delimeter key is part of the service contract.
type extractRequest struct {
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
	NgramN      int    `json:"ngram_n"`
	NgramNMax   int    `json:"ngram_n_max"`
	Delimeter   string `json:"delimeter"`
	VerifyFor   string `json:"verify_for"`
}

type extractResponse struct {
	PosAsked struct {
		Valid map[string][]posCandidate `json:"valid"`
	} `json:"pos_asked"`
}

type posCandidate struct {
	POS   string `json:"pos"`
	Ngram int    `json:"ngram"`
}

// Extract sends one sentence to the service and returns its verified n-grams.
// A response without valid n-grams (including a malformed body) yields
// (nil, nil): the sentence simply has nothing to index. Only transport and
// HTTP-level failures are errors.
func (c *Client) Extract(ctx context.Context, sentence string) ([]Ngram, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := extractRequest{
		Content:     sentence,
		ContentType: "ngram",
		NgramN:      1,
		NgramNMax:   4,
		Delimeter:   ";",
		VerifyFor:   "pos",
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extraction request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("linguistic service request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read service response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("linguistic service error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed extractResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		// The service answers free text for sentences it cannot analyze.
		c.logger.Debug("unparseable service response, treating as no valid n-grams",
			"sentence", sentence, "error", err)
		return nil, nil
	}
	if len(parsed.PosAsked.Valid) == 0 {
		return nil, nil
	}

	ngrams := make([]Ngram, 0, len(parsed.PosAsked.Valid))
	for text, candidates := range parsed.PosAsked.Valid {
		if len(candidates) == 0 {
			continue
		}
		// The first candidate is authoritative.
		first := candidates[0]
		ngrams = append(ngrams, Ngram{Text: text, POS: first.POS, N: first.Ngram})
	}

	c.logger.Debug("extracted n-grams", "sentence", sentence, "count", len(ngrams))
	return ngrams, nil
}
