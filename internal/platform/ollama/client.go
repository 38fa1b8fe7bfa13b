// Package ollama is an HTTP client for an Ollama-compatible model server.
// It covers the two calls the application needs: a lightweight models-list
// probe used for reachability and readiness checks, and the generate call
// that performs one inference.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/irislabs/iris-api/internal/config"
	"github.com/irislabs/iris-api/internal/platform/logger"
)

const (
	tagsPath     = "/api/tags"
	generatePath = "/api/generate"

	// Independent timeout domains. The probe budget must stay small so
	// status checks and preflights answer quickly; the generate budget
	// covers slow vision models. Neither shares budget with the queue wait.
	defaultProbeTimeout    = 5 * time.Second
	defaultGenerateTimeout = 60 * time.Second

	// Fixed decoding parameters for repeatable classification output.
	// Design constants, not tunables.
	optTemperature = 0.1
	optTopP        = 0.9
	optTopK        = 40
)

// Client talks to one Ollama-compatible server about one configured model.
type Client struct {
	baseURL string
	model   string

	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time

	probeTimeout    time.Duration
	generateTimeout time.Duration
}

// NewClient creates a Client for the configured base URL and model. If logger
// is nil, the default logger is used.
func NewClient(cfg config.AIConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		model:           cfg.Model,
		httpClient:      &http.Client{},
		logger:          log.With(slog.String("component", "ollama_client")),
		now:             time.Now,
		probeTimeout:    defaultProbeTimeout,
		generateTimeout: defaultGenerateTimeout,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels issues the models-list probe and returns the model names the
// service reports. The call is bounded by the probe timeout regardless of
// the parent context's deadline.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+tagsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build probe request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("probe request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("probe returned status %d", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode probe response: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Probe reports service reachability and readiness of the configured model
// from a single models-list call, so queued work re-validates freshness
// without doubling probe traffic. It never returns a hard failure: probe
// problems fold into reachable=false and the returned error is a sanitized
// description for status reporting.
func (c *Client) Probe(ctx context.Context) (reachable bool, modelReady bool, err error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	names, probeErr := c.ListModels(ctx)
	if probeErr != nil {
		log.Debug("probe failed", slog.String("error", probeErr.Error()))
		return false, false, ErrServiceUnavailable
	}

	for _, name := range names {
		if modelMatches(name, c.model) {
			return true, true, nil
		}
	}

	log.Debug("model not in service model list",
		slog.String("model", c.model),
		slog.Int("available", len(names)))
	return true, false, ErrModelNotReady
}

// modelMatches reports whether a listed model name satisfies the configured
// one. A bare configured name (no tag) matches any tag of that model, so
// "llava" accepts "llava:latest" and "llava:13b".
func modelMatches(listed, configured string) bool {
	if listed == configured {
		return true
	}
	if !strings.Contains(configured, ":") {
		return strings.HasPrefix(listed, configured+":")
	}
	return false
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Images  []string        `json:"images,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

type generateResponse struct {
	Response      string `json:"response"`
	TotalDuration int64  `json:"total_duration"`
}

// GenerateResult is the normalized outcome of one inference call.
type GenerateResult struct {
	// Response is the model's text output, never empty.
	Response string

	// ProcessingTimeMs is the service-reported total duration converted
	// from nanoseconds, or the locally measured wall-clock time when the
	// service omits it.
	ProcessingTimeMs int64
}

// Generate performs one inference call against the configured model with
// images supplied as base64 strings. Network failures come back as a
// *TransportError with a sanitized message; payload problems come back
// wrapping ErrMalformedResponse. The call is bounded by the generate timeout,
// independent of the probe timeout.
func (c *Client) Generate(ctx context.Context, prompt string, images []string) (*GenerateResult, error) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Images: images,
		Stream: false,
		Options: generateOptions{
			Temperature: optTemperature,
			TopP:        optTopP,
			TopK:        optTopK,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode generate request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+generatePath,
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	started := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		terr := classifyTransportError(err)
		log.Warn("generate transport failure",
			slog.String("kind", string(terr.Kind)),
			slog.String("error", err.Error()))
		return nil, terr
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		log.Warn("generate returned non-success status",
			slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: unexpected status %d", ErrMalformedResponse, resp.StatusCode)
	}

	var payload generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Warn("generate returned undecodable payload",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: invalid JSON payload", ErrMalformedResponse)
	}

	if payload.Response == "" {
		log.Warn("generate payload missing response field")
		return nil, fmt.Errorf("%w: missing response field", ErrMalformedResponse)
	}

	processingMs := c.now().Sub(started).Milliseconds()
	if payload.TotalDuration > 0 {
		processingMs = payload.TotalDuration / int64(time.Millisecond)
	}

	log.Debug("generate completed",
		slog.String("model", c.model),
		slog.Int64("processing_time_ms", processingMs))

	return &GenerateResult{
		Response:         payload.Response,
		ProcessingTimeMs: processingMs,
	}, nil
}
