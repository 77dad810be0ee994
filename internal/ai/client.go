package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrDisabled         = errors.New("ai: no api key configured")
	ErrRateLimited      = errors.New("ai: too many requests, try again shortly")
	ErrMalformedPayload = errors.New("ai: malformed payload")
	errModelNotFound    = errors.New("ai: model not found")
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// DefaultModels are tried in order until one answers.
var DefaultModels = []string{
	"gemini-2.0-flash",
	"gemini-1.5-flash",
	"gemini-1.5-flash-latest",
	"gemini-1.5-pro",
}

type Config struct {
	APIKey      string
	BaseURL     string
	Models      []string
	MinInterval time.Duration
	HTTPClient  *http.Client
}

// Client calls the Gemini generateContent endpoint. Calls closer together
// than MinInterval are refused with ErrRateLimited instead of waiting, so
// callers can fall back right away.
type Client struct {
	apiKey  string
	baseURL string
	models  []string
	http    *http.Client
	limiter *rate.Limiter

	mu      sync.Mutex
	working string
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if len(cfg.Models) == 0 {
		cfg.Models = DefaultModels
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 2 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		models:  cfg.Models,
		http:    cfg.HTTPClient,
		limiter: rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate sends prompt and returns the text of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	if !c.limiter.Allow() {
		return "", ErrRateLimited
	}

	var lastErr error
	for _, model := range c.candidates() {
		text, err := c.call(ctx, model, prompt)
		if err == nil {
			c.remember(model)
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, errModelNotFound) {
			c.forget(model)
		}
		log.Printf("ai model %s failed: %v", model, err)
	}
	return "", lastErr
}

func (c *Client) call(ctx context.Context, model, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, url.PathEscape(model), url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("post %s: %w", model, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", errModelNotFound, model)
	case resp.StatusCode >= 300:
		return "", fmt.Errorf("ai: %s returned %d: %s", model, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty candidates", ErrMalformedPayload)
	}
	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

// candidates puts the last model that worked first.
func (c *Client) candidates() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.working == "" {
		return c.models
	}
	out := []string{c.working}
	for _, m := range c.models {
		if m != c.working {
			out = append(out, m)
		}
	}
	return out
}

func (c *Client) remember(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.working = model
}

func (c *Client) forget(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.working == model {
		c.working = ""
	}
}
