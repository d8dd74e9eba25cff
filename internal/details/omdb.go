package details

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const upstreamFailure = "problem with external API occurred"

const maxResponseBody = 1 << 20 // 1 MiB

// OMDbClient implements Provider against the OMDb HTTP API.
type OMDbClient struct {
	baseURL *url.URL
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewOMDbClient constructs a new HTTP-backed OMDb client.
func NewOMDbClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) (*OMDbClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse omdb url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse omdb url: %q is not absolute", baseURL)
	}
	return &OMDbClient{
		baseURL: parsed,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger.Named("omdb"),
	}, nil
}

// Details retrieves the detail set for title.
func (c *OMDbClient) Details(ctx context.Context, title string) (*Details, error) {
	endpoint := *c.baseURL
	q := endpoint.Query()
	q.Set("apikey", c.apiKey)
	q.Set("t", title)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("title", title), zap.Error(err))
		return nil, &UnavailableError{Reason: upstreamFailure, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &UnavailableError{Reason: upstreamFailure, Err: err}
	}

	var payload Details
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.Warn("undecodable response",
			zap.String("title", title),
			zap.Int("status", resp.StatusCode),
			zap.Error(err))
		return nil, &UnavailableError{Reason: upstreamFailure, Err: fmt.Errorf("decode omdb response: %w", err)}
	}

	switch payload.Response {
	case "True":
		return &payload, nil
	case "False":
		reason := payload.Error
		if reason == "" {
			reason = upstreamFailure
		}
		c.logger.Debug("provider rejected lookup", zap.String("title", title), zap.String("reason", reason))
		return nil, &UnavailableError{Reason: reason}
	default:
		c.logger.Warn("unexpected response", zap.String("title", title), zap.Int("status", resp.StatusCode))
		return nil, &UnavailableError{Reason: upstreamFailure, Err: fmt.Errorf("omdb: status %d", resp.StatusCode)}
	}
}

// FormalTitle returns the title OMDb files the requested title under.
func (c *OMDbClient) FormalTitle(ctx context.Context, title string) (string, error) {
	d, err := c.Details(ctx, title)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(d.Title), nil
}
