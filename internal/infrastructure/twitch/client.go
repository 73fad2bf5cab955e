package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"multiview/internal/core/domain"
	"multiview/internal/core/ports"
	"multiview/pkg/tracing"
	"multiview/pkg/utils"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	endpointToken   = "token"
	endpointGames   = "games"
	endpointStreams = "streams"

	// maxErrorBody bounds how much of an error response is kept for logs.
	maxErrorBody = 512
)

// RequestObserver is told about every upstream round trip. status is 0 when
// no response was received.
type RequestObserver interface {
	ObserveUpstreamRequest(endpoint string, status int, duration time.Duration)
}

type Config struct {
	ClientID string
	AuthURL  string
	APIURL   string
	Timeout  time.Duration
}

// Client talks to the Twitch OAuth and Helix endpoints.
type Client struct {
	cfg      Config
	http     *http.Client
	observer RequestObserver
	logger   *zap.SugaredLogger
}

var _ ports.TwitchClient = (*Client)(nil)

// NewClient builds a client whose transport is traced with otelhttp. A zero
// Timeout leaves the transport defaults in place.
func NewClient(cfg Config, observer RequestObserver, logger *zap.SugaredLogger) *Client {
	return NewClientWithHTTP(cfg, &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}, observer, logger)
}

func NewClientWithHTTP(cfg Config, httpClient *http.Client, observer RequestObserver, logger *zap.SugaredLogger) *Client {
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &Client{
		cfg:      cfg,
		http:     httpClient,
		observer: observer,
		logger:   logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type dataResponse[T any] struct {
	Data []T `json:"data"`
}

// ExchangeToken performs the client-credentials grant and returns the access
// token. expires_in is ignored; callers apply their own TTL.
func (c *Client) ExchangeToken(ctx context.Context, creds domain.Credentials) (string, error) {
	form := url.Values{}
	form.Set("client_id", creds.ClientID)
	form.Set("client_secret", creds.ClientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out tokenResponse
	if err := c.do(req, endpointToken, &out); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

// SearchCategories looks a category up by exact name.
func (c *Client) SearchCategories(ctx context.Context, token domain.AccessToken, name string) ([]domain.Category, error) {
	query := url.Values{}
	query.Set("name", name)

	req, err := c.helixRequest(ctx, token, "/games", query)
	if err != nil {
		return nil, err
	}

	var out dataResponse[domain.Category]
	if err := c.do(req, endpointGames, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetStreams returns the first page (at most first entries) of live streams
// in the category, in upstream order.
func (c *Client) GetStreams(ctx context.Context, token domain.AccessToken, categoryID domain.CategoryID, first int) ([]domain.StreamRecord, error) {
	query := url.Values{}
	query.Set("game_id", string(categoryID))
	query.Set("first", strconv.Itoa(first))

	req, err := c.helixRequest(ctx, token, "/streams", query)
	if err != nil {
		return nil, err
	}

	var out dataResponse[domain.StreamRecord]
	if err := c.do(req, endpointStreams, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []domain.StreamRecord{}
	}
	return out.Data, nil
}

func (c *Client) helixRequest(ctx context.Context, token domain.AccessToken, path string, query url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build helix request %s: %w", path, err)
	}
	req.Header.Set("Client-ID", c.cfg.ClientID)
	req.Header.Set("Authorization", "Bearer "+token.Value)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, endpoint string, out interface{}) error {
	tracing.AddSpanAttributes(req.Context(), tracing.EndpointKey.String(endpoint))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(endpoint, 0, time.Since(start))
		return fmt.Errorf("twitch %s request: %w", endpoint, err)
	}
	defer resp.Body.Close()
	c.observe(endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		body := utils.SanitizeString(string(raw))
		c.logger.Warnw("twitch request rejected",
			"endpoint", endpoint,
			"status", resp.StatusCode,
			"body", utils.TruncateString(body, 200),
		)
		return &domain.StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode twitch %s response: %w", endpoint, err)
	}
	return nil
}

func (c *Client) observe(endpoint string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveUpstreamRequest(endpoint, status, d)
	}
}
