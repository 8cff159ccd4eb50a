package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/trogers1052/trade-journal/internal/auth"
	"github.com/trogers1052/trade-journal/internal/models"
	"go.uber.org/zap"
)

// ErrUnauthorized is returned when the server rejects the session token
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx response from the journal server
type APIError struct {
	StatusCode int
	Message    string
	Details    []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

type errorBody struct {
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

// Client talks to a trade journal server
type Client struct {
	client *resty.Client
	logger *zap.Logger
}

// New creates a client for the server at baseURL (e.g. http://localhost:8080)
func New(baseURL, token string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL+"/api/v1").
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() == http.StatusTooManyRequests
		}).
		SetError(&errorBody{})
	if token != "" {
		client.SetAuthToken(token)
	}

	return &Client{client: client, logger: logger}
}

// Login signs in and uses the returned token for later calls
func (c *Client) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	var session auth.Session
	req := c.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&session)

	if err := c.do(req, http.MethodPost, "/auth/login"); err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	c.client.SetAuthToken(session.Token)
	return &session, nil
}

// Stats fetches the signed-in user's portfolio statistics
func (c *Client) Stats(ctx context.Context) (*models.PortfolioStats, error) {
	var stats models.PortfolioStats
	req := c.client.R().SetContext(ctx).SetResult(&stats)

	if err := c.do(req, http.MethodGet, "/stats"); err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &stats, nil
}

// Trades fetches the signed-in user's trades
func (c *Client) Trades(ctx context.Context) ([]*models.Trade, error) {
	trades := []*models.Trade{}
	req := c.client.R().SetContext(ctx).SetResult(&trades)

	if err := c.do(req, http.MethodGet, "/trades"); err != nil {
		return nil, fmt.Errorf("failed to get trades: %w", err)
	}
	return trades, nil
}

func (c *Client) do(req *resty.Request, method, url string) error {
	c.logger.Debug("executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))

	resp, err := req.Execute(method, url)
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode(), Message: resp.Status()}
	if body, ok := resp.Error().(*errorBody); ok && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Details = body.Details
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
	}
	return apiErr
}
