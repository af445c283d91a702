// Package inboxapi is the REST client for the notification endpoints.
package inboxapi

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

	"github.com/rs/zerolog/log"

	"github.com/colonyops/inbox/internal/core/notify"
)

// DefaultTimeout bounds every request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

const basePath = "/api/v1/notifications"

// StatusError is returned when the server answers outside the 2xx range.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client talks to the notification REST API with a bearer credential.
// It implements notify.API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	credential string
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client for baseURL (for example "https://api.example.com").
func New(baseURL, credential string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		credential: credential,
		userAgent:  "inbox",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ notify.API = (*Client)(nil)

// FetchList returns the user's notifications, newest first. Elements that do
// not decode are dropped and logged so one bad item cannot block a refresh.
func (c *Client) FetchList(ctx context.Context, userID string) ([]notify.Notification, error) {
	var raw []json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, basePath, userID, &raw); err != nil {
		return nil, fmt.Errorf("fetch notifications: %w", err)
	}

	out := make([]notify.Notification, 0, len(raw))
	for i, data := range raw {
		n, err := notify.Decode(data)
		if err != nil {
			log.Warn().Err(err).Int("index", i).Str("user_id", userID).Msg("inboxapi: dropping notification")
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

type unreadCountResponse struct {
	UnreadCount int `json:"unreadCount"`
}

// FetchUnreadCount returns the server's unread counter for the user.
func (c *Client) FetchUnreadCount(ctx context.Context, userID string) (int, error) {
	var out unreadCountResponse
	if err := c.doJSON(ctx, http.MethodGet, basePath+"/unread-count", userID, &out); err != nil {
		return 0, fmt.Errorf("fetch unread count: %w", err)
	}
	return out.UnreadCount, nil
}

// ConfirmRead tells the server a notification was read.
func (c *Client) ConfirmRead(ctx context.Context, notificationID int64, userID string) error {
	path := basePath + "/" + strconv.FormatInt(notificationID, 10) + "/read"
	if err := c.doJSON(ctx, http.MethodPut, path, userID, nil); err != nil {
		return fmt.Errorf("confirm read %d: %w", notificationID, err)
	}
	return nil
}

// ConfirmReadAll tells the server every notification was read.
func (c *Client) ConfirmReadAll(ctx context.Context, userID string) error {
	if err := c.doJSON(ctx, http.MethodPut, basePath+"/read-all", userID, nil); err != nil {
		return fmt.Errorf("confirm read-all: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path, userID string, result any) error {
	u := c.baseURL + path + "?" + url.Values{"userId": {userID}}.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.credential != "" {
		req.Header.Set("Authorization", "Bearer "+c.credential)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Debug().Err(err).Str("path", path).Msg("inboxapi: close response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}

	if result == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
