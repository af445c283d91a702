package eventstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/colonyops/inbox/internal/core/notify"
)

const subscribePath = "/api/v1/notifications/subscribe"

// ErrStreamClosed reports that the server ended the stream.
var ErrStreamClosed = errors.New("event stream closed by server")

// StatusError is returned when the subscribe request is rejected.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("subscribe: status %d", e.Code)
}

// Client opens the notification event stream. It implements notify.PushSource.
// The stream is opened once per Subscribe call and never reconnected.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        zerolog.Logger
}

// New creates a client for baseURL. hc may be nil; it must not carry an
// overall timeout since the stream is long lived.
func New(baseURL string, hc *http.Client, logger zerolog.Logger) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		httpClient: hc,
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        logger,
	}
}

var _ notify.PushSource = (*Client)(nil)

// Subscribe opens the stream and feeds it to h until ctx is cancelled or the
// stream fails. Failures are reported once through h.OnError; cancellation is
// not reported.
func (c *Client) Subscribe(ctx context.Context, userID, credential string, h notify.PushHandler) {
	if err := c.stream(ctx, userID, credential, h); err != nil && ctx.Err() == nil {
		c.log.Debug().Err(err).Msg("event stream ended")
		h.OnError(err)
	}
}

func (c *Client) stream(ctx context.Context, userID, credential string, h notify.PushHandler) error {
	q := url.Values{"userId": {userID}}
	if credential != "" {
		q.Set("token", credential)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+subscribePath+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}

	h.OnOpen()

	r := NewReader(resp.Body)
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			return ErrStreamClosed
		}
		if err != nil {
			return fmt.Errorf("read stream: %w", err)
		}
		h.OnMessage(ev.Name, ev.Data)
	}
}
