package inboxapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/inbox/internal/core/notify"
)

type recorded struct {
	method string
	path   string
	userID string
	auth   string
}

type recorder struct {
	mu   sync.Mutex
	reqs []recorded
}

func (r *recorder) all() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorded(nil), r.reqs...)
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.reqs = append(rec.reqs, recorded{
			method: r.Method,
			path:   r.URL.Path,
			userID: r.URL.Query().Get("userId"),
			auth:   r.Header.Get("Authorization"),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestClient_FetchList(t *testing.T) {
	srv, reqs := newServer(t, http.StatusOK, `[
		{"id":2,"title":"Board reply","body":"hi","createdAt":"2026-03-01T10:00:00Z","isRead":false,"relatedType":"BOARD","relatedId":17},
		{"id":1,"title":"Welcome","body":"","createdAt":"2026-02-01T10:00:00Z","isRead":true,"relatedType":null}
	]`)

	c := New(srv.URL+"/", "tok", time.Second)
	items, err := c.FetchList(context.Background(), "42")
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].ID)
	assert.Equal(t, notify.RelatedBoard, items[0].RelatedType)
	require.NotNil(t, items[0].RelatedID)
	assert.Equal(t, int64(17), *items[0].RelatedID)
	assert.Equal(t, notify.RelatedNone, items[1].RelatedType)
	assert.True(t, items[1].IsRead)

	require.Len(t, reqs.all(), 1)
	got := reqs.all()[0]
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/api/v1/notifications", got.path)
	assert.Equal(t, "42", got.userID)
	assert.Equal(t, "Bearer tok", got.auth)
}

func TestClient_FetchList_DropsUndecodableItems(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `[
		{"id":3,"title":"Board reply","createdAt":"2026-03-01T10:00:00Z","relatedType":"BOARD","relatedId":4},
		{"id":2,"title":"Chat","createdAt":"2026-02-01T10:00:00Z","relatedType":"CHAT"},
		{"title":"no id"},
		{"id":1,"title":"Welcome","createdAt":"2026-01-01T10:00:00Z","isRead":true}
	]`)

	items, err := New(srv.URL, "tok", time.Second).FetchList(context.Background(), "42")
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, int64(3), items[0].ID)
	assert.Equal(t, int64(1), items[1].ID)
}

func TestClient_FetchList_NullBody(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `null`)

	items, err := New(srv.URL, "", time.Second).FetchList(context.Background(), "42")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestClient_FetchUnreadCount(t *testing.T) {
	srv, reqs := newServer(t, http.StatusOK, `{"unreadCount":5}`)

	n, err := New(srv.URL, "tok", time.Second).FetchUnreadCount(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "/api/v1/notifications/unread-count", reqs.all()[0].path)
}

func TestClient_Confirmations(t *testing.T) {
	srv, reqs := newServer(t, http.StatusOK, ``)
	c := New(srv.URL, "tok", time.Second)

	require.NoError(t, c.ConfirmRead(context.Background(), 9, "42"))
	require.NoError(t, c.ConfirmReadAll(context.Background(), "42"))

	got := reqs.all()
	require.Len(t, got, 2)
	assert.Equal(t, recorded{http.MethodPut, "/api/v1/notifications/9/read", "42", "Bearer tok"}, got[0])
	assert.Equal(t, recorded{http.MethodPut, "/api/v1/notifications/read-all", "42", "Bearer tok"}, got[1])
}

func TestClient_StatusError(t *testing.T) {
	srv, _ := newServer(t, http.StatusUnauthorized, `{"error":"expired"}`)

	_, err := New(srv.URL, "tok", time.Second).FetchUnreadCount(context.Background(), "42")
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.Equal(t, `{"error":"expired"}`, se.Body)
	assert.Contains(t, err.Error(), "fetch unread count")
}

func TestClient_DecodeError(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"id":`)

	_, err := New(srv.URL, "tok", time.Second).FetchList(context.Background(), "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_NoCredentialOmitsHeader(t *testing.T) {
	srv, reqs := newServer(t, http.StatusOK, `{"unreadCount":0}`)

	_, err := New(srv.URL, "", time.Second, WithUserAgent("inbox-test")).FetchUnreadCount(context.Background(), "42")
	require.NoError(t, err)
	assert.Empty(t, reqs.all()[0].auth)
}

func TestClient_ContextCancelled(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `[]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL, "tok", time.Second).FetchList(ctx, "42")
	require.ErrorIs(t, err, context.Canceled)
}
