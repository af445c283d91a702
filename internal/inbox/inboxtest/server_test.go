package inboxtest_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/inbox/internal/core/eventbus"
	"github.com/colonyops/inbox/internal/core/eventbus/testbus"
	"github.com/colonyops/inbox/internal/core/notify"
	"github.com/colonyops/inbox/internal/inbox"
	"github.com/colonyops/inbox/internal/inbox/inboxtest"
	"github.com/colonyops/inbox/internal/integration/eventstream"
	"github.com/colonyops/inbox/internal/integration/inboxapi"
)

const (
	user    = "42"
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

var created = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func note(id int64, read bool) notify.Notification {
	return notify.Notification{
		ID:        id,
		Title:     "notification",
		CreatedAt: created.Add(time.Duration(id) * time.Minute),
		IsRead:    read,
	}
}

func ids(items []notify.Notification) []int64 {
	out := make([]int64, 0, len(items))
	for _, n := range items {
		out = append(out, n.ID)
	}
	return out
}

func login(t *testing.T, srv *inboxtest.Server, bus *eventbus.EventBus) *inbox.Session {
	t.Helper()

	token := srv.Token(t, user)
	mgr := inbox.NewManager(
		inbox.Deps{
			API:  inboxapi.New(srv.URL, token, time.Second),
			Push: eventstream.New(srv.URL, nil, zerolog.Nop()),
			Bus:  bus,
		},
		inbox.Options{
			FallbackInterval: time.Hour,
			RefreshOnStart:   true,
			Logger:           zerolog.Nop(),
		},
	)
	t.Cleanup(mgr.Logout)

	s, err := mgr.Login(context.Background(), user, token)
	require.NoError(t, err)
	return s
}

func TestEndToEnd_LiveSession(t *testing.T) {
	srv := inboxtest.New(t)
	srv.Seed(user, note(2, false), note(1, true))

	s := login(t, srv, nil)
	assert.Equal(t, []int64{2, 1}, ids(s.Notifications()))
	assert.Equal(t, 1, s.UnreadCount())

	require.Eventually(t, func() bool {
		return s.State() == notify.StateOpen && srv.Subscribers(user) == 1
	}, waitFor, tick)

	srv.Push(user, note(3, false))
	require.Eventually(t, func() bool { return s.UnreadCount() == 2 }, waitFor, tick)
	assert.Equal(t, []int64{3, 2, 1}, ids(s.Notifications()))

	s.MarkRead(context.Background(), 3)
	assert.Equal(t, 1, s.UnreadCount())
	assert.Equal(t, []string{"3"}, srv.Confirmations())

	s.MarkAllRead(context.Background())
	assert.Zero(t, s.UnreadCount())
	assert.Equal(t, []string{"3", "all"}, srv.Confirmations())

	for _, n := range srv.Notifications(user) {
		assert.True(t, n.IsRead, "server marked %d read", n.ID)
	}
}

func TestEndToEnd_RejectedStreamDegrades(t *testing.T) {
	srv := inboxtest.New(t)
	srv.Seed(user, note(1, false))
	srv.RejectStream(http.StatusServiceUnavailable)

	bus := testbus.New(t)
	s := login(t, srv, bus.EventBus)

	require.Eventually(t, func() bool {
		return s.State() == notify.StateDegradedPolling
	}, waitFor, tick)
	assert.Equal(t, 1, s.UnreadCount(), "the initial refresh still applied")

	require.Eventually(t, func() bool {
		for _, p := range bus.Payloads(eventbus.EventConnectionStateChanged) {
			if p.(eventbus.ConnectionStateChangedPayload).New == notify.StateDegradedPolling {
				return true
			}
		}
		return false
	}, waitFor, tick)
}

func TestEndToEnd_FailedConfirmationKeepsLocalState(t *testing.T) {
	srv := inboxtest.New(t)
	srv.Seed(user, note(1, false))
	srv.FailConfirmations(true)

	s := login(t, srv, nil)

	s.MarkRead(context.Background(), 1)
	assert.Zero(t, s.UnreadCount())
	assert.Equal(t, []string{"1"}, srv.Confirmations(), "sent once, never retried")

	s.Refresh(context.Background())
	assert.Equal(t, 1, s.UnreadCount(), "a refresh restores the server's view")
}

func TestServer_RejectsBadCredentials(t *testing.T) {
	srv := inboxtest.New(t)

	tests := []struct {
		name   string
		token  string
		userID string
		want   int
	}{
		{name: "missing token", token: "", userID: user, want: http.StatusUnauthorized},
		{name: "garbage token", token: "not-a-jwt", userID: user, want: http.StatusUnauthorized},
		{name: "other user", token: srv.Token(t, "7"), userID: user, want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := inboxapi.New(srv.URL, tt.token, time.Second).FetchList(context.Background(), tt.userID)
			require.Error(t, err)

			var se *inboxapi.StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.want, se.Code)
		})
	}
}
