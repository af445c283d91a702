package eventbus_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/inbox/internal/core/eventbus"
	"github.com/colonyops/inbox/internal/core/eventbus/testbus"
	"github.com/colonyops/inbox/internal/core/notify"
)

func latestStatus(tb *testbus.Bus, t *testing.T) eventbus.StatusPostedPayload {
	t.Helper()
	tb.AssertPublished(t, eventbus.EventStatusPosted)

	payloads := tb.Payloads(eventbus.EventStatusPosted)
	require.NotEmpty(t, payloads)
	p, ok := payloads[len(payloads)-1].(eventbus.StatusPostedPayload)
	require.True(t, ok)
	return p
}

func TestStatusRouter_Degraded_postsWarning(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewStatusRouter(tb.EventBus).Register()

	tb.PublishConnectionStateChanged(eventbus.ConnectionStateChangedPayload{
		UserID: "42",
		Old:    notify.StateOpen,
		New:    notify.StateDegradedPolling,
	})
	p := latestStatus(tb, t)

	assert.Equal(t, notify.LevelWarning, p.Level)
	assert.Contains(t, p.Message, "unavailable")
}

func TestStatusRouter_Open_postsInfo(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewStatusRouter(tb.EventBus).Register()

	tb.PublishConnectionStateChanged(eventbus.ConnectionStateChangedPayload{
		Old: notify.StateConnecting,
		New: notify.StateOpen,
	})
	p := latestStatus(tb, t)

	assert.Equal(t, notify.LevelInfo, p.Level)
	assert.Contains(t, p.Message, "connected")
}

func TestStatusRouter_Connecting_doesNotPost(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewStatusRouter(tb.EventBus).Register()

	tb.PublishConnectionStateChanged(eventbus.ConnectionStateChangedPayload{
		Old: notify.StateIdle,
		New: notify.StateConnecting,
	})

	tb.AssertNotPublished(t, eventbus.EventStatusPosted, 100*time.Millisecond)
}

func TestStatusRouter_ConfirmationFailed(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewStatusRouter(tb.EventBus).Register()

	tb.PublishConfirmationFailed(eventbus.ConfirmationFailedPayload{
		UserID:         "42",
		NotificationID: 7,
		Err:            errors.New("boom"),
	})
	p := latestStatus(tb, t)

	assert.Equal(t, notify.LevelWarning, p.Level)
	assert.Contains(t, p.Message, "#7")
}

func TestStatusRouter_ConfirmationFailed_readAll(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewStatusRouter(tb.EventBus).Register()

	tb.PublishConfirmationFailed(eventbus.ConfirmationFailedPayload{UserID: "42", Err: errors.New("boom")})
	p := latestStatus(tb, t)

	assert.Contains(t, p.Message, "mark-all-read")
}

func TestStatusRouter_RefreshFailed(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewStatusRouter(tb.EventBus).Register()

	tb.PublishRefreshFailed(eventbus.RefreshFailedPayload{UserID: "42", Err: errors.New("server unavailable")})
	p := latestStatus(tb, t)

	assert.Equal(t, notify.LevelWarning, p.Level)
	assert.Contains(t, p.Message, "server unavailable")
}

func TestStatusRouter_SessionClosed(t *testing.T) {
	tb := testbus.New(t)
	eventbus.NewStatusRouter(tb.EventBus).Register()

	tb.PublishSessionClosed(eventbus.SessionClosedPayload{SessionID: "s", UserID: "42"})
	p := latestStatus(tb, t)

	assert.Equal(t, notify.LevelInfo, p.Level)
	assert.Contains(t, p.Message, "42")
}

func TestStatusRouter_NilSafe(t *testing.T) {
	var r *eventbus.StatusRouter
	assert.NotPanics(t, r.Register)
	assert.NotPanics(t, eventbus.NewStatusRouter(nil).Register)
}
