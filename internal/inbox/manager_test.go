package inbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/inbox/internal/core/notify"
)

func TestManager_Login(t *testing.T) {
	h := newSessionHarness(t)
	h.api.list = []notify.Notification{note(1, false)}
	h.api.count = 1

	m := NewManager(h.deps(), h.opts())
	t.Cleanup(m.Logout)
	assert.Nil(t, m.Current())

	s, err := m.Login(context.Background(), "42", "tok")
	require.NoError(t, err)
	assert.Same(t, s, m.Current())
	assert.Equal(t, 1, s.UnreadCount())

	again, err := m.Login(context.Background(), "42", "tok")
	require.NoError(t, err)
	assert.Same(t, s, again, "same identity keeps the session")
	assert.Equal(t, 1, h.api.listCallCount())
}

func TestManager_LoginRequiresUserID(t *testing.T) {
	m := NewManager(newSessionHarness(t).deps(), Options{})

	_, err := m.Login(context.Background(), "", "tok")
	require.ErrorIs(t, err, ErrNoIdentity)
	assert.Nil(t, m.Current())
}

func TestManager_IdentityChangeRebuildsSession(t *testing.T) {
	h := newSessionHarness(t)
	h.api.list = []notify.Notification{note(1, false)}
	h.api.count = 1

	m := NewManager(h.deps(), h.opts())
	t.Cleanup(m.Logout)

	alice, err := m.Login(context.Background(), "alice", "a")
	require.NoError(t, err)
	aliceSub := h.push.waitSub(t, 1)

	h.api.set(func(a *fakeAPI) {
		a.list = []notify.Notification{note(7, false), note(8, false)}
		a.count = 2
	})

	bob, err := m.Login(context.Background(), "bob", "b")
	require.NoError(t, err)
	assert.NotSame(t, alice, bob)
	assert.NotEqual(t, alice.ID(), bob.ID())

	assert.Equal(t, notify.StateClosed, alice.State())
	require.Eventually(t, func() bool { return aliceSub.ctx.Err() != nil }, waitFor, time.Millisecond)
	_, err = alice.Store().InsertPushed(note(99, false))
	require.ErrorIs(t, err, notify.ErrNotInitialized)

	assert.Equal(t, []int64{7, 8}, ids(bob.Notifications()))
	assert.Equal(t, 2, bob.UnreadCount())

	bobSub := h.push.waitSub(t, 2)
	assert.Equal(t, "bob", bobSub.userID)

	aliceSub.handler.OnMessage(notify.EventNotification, payload(t, note(50, false)))
	assert.Equal(t, 2, bob.UnreadCount(), "old channel cannot reach the new store")
}

func TestManager_Logout(t *testing.T) {
	h := newSessionHarness(t)
	m := NewManager(h.deps(), h.opts())

	s, err := m.Login(context.Background(), "42", "tok")
	require.NoError(t, err)

	m.Logout()
	m.Logout()

	assert.Nil(t, m.Current())
	assert.Equal(t, notify.StateClosed, s.State())
}
