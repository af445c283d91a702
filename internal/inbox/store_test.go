package inbox

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/inbox/internal/core/notify"
)

func note(id int64, read bool) notify.Notification {
	return notify.Notification{ID: id, Title: "n", IsRead: read}
}

func ids(items []notify.Notification) []int64 {
	out := make([]int64, 0, len(items))
	for _, n := range items {
		out = append(out, n.ID)
	}
	return out
}

func TestStore_ReplaceAll(t *testing.T) {
	t.Run("preserves input order and authoritative counter", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.ReplaceAll([]notify.Notification{note(3, false), note(1, true), note(2, false)}, 7))

		assert.Equal(t, []int64{3, 1, 2}, ids(s.Notifications()))
		assert.Equal(t, 7, s.UnreadCount(), "counter is not recomputed from the partial list")
	})

	t.Run("moves counter downward", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.ReplaceAll([]notify.Notification{note(1, false)}, 5))
		require.NoError(t, s.ReplaceAll([]notify.Notification{note(1, false)}, 1))
		assert.Equal(t, 1, s.UnreadCount())
	})

	t.Run("negative counter floors at zero", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.ReplaceAll(nil, -3))
		assert.Equal(t, 0, s.UnreadCount())
		assert.Empty(t, s.Notifications())
	})

	t.Run("duplicate ids keep first occurrence", func(t *testing.T) {
		s := NewStore()
		first := notify.Notification{ID: 1, Title: "first"}
		second := notify.Notification{ID: 1, Title: "second"}
		require.NoError(t, s.ReplaceAll([]notify.Notification{first, note(2, false), second}, 2))

		items := s.Notifications()
		assert.Equal(t, []int64{1, 2}, ids(items))
		assert.Equal(t, "first", items[0].Title)
	})

	t.Run("replaces previously pushed items", func(t *testing.T) {
		s := NewStore()
		_, err := s.InsertPushed(note(9, false))
		require.NoError(t, err)

		require.NoError(t, s.ReplaceAll([]notify.Notification{note(1, false)}, 1))
		assert.Equal(t, []int64{1}, ids(s.Notifications()))

		inserted, err := s.InsertPushed(note(9, false))
		require.NoError(t, err)
		assert.True(t, inserted, "id index must be rebuilt on replace")
	})
}

func TestStore_InsertPushed(t *testing.T) {
	t.Run("prepends newest first", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.ReplaceAll([]notify.Notification{note(1, false)}, 1))

		_, err := s.InsertPushed(note(10, false))
		require.NoError(t, err)
		_, err = s.InsertPushed(note(11, false))
		require.NoError(t, err)

		assert.Equal(t, []int64{11, 10, 1}, ids(s.Notifications()))
		assert.Equal(t, 3, s.UnreadCount())
	})

	t.Run("idempotent on duplicate id", func(t *testing.T) {
		once := NewStore()
		_, err := once.InsertPushed(note(2, false))
		require.NoError(t, err)

		twice := NewStore()
		inserted, err := twice.InsertPushed(note(2, false))
		require.NoError(t, err)
		assert.True(t, inserted)
		inserted, err = twice.InsertPushed(note(2, false))
		require.NoError(t, err)
		assert.False(t, inserted)

		assert.Equal(t, once.Len(), twice.Len())
		assert.Equal(t, once.UnreadCount(), twice.UnreadCount())
	})

	t.Run("read notification does not bump counter", func(t *testing.T) {
		s := NewStore()
		_, err := s.InsertPushed(note(5, true))
		require.NoError(t, err)

		assert.Equal(t, 1, s.Len())
		assert.Equal(t, 0, s.UnreadCount())
	})
}

func TestStore_MarkOneRead(t *testing.T) {
	t.Run("decrements once", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.ReplaceAll([]notify.Notification{note(1, false), note(2, false)}, 2))

		changed, err := s.MarkOneRead(1)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, 1, s.UnreadCount())

		n, ok := s.Get(1)
		require.True(t, ok)
		assert.True(t, n.IsRead)
	})

	t.Run("repeated calls never go below zero", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.ReplaceAll([]notify.Notification{note(1, false)}, 0))

		for range 5 {
			_, err := s.MarkOneRead(1)
			require.NoError(t, err)
		}
		assert.Equal(t, 0, s.UnreadCount())
	})

	t.Run("absent and already read ids are no-ops", func(t *testing.T) {
		s := NewStore()
		require.NoError(t, s.ReplaceAll([]notify.Notification{note(1, true)}, 4))

		changed, err := s.MarkOneRead(1)
		require.NoError(t, err)
		assert.False(t, changed)

		changed, err = s.MarkOneRead(99)
		require.NoError(t, err)
		assert.False(t, changed)

		assert.Equal(t, 4, s.UnreadCount())
	})
}

func TestStore_MarkAllRead(t *testing.T) {
	s := NewStore()
	items := []notify.Notification{note(1, false), note(2, true), note(3, false), note(4, true)}
	require.NoError(t, s.ReplaceAll(items, 12))

	require.NoError(t, s.MarkAllRead())

	assert.Equal(t, 0, s.UnreadCount())
	for _, n := range s.Notifications() {
		assert.True(t, n.IsRead, "notification %d should be read", n.ID)
	}
	assert.Equal(t, 4, s.Len())
}

func TestStore_NotInitialized(t *testing.T) {
	stores := map[string]*Store{
		"zero value": {},
		"closed": func() *Store {
			s := NewStore()
			s.Close()
			return s
		}(),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, s.ReplaceAll(nil, 0), notify.ErrNotInitialized)

			_, err := s.InsertPushed(note(1, false))
			assert.ErrorIs(t, err, notify.ErrNotInitialized)

			_, err = s.MarkOneRead(1)
			assert.ErrorIs(t, err, notify.ErrNotInitialized)

			assert.ErrorIs(t, s.MarkAllRead(), notify.ErrNotInitialized)
		})
	}
}

func TestStore_Close_keepsDataReadable(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.ReplaceAll([]notify.Notification{note(1, false)}, 1))
	s.Close()

	assert.Equal(t, []int64{1}, ids(s.Notifications()))
	assert.Equal(t, 1, s.UnreadCount())
}

func TestStore_OnChange(t *testing.T) {
	s := NewStore()

	var changes []Change
	s.OnChange(func(c Change) { changes = append(changes, c) })

	require.NoError(t, s.ReplaceAll([]notify.Notification{note(1, false)}, 1))
	_, _ = s.InsertPushed(note(2, false))
	_, _ = s.InsertPushed(note(2, false)) // duplicate, no change
	_, _ = s.MarkOneRead(1)
	_, _ = s.MarkOneRead(1) // already read, no change
	require.NoError(t, s.MarkAllRead())

	require.Len(t, changes, 4)
	assert.Equal(t, Change{Reason: ReasonReplaced, Unread: 1, Len: 1}, changes[0])
	assert.Equal(t, Change{Reason: ReasonPushed, Unread: 2, Len: 2}, changes[1])
	assert.Equal(t, Change{Reason: ReasonMarkedRead, Unread: 1, Len: 2}, changes[2])
	assert.Equal(t, Change{Reason: ReasonAllRead, Unread: 0, Len: 2}, changes[3])
}

func TestStore_ConcurrentTriggers(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.ReplaceAll([]notify.Notification{note(1, false)}, 1))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_, _ = s.InsertPushed(note(2, false))
		}()
		go func() {
			defer wg.Done()
			_, _ = s.MarkOneRead(1)
		}()
		go func() {
			defer wg.Done()
			_ = s.Notifications()
		}()
	}
	wg.Wait()

	assert.Equal(t, []int64{2, 1}, ids(s.Notifications()))
	assert.Equal(t, 1, s.UnreadCount())
}
