package inbox

import (
	"sync"

	"github.com/colonyops/inbox/internal/core/notify"
)

// ChangeReason names the store operation that produced a Change.
type ChangeReason string

const (
	ReasonReplaced   ChangeReason = "replaced"
	ReasonPushed     ChangeReason = "pushed"
	ReasonMarkedRead ChangeReason = "marked-read"
	ReasonAllRead    ChangeReason = "all-read"
)

// Change describes the store after an effective mutation.
type Change struct {
	Reason ChangeReason
	Unread int
	Len    int
}

// Store holds the ordered notification view and the unread counter for a
// single identity. The zero value is not initialized; use NewStore.
type Store struct {
	mu          sync.RWMutex
	initialized bool
	items       []notify.Notification
	ids         map[int64]struct{}
	unread      int
	onChange    []func(Change)
}

// NewStore returns an empty store ready for use.
func NewStore() *Store {
	return &Store{
		initialized: true,
		items:       make([]notify.Notification, 0),
		ids:         make(map[int64]struct{}),
	}
}

// OnChange registers a hook invoked after every effective mutation. Hooks run
// outside the store lock.
func (s *Store) OnChange(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// ReplaceAll replaces the list wholesale, preserving input order, and sets the
// counter to the authoritative value. A duplicate id in the input keeps its
// first occurrence.
func (s *Store) ReplaceAll(items []notify.Notification, unread int) error {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return notify.ErrNotInitialized
	}

	next := make([]notify.Notification, 0, len(items))
	ids := make(map[int64]struct{}, len(items))
	for _, n := range items {
		if _, dup := ids[n.ID]; dup {
			continue
		}
		ids[n.ID] = struct{}{}
		next = append(next, n)
	}

	s.items = next
	s.ids = ids
	s.unread = max(unread, 0)
	change := s.changeLocked(ReasonReplaced)
	s.mu.Unlock()

	s.emit(change)
	return nil
}

// InsertPushed prepends a pushed notification. It is a no-op when the id is
// already held. The counter grows by one only for unread notifications.
// The returned bool reports whether the notification was inserted.
func (s *Store) InsertPushed(n notify.Notification) (bool, error) {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return false, notify.ErrNotInitialized
	}

	if _, ok := s.ids[n.ID]; ok {
		s.mu.Unlock()
		return false, nil
	}

	s.items = append([]notify.Notification{n}, s.items...)
	s.ids[n.ID] = struct{}{}
	if !n.IsRead {
		s.unread++
	}
	change := s.changeLocked(ReasonPushed)
	s.mu.Unlock()

	s.emit(change)
	return true, nil
}

// MarkOneRead marks a held unread notification as read and decrements the
// counter, floored at zero. It reports whether anything changed.
func (s *Store) MarkOneRead(id int64) (bool, error) {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return false, notify.ErrNotInitialized
	}

	idx := s.indexLocked(id)
	if idx < 0 || s.items[idx].IsRead {
		s.mu.Unlock()
		return false, nil
	}

	s.items[idx].IsRead = true
	s.unread = max(s.unread-1, 0)
	change := s.changeLocked(ReasonMarkedRead)
	s.mu.Unlock()

	s.emit(change)
	return true, nil
}

// MarkAllRead marks every held notification as read and resets the counter to
// zero, regardless of how many entries are held locally.
func (s *Store) MarkAllRead() error {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return notify.ErrNotInitialized
	}

	for i := range s.items {
		s.items[i].IsRead = true
	}
	s.unread = 0
	change := s.changeLocked(ReasonAllRead)
	s.mu.Unlock()

	s.emit(change)
	return nil
}

// Notifications returns a copy of the held notifications in display order.
func (s *Store) Notifications() []notify.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]notify.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the held notification with the given id.
func (s *Store) Get(id int64) (notify.Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return notify.Notification{}, false
	}
	return s.items[idx], true
}

// UnreadCount returns the current unread counter.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// Len returns the number of held notifications.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Close detaches the store from its identity. Every later mutation fails with
// notify.ErrNotInitialized. Held data stays readable.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = false
	s.onChange = nil
}

func (s *Store) indexLocked(id int64) int {
	if _, ok := s.ids[id]; !ok {
		return -1
	}
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// changeLocked snapshots the store state along with the hooks to notify.
func (s *Store) changeLocked(reason ChangeReason) pendingChange {
	hooks := make([]func(Change), len(s.onChange))
	copy(hooks, s.onChange)
	return pendingChange{
		change: Change{Reason: reason, Unread: s.unread, Len: len(s.items)},
		hooks:  hooks,
	}
}

type pendingChange struct {
	change Change
	hooks  []func(Change)
}

func (s *Store) emit(p pendingChange) {
	for _, fn := range p.hooks {
		fn(p.change)
	}
}
