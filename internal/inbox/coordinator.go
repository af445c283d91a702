package inbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/colonyops/inbox/internal/core/notify"
)

// Coordinator applies read intents optimistically to the store, confirms them
// with the server on a best-effort basis, and drives full refreshes.
type Coordinator struct {
	api    notify.API
	store  *Store
	userID string
	log    zerolog.Logger

	mu             sync.Mutex
	lastCount      int
	haveCount      bool
	stale          bool
	onConfirmError []func(error)
	onRefreshError []func(error)
}

// NewCoordinator creates a coordinator for one identity.
func NewCoordinator(api notify.API, store *Store, userID string, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		api:    api,
		store:  store,
		userID: userID,
		log:    logger,
	}
}

// UserID returns the identity the coordinator reads and confirms for.
func (c *Coordinator) UserID() string { return c.userID }

// OnConfirmationFailed registers a hook invoked when a read confirmation fails.
func (c *Coordinator) OnConfirmationFailed(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConfirmError = append(c.onConfirmError, fn)
}

// OnRefreshFailed registers a hook invoked when a refresh could not fetch the
// list. Nothing was applied in that case.
func (c *Coordinator) OnRefreshFailed(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRefreshError = append(c.onRefreshError, fn)
}

// MarkRead marks the notification read locally, then confirms with the server.
// A failed confirmation is logged and returned but never rolled back; the next
// refresh corrects any disagreement.
func (c *Coordinator) MarkRead(ctx context.Context, id int64) error {
	changed, err := c.store.MarkOneRead(id)
	if err != nil {
		return fmt.Errorf("mark read %d: %w", id, err)
	}
	if changed {
		c.invalidateCount()
	}

	if err := c.api.ConfirmRead(ctx, id, c.userID); err != nil {
		return c.confirmationFailed(&notify.ConfirmationError{NotificationID: id, Err: err})
	}

	c.log.Debug().Int64("notification_id", id).Msg("read confirmed")
	return nil
}

// MarkAllRead marks every notification read locally, then confirms with the
// server, with the same no-rollback contract as MarkRead.
func (c *Coordinator) MarkAllRead(ctx context.Context) error {
	if err := c.store.MarkAllRead(); err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}
	c.invalidateCount()

	if err := c.api.ConfirmReadAll(ctx, c.userID); err != nil {
		return c.confirmationFailed(&notify.ConfirmationError{Err: err})
	}

	c.log.Debug().Msg("read-all confirmed")
	return nil
}

// Refresh fetches the list and the unread count concurrently and replaces the
// store contents. The counter applied is the one the server reported most
// recently, so when refreshes overlap the snapshot that arrives last wins.
// When the count request fails the last reported value is reused, unless a
// local read happened since, in which case the local counter is kept. Nothing
// is applied when the list request fails or ctx has ended.
func (c *Coordinator) Refresh(ctx context.Context) error {
	var (
		g        errgroup.Group
		list     []notify.Notification
		countErr error
	)

	g.Go(func() error {
		var err error
		list, err = c.api.FetchList(ctx, c.userID)
		return err
	})
	g.Go(func() error {
		count, err := c.api.FetchUnreadCount(ctx, c.userID)
		if err != nil {
			countErr = err
			return nil
		}
		c.recordCount(count)
		return nil
	})

	if err := g.Wait(); err != nil {
		c.log.Warn().Err(err).Msg("refresh: fetch list failed")
		err = fmt.Errorf("fetch list: %w", err)
		c.refreshFailed(err)
		return err
	}

	count, ok := c.reportedCount()
	if countErr != nil {
		c.log.Warn().Err(countErr).Bool("have_previous", ok).Msg("refresh: fetch unread count failed")
		if !ok {
			count, ok = c.localCount()
		}
	}
	if !ok {
		count = countUnread(list)
	}

	// A teardown cancels ctx; a response arriving after it must not land in
	// the store.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("apply refresh: %w", err)
	}
	if err := c.store.ReplaceAll(list, count); err != nil {
		return fmt.Errorf("apply refresh: %w", err)
	}

	c.log.Debug().Int("items", len(list)).Int("unread", count).Msg("refresh applied")
	return nil
}

func (c *Coordinator) recordCount(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastCount = n
	c.haveCount = true
	c.stale = false
}

// reportedCount returns the last count the server reported, unless a local
// read made it stale.
func (c *Coordinator) reportedCount() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCount, c.haveCount && !c.stale
}

func (c *Coordinator) invalidateCount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale = c.haveCount
}

// localCount is the store counter, used when the server's last report is
// older than a local read.
func (c *Coordinator) localCount() (int, bool) {
	c.mu.Lock()
	stale := c.stale
	c.mu.Unlock()
	if !stale {
		return 0, false
	}
	return c.store.UnreadCount(), true
}

func (c *Coordinator) refreshFailed(err error) {
	c.mu.Lock()
	hooks := make([]func(error), len(c.onRefreshError))
	copy(hooks, c.onRefreshError)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn(err)
	}
}

func (c *Coordinator) confirmationFailed(err *notify.ConfirmationError) error {
	c.log.Warn().Err(err).Msg("read confirmation failed, keeping local state")

	c.mu.Lock()
	hooks := make([]func(error), len(c.onConfirmError))
	copy(hooks, c.onConfirmError)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn(err)
	}
	return err
}

func countUnread(items []notify.Notification) int {
	n := 0
	for _, item := range items {
		if !item.IsRead {
			n++
		}
	}
	return n
}
