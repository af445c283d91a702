package inbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/inbox/internal/core/eventbus"
	"github.com/colonyops/inbox/internal/core/logging"
	"github.com/colonyops/inbox/internal/core/notify"
)

// Identity is the authenticated user a session serves.
type Identity struct {
	UserID     string
	Credential string
}

// Deps are the outside collaborators shared by every session.
type Deps struct {
	API  notify.API
	Push notify.PushSource
	Bus  *eventbus.EventBus // optional
}

// Options tune session behaviour.
type Options struct {
	FallbackInterval time.Duration
	RefreshOnStart   bool
	Clock            Clock
	Logger           zerolog.Logger
}

// Session is the store, supervisor and coordinator tuple bound to one
// identity. It is the surface the commands and the TUI work against.
type Session struct {
	id       string
	identity Identity
	bus      *eventbus.EventBus
	log      zerolog.Logger
	refresh  bool

	store       *Store
	coordinator *Coordinator
	supervisor  *Supervisor

	closeOnce sync.Once
}

// NewSession builds a session for identity. Nothing touches the network until
// Start is called.
func NewSession(identity Identity, deps Deps, opts Options) *Session {
	id := uuid.NewString()
	logger := opts.Logger.With().
		Str("session_id", id).
		Str("user_id", identity.UserID).
		Logger()

	store := NewStore()
	coordinator := NewCoordinator(deps.API, store, identity.UserID,
		logger.With().Str("cmp", "coordinator").Logger())
	supervisor := NewSupervisor(deps.Push, store, coordinator, SupervisorOptions{
		FallbackInterval: opts.FallbackInterval,
		Clock:            opts.Clock,
		Logger:           logger.With().Str("cmp", "supervisor").Logger(),
	})

	s := &Session{
		id:          id,
		identity:    identity,
		bus:         deps.Bus,
		log:         logger,
		refresh:     opts.RefreshOnStart,
		store:       store,
		coordinator: coordinator,
		supervisor:  supervisor,
	}

	if s.bus != nil {
		s.wireBus()
	}

	return s
}

func (s *Session) wireBus() {
	userID := s.identity.UserID

	s.store.OnChange(func(c Change) {
		s.bus.PublishInboxChanged(eventbus.InboxChangedPayload{
			UserID: userID,
			Reason: string(c.Reason),
			Unread: c.Unread,
			Len:    c.Len,
		})
	})

	s.supervisor.OnStateChange(func(old, new notify.ConnectionState) {
		s.bus.PublishConnectionStateChanged(eventbus.ConnectionStateChangedPayload{
			UserID: userID,
			Old:    old,
			New:    new,
		})
	})

	s.coordinator.OnConfirmationFailed(func(err error) {
		p := eventbus.ConfirmationFailedPayload{UserID: userID, Err: err}
		var ce *notify.ConfirmationError
		if errors.As(err, &ce) {
			p.NotificationID = ce.NotificationID
		}
		s.bus.PublishConfirmationFailed(p)
	})

	s.coordinator.OnRefreshFailed(func(err error) {
		s.bus.PublishRefreshFailed(eventbus.RefreshFailedPayload{UserID: userID, Err: err})
	})
}

// ID returns the random identifier of this session.
func (s *Session) ID() string { return s.id }

// Identity returns the identity this session is bound to.
func (s *Session) Identity() Identity { return s.identity }

// Context returns ctx annotated with the session and user IDs for logging.
func (s *Session) Context(ctx context.Context) context.Context {
	ctx = logging.WithSessionID(ctx, s.id)
	return logging.WithUserID(ctx, s.identity.UserID)
}

// Start opens the push channel and, when configured, performs the initial
// refresh. A failed initial refresh is returned but leaves the session
// running; the push channel and fallback polling keep working.
func (s *Session) Start(ctx context.Context) error {
	ctx = s.Context(ctx)
	s.log.Info().Ctx(ctx).Msg("starting inbox session")

	s.supervisor.Start(s.identity.UserID, s.identity.Credential)
	if s.bus != nil {
		s.bus.PublishSessionStarted(eventbus.SessionStartedPayload{
			SessionID: s.id,
			UserID:    s.identity.UserID,
		})
	}

	if !s.refresh {
		return nil
	}

	if err := s.coordinator.Refresh(ctx); err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Msg("initial refresh failed")
		return err
	}
	return nil
}

// Stop closes the push channel and the fallback timer. The store stays
// readable until Close.
func (s *Session) Stop() {
	s.supervisor.Stop()
}

// Close stops the session and discards the store. Subsequent reads report
// notify.ErrNotInitialized. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.supervisor.Stop()
		s.store.Close()
		s.log.Info().Msg("inbox session closed")

		if s.bus != nil {
			s.bus.PublishSessionClosed(eventbus.SessionClosedPayload{
				SessionID: s.id,
				UserID:    s.identity.UserID,
			})
		}
	})
}

// Notifications returns a snapshot of the inbox, newest first.
func (s *Session) Notifications() []notify.Notification { return s.store.Notifications() }

// UnreadCount returns the current unread counter.
func (s *Session) UnreadCount() int { return s.store.UnreadCount() }

// State returns the push channel state.
func (s *Session) State() notify.ConnectionState { return s.supervisor.State() }

// MarkRead marks one notification read. The local change always sticks.
// Failures are logged and reported through the bus, never returned.
func (s *Session) MarkRead(ctx context.Context, id int64) {
	ctx = s.Context(ctx)
	s.absorb(ctx, s.coordinator.MarkRead(ctx, id), "mark read")
}

// MarkAllRead marks every notification read with the same contract as MarkRead.
func (s *Session) MarkAllRead(ctx context.Context) {
	ctx = s.Context(ctx)
	s.absorb(ctx, s.coordinator.MarkAllRead(ctx), "mark all read")
}

// Refresh replaces the inbox with the server's view. On failure the inbox
// stays as it was and a refresh.failed event is published.
func (s *Session) Refresh(ctx context.Context) {
	ctx = s.Context(ctx)
	s.absorb(ctx, s.coordinator.Refresh(ctx), "refresh")
}

// Store exposes the underlying store, mainly for observers.
func (s *Session) Store() *Store { return s.store }

// Coordinator exposes the underlying coordinator.
func (s *Session) Coordinator() *Coordinator { return s.coordinator }

// absorb logs err from a UI-facing operation. Confirmation and refresh
// failures were already reported through the coordinator hooks.
func (s *Session) absorb(ctx context.Context, err error, op string) {
	switch {
	case err == nil:
	case errors.Is(err, notify.ErrNotInitialized):
		s.log.Debug().Ctx(ctx).Str("op", op).Msg("session closed, ignoring")
	case notify.IsConfirmationError(err):
	default:
		s.log.Warn().Ctx(ctx).Err(err).Str("op", op).Msg("inbox operation failed")
	}
}
