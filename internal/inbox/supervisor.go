package inbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/inbox/internal/core/notify"
)

// DefaultFallbackInterval is the polling period used once the push channel
// has failed.
const DefaultFallbackInterval = 5 * time.Minute

// EventKind identifies a supervisor input.
type EventKind int

const (
	EventOpened EventKind = iota
	EventFailed
	EventMessage
	EventTick
)

func (k EventKind) String() string {
	switch k {
	case EventOpened:
		return "opened"
	case EventFailed:
		return "failed"
	case EventMessage:
		return "message"
	case EventTick:
		return "tick"
	default:
		return "unknown"
	}
}

// Event is a channel or timer occurrence fed into the supervisor state machine.
type Event struct {
	Kind EventKind
	Name string // push event name, EventMessage only
	Data []byte // push payload, EventMessage only
	Err  error  // EventFailed only
}

// Refresher performs a full refresh for the identity it is bound to. The
// coordinator implements it.
type Refresher interface {
	Refresh(ctx context.Context) error
	UserID() string
}

// SupervisorOptions configures a Supervisor.
type SupervisorOptions struct {
	FallbackInterval time.Duration
	Clock            Clock
	Logger           zerolog.Logger
}

// Supervisor owns the push channel and the fallback polling timer for one
// session. Every channel and timer callback is funnelled through dispatch.
type Supervisor struct {
	source    notify.PushSource
	store     *Store
	refresher Refresher
	interval  time.Duration
	clock     Clock
	log       zerolog.Logger

	mu          sync.Mutex
	state       notify.ConnectionState
	userID      string
	credential  string
	gen         uint64
	ctx         context.Context
	cancel      context.CancelFunc
	chanCancel  context.CancelFunc
	ticker      Ticker
	timerCancel context.CancelFunc
	onState     []func(old, new notify.ConnectionState)
}

type transition struct {
	old, new notify.ConnectionState
}

// NewSupervisor wires a supervisor to its push source, store and refresher.
func NewSupervisor(source notify.PushSource, store *Store, refresher Refresher, opts SupervisorOptions) *Supervisor {
	if opts.FallbackInterval <= 0 {
		opts.FallbackInterval = DefaultFallbackInterval
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}

	return &Supervisor{
		source:    source,
		store:     store,
		refresher: refresher,
		interval:  opts.FallbackInterval,
		clock:     opts.Clock,
		log:       opts.Logger,
		state:     notify.StateIdle,
	}
}

// OnStateChange registers a hook invoked after every state transition.
func (s *Supervisor) OnStateChange(fn func(old, new notify.ConnectionState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onState = append(s.onState, fn)
}

// State returns the current connection state.
func (s *Supervisor) State() notify.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start opens the push channel for the identity. It is a no-op while the same
// identity is active. A different identity tears the previous channel and timer
// down first and empties the store, so nothing of the previous user survives.
// The channel is opened in the background.
func (s *Supervisor) Start(userID, credential string) {
	s.mu.Lock()
	active := s.state != notify.StateIdle && s.state != notify.StateClosed
	if active && s.userID == userID && s.credential == credential {
		s.mu.Unlock()
		return
	}

	var transitions []transition
	if active {
		s.log.Info().Str("user_id", s.userID).Msg("identity changed, closing previous push channel")
		s.teardownLocked()
		transitions = append(transitions, s.setStateLocked(notify.StateClosed))
	}

	switched := s.userID != "" && s.userID != userID

	s.gen++
	gen := s.gen
	s.userID = userID
	s.credential = credential
	s.ctx, s.cancel = context.WithCancel(context.Background())

	chanCtx, chanCancel := context.WithCancel(s.ctx)
	s.chanCancel = chanCancel
	transitions = append(transitions, s.setStateLocked(notify.StateConnecting))
	hooks := s.hooksLocked()
	s.mu.Unlock()

	s.emit(hooks, transitions...)

	if switched {
		if err := s.store.ReplaceAll(nil, 0); err != nil && !errors.Is(err, notify.ErrNotInitialized) {
			s.log.Error().Err(err).Msg("clear store for new identity")
		}
	}
	if bound := s.refresher.UserID(); bound != userID {
		s.log.Warn().Str("user_id", userID).Str("refresher_user_id", bound).
			Msg("refresher bound to another identity, fallback polling disabled")
	}

	s.log.Debug().Str("user_id", userID).Msg("opening push channel")
	go s.source.Subscribe(chanCtx, userID, credential, &channelHandler{sup: s, gen: gen})
}

// Stop closes the channel and clears the fallback timer. It is safe to call
// any number of times.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	if s.state == notify.StateClosed {
		s.mu.Unlock()
		return
	}

	s.teardownLocked()
	tr := s.setStateLocked(notify.StateClosed)
	hooks := s.hooksLocked()
	s.mu.Unlock()

	s.emit(hooks, tr)
	s.log.Debug().Msg("supervisor stopped")
}

// Dispatch feeds a synthetic event into the state machine for the current
// channel generation.
func (s *Supervisor) Dispatch(ev Event) {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	s.dispatch(gen, ev)
}

func (s *Supervisor) dispatch(gen uint64, ev Event) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.log.Debug().Stringer("event", ev.Kind).Msg("discarding event from stale channel")
		return
	}

	switch ev.Kind {
	case EventOpened:
		if s.state != notify.StateConnecting {
			s.mu.Unlock()
			return
		}
		s.stopTimerLocked()
		tr := s.setStateLocked(notify.StateOpen)
		hooks := s.hooksLocked()
		s.mu.Unlock()

		s.log.Info().Msg("push channel open")
		s.emit(hooks, tr)

	case EventFailed:
		if !s.state.Live() {
			s.mu.Unlock()
			return
		}
		if s.chanCancel != nil {
			s.chanCancel()
		}
		s.armTimerLocked(gen)
		tr := s.setStateLocked(notify.StateDegradedPolling)
		hooks := s.hooksLocked()
		userID := s.userID
		s.mu.Unlock()

		err := &notify.ConnectionError{UserID: userID, Err: ev.Err}
		s.log.Warn().Err(err).Dur("interval", s.interval).Msg("push channel failed, falling back to polling")
		s.emit(hooks, tr)

	case EventMessage:
		live := s.state.Live()
		s.mu.Unlock()
		if live {
			s.handleMessage(ev)
		}

	case EventTick:
		if s.state != notify.StateDegradedPolling {
			s.mu.Unlock()
			return
		}
		ctx := s.ctx
		userID := s.userID
		s.mu.Unlock()

		go s.fallbackRefresh(ctx, userID)

	default:
		s.mu.Unlock()
	}
}

func (s *Supervisor) handleMessage(ev Event) {
	if ev.Name != notify.EventNotification {
		s.log.Debug().Str("event", ev.Name).Msg("ignoring push event")
		return
	}

	n, err := notify.Decode(ev.Data)
	if err != nil {
		s.log.Warn().Err(err).Msg("dropping push payload")
		return
	}

	inserted, err := s.store.InsertPushed(n)
	switch {
	case errors.Is(err, notify.ErrNotInitialized):
		s.log.Debug().Int64("notification_id", n.ID).Msg("push arrived after store closed")
	case err != nil:
		s.log.Error().Err(err).Int64("notification_id", n.ID).Msg("insert pushed notification")
	case !inserted:
		s.log.Debug().Int64("notification_id", n.ID).Msg("duplicate push ignored")
	}
}

func (s *Supervisor) fallbackRefresh(ctx context.Context, userID string) {
	if ctx.Err() != nil {
		return
	}
	if s.refresher.UserID() != userID {
		s.log.Debug().Str("user_id", userID).Msg("skipping fallback refresh for another identity")
		return
	}
	if err := s.refresher.Refresh(ctx); err != nil {
		s.log.Debug().Err(err).Msg("fallback refresh failed")
	}
}

func (s *Supervisor) armTimerLocked(gen uint64) {
	s.stopTimerLocked()

	t := s.clock.NewTicker(s.interval)
	timerCtx, timerCancel := context.WithCancel(s.ctx)
	s.ticker = t
	s.timerCancel = timerCancel

	go func() {
		for {
			select {
			case <-timerCtx.Done():
				return
			case <-t.C():
				s.dispatch(gen, Event{Kind: EventTick})
			}
		}
	}()
}

func (s *Supervisor) stopTimerLocked() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	if s.timerCancel != nil {
		s.timerCancel()
		s.timerCancel = nil
	}
}

// teardownLocked releases the channel and timer and invalidates the current
// generation so late callbacks are discarded.
func (s *Supervisor) teardownLocked() {
	if s.chanCancel != nil {
		s.chanCancel()
		s.chanCancel = nil
	}
	s.stopTimerLocked()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}

func (s *Supervisor) setStateLocked(next notify.ConnectionState) transition {
	tr := transition{old: s.state, new: next}
	s.state = next
	return tr
}

func (s *Supervisor) hooksLocked() []func(old, new notify.ConnectionState) {
	hooks := make([]func(old, new notify.ConnectionState), len(s.onState))
	copy(hooks, s.onState)
	return hooks
}

func (s *Supervisor) emit(hooks []func(old, new notify.ConnectionState), transitions ...transition) {
	for _, tr := range transitions {
		if tr.old == tr.new {
			continue
		}
		s.log.Debug().Str("from", string(tr.old)).Str("to", string(tr.new)).Msg("connection state changed")
		for _, fn := range hooks {
			fn(tr.old, tr.new)
		}
	}
}

// channelHandler adapts push callbacks to supervisor events, tagged with the
// generation of the channel that produced them.
type channelHandler struct {
	sup *Supervisor
	gen uint64
}

func (h *channelHandler) OnOpen() {
	h.sup.dispatch(h.gen, Event{Kind: EventOpened})
}

func (h *channelHandler) OnMessage(event string, data []byte) {
	h.sup.dispatch(h.gen, Event{Kind: EventMessage, Name: event, Data: data})
}

func (h *channelHandler) OnError(err error) {
	h.sup.dispatch(h.gen, Event{Kind: EventFailed, Err: err})
}
