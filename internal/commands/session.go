package commands

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/colonyops/inbox/internal/core/eventbus"
	"github.com/colonyops/inbox/internal/core/logging"
	"github.com/colonyops/inbox/internal/inbox"
	"github.com/colonyops/inbox/internal/integration/eventstream"
)

// busSize is the event buffer used by long-running commands.
const busSize = 128

// newBus creates the event bus shared by a long-running command and starts
// dispatching once ctx is live. Subscribers must be registered before the
// returned start func is called.
func newBus() (*eventbus.EventBus, func(ctx context.Context)) {
	bus := eventbus.New(busSize)
	eventbus.RegisterDebugLogger(bus, logging.Component("eventbus"))
	eventbus.NewStatusRouter(bus).Register()

	return bus, func(ctx context.Context) { go bus.Start(ctx) }
}

// openSession logs in with the resolved identity through a manager wired to
// the REST API and the push stream. A failed initial refresh is logged and
// the session is returned anyway; it recovers on the next push or poll.
func (f *Flags) openSession(ctx context.Context, ident inbox.Identity, bus *eventbus.EventBus) (*inbox.Manager, *inbox.Session, error) {
	mgr := inbox.NewManager(
		inbox.Deps{
			API:  f.API(),
			Push: eventstream.New(f.BaseURL(), nil, logging.Component("eventstream")),
			Bus:  bus,
		},
		inbox.Options{
			FallbackInterval: f.Config.Push.FallbackInterval,
			RefreshOnStart:   f.Config.ShouldRefreshOnStart(),
			Logger:           logging.Component("inbox"),
		},
	)

	session, err := mgr.Login(ctx, ident.UserID, ident.Credential)
	if session == nil {
		return nil, nil, err
	}
	if err != nil {
		log.Warn().Err(err).Str("user_id", ident.UserID).Msg("initial refresh failed")
	}

	return mgr, session, nil
}
