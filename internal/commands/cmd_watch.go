package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/inbox/internal/core/eventbus"
	"github.com/colonyops/inbox/internal/core/notify"
	"github.com/colonyops/inbox/internal/core/styles"
	"github.com/colonyops/inbox/internal/printer"
	"github.com/colonyops/inbox/pkg/iojson"
)

type WatchCmd struct {
	flags *Flags

	// flags
	jsonOutput   bool
	profilerPort int
}

// NewWatchCmd creates a new watch command
func NewWatchCmd(flags *Flags) *WatchCmd {
	return &WatchCmd{flags: flags}
}

// Register adds the watch command to the application
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "watch",
		Usage:     "Stream notifications as they arrive",
		UsageText: "inbox watch [--json]",
		Description: `Opens a live session: prints the current notifications, then every new one
pushed by the server. When the push stream fails the session falls back to
periodic refreshes and keeps printing.

Output is JSON lines when --json is set or stdout is not a terminal.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
			profilerFlag(&cmd.profilerPort),
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *WatchCmd) run(ctx context.Context, c *cli.Command) error {
	ident, err := cmd.flags.Identity(ctx)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopProfiler, err := startProfiler(ctx, cmd.profilerPort)
	if err != nil {
		return err
	}
	defer stopProfiler()

	out := c.Root().Writer
	w := newWatchWriter(out, cmd.jsonOutput || !isTerminal(out))

	bus, startBus := newBus()
	mgr, session, err := cmd.flags.openSession(ctx, ident, bus)
	if err != nil {
		return err
	}
	defer mgr.Logout()

	bus.SubscribeInboxChanged(func(eventbus.InboxChangedPayload) {
		w.notifications(session.Notifications())
	})
	bus.SubscribeConnectionStateChanged(func(p eventbus.ConnectionStateChangedPayload) {
		w.state(p.New)
	})
	bus.SubscribeStatusPosted(func(p eventbus.StatusPostedPayload) {
		w.status(ctx, p)
	})
	startBus(ctx)

	w.notifications(session.Notifications())

	<-ctx.Done()
	log.Debug().Ctx(session.Context(context.Background())).Msg("watch: shutting down")
	return nil
}

// watchEvent is one line of inbox watch --json output.
type watchEvent struct {
	Type         string            `json:"type"`
	Notification *notificationInfo `json:"notification,omitempty"`
	State        string            `json:"state,omitempty"`
	Level        string            `json:"level,omitempty"`
	Message      string            `json:"message,omitempty"`
}

// watchWriter prints each notification once, oldest first, no matter how
// many change events mention it.
type watchWriter struct {
	mu      sync.Mutex
	out     io.Writer
	asJSON  bool
	printed map[int64]struct{}
}

func newWatchWriter(out io.Writer, asJSON bool) *watchWriter {
	return &watchWriter{out: out, asJSON: asJSON, printed: make(map[int64]struct{})}
}

func (w *watchWriter) notifications(items []notify.Notification) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, n := range slices.Backward(items) {
		if _, ok := w.printed[n.ID]; ok {
			continue
		}
		w.printed[n.ID] = struct{}{}

		if w.asJSON {
			info := newNotificationInfo(n)
			w.writeLine(watchEvent{Type: "notification", Notification: &info})
			continue
		}

		mark := styles.MutedStyle.Render(styles.IconRead)
		if !n.IsRead {
			mark = styles.UnreadMarkStyle.Render(styles.IconUnread)
		}
		line := fmt.Sprintf("%s %s %s", mark, styles.TimestampStyle.Render(n.CreatedAt.Local().Format(time.TimeOnly)), n.Title)
		if route, ok := n.Route(); ok {
			line += " " + styles.RouteStyle.Render("→ "+route)
		}
		_, _ = fmt.Fprintln(w.out, line)
	}
}

func (w *watchWriter) state(s notify.ConnectionState) {
	if !w.asJSON {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.writeLine(watchEvent{Type: "state", State: string(s)})
}

func (w *watchWriter) status(ctx context.Context, p eventbus.StatusPostedPayload) {
	if !w.asJSON {
		pr := printer.Ctx(ctx)
		switch p.Level {
		case notify.LevelError:
			pr.Errorf("%s", p.Message)
		case notify.LevelWarning:
			pr.Warnf("%s", p.Message)
		default:
			pr.Infof("%s", p.Message)
		}
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.writeLine(watchEvent{Type: "status", Level: string(p.Level), Message: p.Message})
}

func (w *watchWriter) writeLine(ev watchEvent) {
	if err := iojson.WriteLine(w.out, ev); err != nil {
		log.Error().Err(err).Str("type", ev.Type).Msg("watch: write event")
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
