package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/inbox/internal/core/logging"
	"github.com/colonyops/inbox/internal/core/notify"
	"github.com/colonyops/inbox/internal/core/styles"
	"github.com/colonyops/inbox/internal/inbox"
	"github.com/colonyops/inbox/pkg/iojson"
)

type ListCmd struct {
	flags *Flags

	// flags
	jsonOutput bool
	unreadOnly bool
}

// NewListCmd creates a new list command
func NewListCmd(flags *Flags) *ListCmd {
	return &ListCmd{flags: flags}
}

// Register adds the list command to the application
func (cmd *ListCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List notifications",
		UsageText: "inbox list [--json] [--unread]",
		Description: `Fetches the notification list and the unread counter from the server and
prints them newest first.

Use --json for one JSON object per line.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON lines",
				Destination: &cmd.jsonOutput,
			},
			&cli.BoolFlag{
				Name:        "unread",
				Aliases:     []string{"u"},
				Usage:       "only show unread notifications",
				Destination: &cmd.unreadOnly,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ListCmd) run(ctx context.Context, c *cli.Command) error {
	ident, err := cmd.flags.Identity(ctx)
	if err != nil {
		return err
	}

	store := inbox.NewStore()
	defer store.Close()

	coord := inbox.NewCoordinator(cmd.flags.API(), store, ident.UserID, logging.Component("coordinator"))
	if err := coord.Refresh(ctx); err != nil {
		return fmt.Errorf("fetch notifications: %w", err)
	}

	items := store.Notifications()
	if cmd.unreadOnly {
		items = unread(items)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		for _, n := range items {
			if err := iojson.WriteLine(out, newNotificationInfo(n)); err != nil {
				return fmt.Errorf("encode notification: %w", err)
			}
		}
		return nil
	}

	if len(items) == 0 {
		fmt.Fprintf(os.Stderr, "No notifications\n")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, " \tID\tTITLE\tCREATED\tROUTE")
	for _, n := range items {
		mark := styles.IconRead
		if !n.IsRead {
			mark = styles.IconUnread
		}
		route, _ := n.Route()
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", mark, n.ID, n.Title, n.CreatedAt.Local().Format(time.DateTime), route)
	}
	_ = w.Flush()

	fmt.Fprintf(os.Stderr, "\n%d unread\n", store.UnreadCount())
	return nil
}

// notificationInfo is the JSON output format for inbox list --json and
// inbox watch --json.
type notificationInfo struct {
	notify.Notification
	Route string `json:"route,omitempty"`
}

func newNotificationInfo(n notify.Notification) notificationInfo {
	route, _ := n.Route()
	return notificationInfo{Notification: n, Route: route}
}

func unread(items []notify.Notification) []notify.Notification {
	out := make([]notify.Notification, 0, len(items))
	for _, n := range items {
		if !n.IsRead {
			out = append(out, n)
		}
	}
	return out
}
