package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/inbox/internal/core/logging"
	"github.com/colonyops/inbox/internal/inbox"
	"github.com/colonyops/inbox/internal/printer"
)

type ReadCmd struct {
	flags *Flags
}

// NewReadCmd creates the read and read-all commands
func NewReadCmd(flags *Flags) *ReadCmd {
	return &ReadCmd{flags: flags}
}

// Register adds the read and read-all commands to the application
func (cmd *ReadCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "read",
			Usage:     "Mark notifications as read",
			UsageText: "inbox read <id> [id...]",
			Description: `Confirms each notification as read on the server. Confirmations are sent
once and never retried; a failure exits non-zero.`,
			Action: cmd.runRead,
		},
		&cli.Command{
			Name:      "read-all",
			Usage:     "Mark every notification as read",
			UsageText: "inbox read-all",
			Action:    cmd.runReadAll,
		},
	)

	return app
}

func (cmd *ReadCmd) coordinator(ctx context.Context) (*inbox.Coordinator, func(), error) {
	ident, err := cmd.flags.Identity(ctx)
	if err != nil {
		return nil, nil, err
	}

	store := inbox.NewStore()
	coord := inbox.NewCoordinator(cmd.flags.API(), store, ident.UserID, logging.Component("coordinator"))
	return coord, store.Close, nil
}

func (cmd *ReadCmd) runRead(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() == 0 {
		return errors.New("at least one notification id is required")
	}

	ids := make([]int64, 0, c.Args().Len())
	for _, arg := range c.Args().Slice() {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid notification id %q", arg)
		}
		ids = append(ids, id)
	}

	coord, done, err := cmd.coordinator(ctx)
	if err != nil {
		return err
	}
	defer done()

	p := printer.Ctx(ctx)
	failed := 0
	for _, id := range ids {
		if err := coord.MarkRead(ctx, id); err != nil {
			p.Errorf("%v", err)
			failed++
			continue
		}
		p.Successf("marked #%d read", id)
	}

	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *ReadCmd) runReadAll(ctx context.Context, _ *cli.Command) error {
	coord, done, err := cmd.coordinator(ctx)
	if err != nil {
		return err
	}
	defer done()

	if err := coord.MarkAllRead(ctx); err != nil {
		return err
	}

	printer.Ctx(ctx).Successf("marked all notifications read")
	return nil
}
