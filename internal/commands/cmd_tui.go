package commands

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/inbox/internal/tui"
	"github.com/colonyops/inbox/pkg/utils"
)

// heldLogLimit caps the log output kept in memory while the TUI owns stderr.
const heldLogLimit = 1 << 20

type TuiCmd struct {
	flags *Flags

	profilerPort int
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags) *TuiCmd {
	return &TuiCmd{flags: flags}
}

// Flags returns the TUI-specific flags for registration on the root command
func (cmd *TuiCmd) Flags() []cli.Flag {
	return []cli.Flag{profilerFlag(&cmd.profilerPort)}
}

// Register adds the tui command to the application
func (cmd *TuiCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "tui",
		Usage:     "Open the interactive inbox",
		UsageText: "inbox tui",
		Flags:     cmd.Flags(),
		Action:    cmd.run,
	})

	return app
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *TuiCmd) run(ctx context.Context, _ *cli.Command) error {
	ident, err := cmd.flags.Identity(ctx)
	if err != nil {
		return err
	}

	// Logs going to stderr would draw over the screen; hold them until exit.
	if cmd.flags.LogFile == "" {
		held := utils.NewHeldWriter(heldLogLimit)
		prev := log.Logger
		log.Logger = log.Logger.Output(held)
		defer func() {
			log.Logger = prev
			_ = held.Release(os.Stderr)
		}()
	}

	stopProfiler, err := startProfiler(ctx, cmd.profilerPort)
	if err != nil {
		return err
	}
	defer stopProfiler()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bus, startBus := newBus()
	buffer := tui.NewEventBuffer()
	buffer.Attach(bus)

	mgr, session, err := cmd.flags.openSession(ctx, ident, bus)
	if err != nil {
		return err
	}
	defer mgr.Logout()

	startBus(ctx)

	m := tui.New(session, buffer, tui.Opts{
		UserID:   ident.UserID,
		Markdown: cmd.flags.Config.RenderMarkdown(),
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}

	return nil
}
