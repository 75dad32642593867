package cli

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/yllada/ipcountry-tray/common"
	"github.com/yllada/ipcountry-tray/config"
	"github.com/yllada/ipcountry-tray/monitor"
	"github.com/yllada/ipcountry-tray/ui"
	"golang.org/x/sync/errgroup"
)

func (c *CLI) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the tray indicator (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTray(cmd)
		},
	}
}

func (c *CLI) newStatusCmd() *cobra.Command {
	var notify bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Watch the public IP and country in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStatus(cmd, notify)
		},
	}
	cmd.Flags().BoolVar(&notify, "notify", false, "Also show desktop notifications")
	return cmd
}

// session is a configured monitor ready to start.
type session struct {
	cfg     *config.Config
	monitor *monitor.Monitor
	closer  io.Closer
}

func (c *CLI) newSession(display common.Display, notifier common.Notifier) (*session, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	c.enableFileLogging(cfg)

	store := c.openStore(c.secretsDir(cfg))
	poller, closer, err := c.newPoller(cfg, store)
	if err != nil {
		return nil, err
	}

	m := monitor.New(poller, cfg.PollInterval, display, notifier)
	if cfg.LogToFile {
		// Address changes are when the log grows.
		m.AddListener(func(monitor.Event) {
			common.GetLogger().CheckRotation()
		})
	}

	return &session{
		cfg:     cfg,
		monitor: m,
		closer:  closer,
	}, nil
}

func (s *session) start(ctx context.Context) (*monitor.Handle, error) {
	return s.monitor.Start(ctx, monitor.NewState(s.cfg.ShowNotifications))
}

func (s *session) close() {
	if err := s.closer.Close(); err != nil {
		common.LogWarn("Failed to release lookup providers: %v", err)
	}
}

// runTray runs the monitor with the tray as display until the tray quits
// or a signal arrives.
func (c *CLI) runTray(cmd *cobra.Command) error {
	notifier := ui.NewNotifier()
	defer notifier.Close()

	tray := ui.NewTrayIndicator(nil, notifier, c.build.Version)
	s, err := c.newSession(tray, notifier)
	if err != nil {
		return err
	}
	defer s.close()
	tray.SetToggle(s.monitor)

	ctx, cancel := withSignals(cmd.Context())
	defer cancel()

	common.LogInfo("Starting %s %s, polling every %v", common.AppName, c.build.Version, s.monitor.Interval())

	g, gctx := errgroup.WithContext(ctx)
	handle, err := s.start(gctx)
	if err != nil {
		return err
	}

	g.Go(func() error {
		<-gctx.Done()
		tray.Quit()
		return nil
	})

	tray.OnExit(cancel)
	tray.Run()

	cancel()
	handle.Stop()
	return ignoreCancel(g.Wait())
}

// runStatus runs the monitor with the terminal view as display.
func (c *CLI) runStatus(cmd *cobra.Command, notify bool) error {
	var notifier common.Notifier
	if notify {
		n := ui.NewNotifier()
		defer n.Close()
		notifier = n
	}

	// Console lines would corrupt the view.
	common.GetLogger().SetOutput(io.Discard)

	display := &ui.ProgramDisplay{}
	s, err := c.newSession(display, notifier)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := withSignals(cmd.Context())
	defer cancel()

	program := tea.NewProgram(
		ui.NewStatusModel(s.monitor),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	display.Attach(program)

	g, gctx := errgroup.WithContext(ctx)
	handle, err := s.start(gctx)
	if err != nil {
		return err
	}

	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		handle.Stop()
		return nil
	})

	return ignoreCancel(g.Wait())
}
