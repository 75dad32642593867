// Package cli provides the command-line interface for IP to Country Tray.
// The default command runs the tray; the others inspect or configure it
// from the terminal.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/yllada/ipcountry-tray/common"
	"github.com/yllada/ipcountry-tray/config"
	"github.com/yllada/ipcountry-tray/keyring"
	"github.com/yllada/ipcountry-tray/lookup"
	"github.com/yllada/ipcountry-tray/monitor"
)

// BuildInfo is injected by main from ldflags.
type BuildInfo struct {
	Version   string
	BuildTime string
	Commit    string
}

func (b BuildInfo) String() string {
	if b.BuildTime == "" || b.BuildTime == "unknown" {
		return b.Version
	}
	return fmt.Sprintf("%s (built %s, commit %s)", b.Version, b.BuildTime, b.Commit)
}

// PollerFactory builds the lookup chain for cfg. The returned closer
// releases provider resources.
type PollerFactory func(cfg *config.Config, secrets common.SecretStore) (*monitor.Poller, io.Closer, error)

// CLI holds state shared by the commands.
type CLI struct {
	build      BuildInfo
	configPath string
	verbose    bool
	newPoller  PollerFactory
	openStore  func(dir string) *keyring.Store
}

// New creates a CLI that uses the real lookup providers.
func New(build BuildInfo) *CLI {
	return &CLI{
		build:     build,
		newPoller: DefaultPollerFactory,
		openStore: keyring.New,
	}
}

// Execute runs the root command.
func Execute(build BuildInfo) error {
	return New(build).RootCmd().Execute()
}

// RootCmd builds the command tree.
func (c *CLI) RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ipcountry-tray",
		Short: "Show the country of your public IP address in the system tray",
		Long: common.AppName + ` polls your public IPv4 address and shows its country
as a tray badge. A desktop notification is shown when the address
changes or the connection drops.

Without a subcommand the tray is started.`,
		Version:       c.build.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initLogging(cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTray(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Configuration file path (default ~/.config/ipcountry-tray/config.yaml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		c.newRunCmd(),
		c.newCheckCmd(),
		c.newStatusCmd(),
		c.newTokenCmd(),
		c.newConfigCmd(),
	)
	return root
}

// initLogging sets up console logging. File logging is enabled later by
// the long-running commands when configured.
func (c *CLI) initLogging(console io.Writer) error {
	level := common.LevelWarn
	if c.verbose {
		level = common.LevelDebug
	}
	return common.InitLogger(common.LogConfig{
		Level:   level,
		Console: console,
	})
}

// enableFileLogging honours log_to_file for long-running commands.
func (c *CLI) enableFileLogging(cfg *config.Config) {
	if !c.verbose {
		common.GetLogger().SetLevel(common.LevelInfo)
	}
	if !cfg.LogToFile {
		return
	}
	if err := common.GetLogger().EnableFileLogging(); err != nil {
		common.LogWarn("Could not initialize file logging: %v", err)
	}
}

func (c *CLI) loadConfig() (*config.Config, error) {
	if c.configPath != "" {
		return config.LoadFrom(c.configPath)
	}
	return config.Load()
}

// secretsDir keeps the fallback secrets file next to the config file.
func (c *CLI) secretsDir(cfg *config.Config) string {
	if cfg.Path() != "" {
		return filepath.Dir(cfg.Path())
	}
	dir, err := common.GetConfigDir()
	if err != nil {
		return "."
	}
	return dir
}

// DefaultPollerFactory wires the configured providers into a Poller.
func DefaultPollerFactory(cfg *config.Config, secrets common.SecretStore) (*monitor.Poller, io.Closer, error) {
	client := lookup.NewHTTPClient()

	ips, err := lookup.NewIPResolver(cfg, client)
	if err != nil {
		return nil, nil, err
	}
	countries, err := lookup.NewCountryResolver(cfg, client, secrets)
	if err != nil {
		return nil, nil, err
	}
	return monitor.NewPoller(ips, countries, cfg.LookupTimeout), countries, nil
}

// withSignals returns a context cancelled on SIGINT or SIGTERM.
func withSignals(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	setupSignalHandler(ctx, cancel)
	return ctx, cancel
}

// setupSignalHandler configures graceful shutdown on SIGINT/SIGTERM.
// When a signal is received, it cancels the context to allow cleanup.
func setupSignalHandler(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			common.LogInfo("Received signal %v, initiating graceful shutdown...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
}

// ignoreCancel treats a cancelled context as a clean exit.
func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
