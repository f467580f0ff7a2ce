// autoclicker is the command-line front-end: it sends click requests to
// autoclickerd and manages its service.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"autoclicker/internal/config"
	"autoclicker/internal/logging"
	"autoclicker/internal/network"
	"autoclicker/internal/osutils"
)

var version = "0.4.0"

var (
	configPath string
	verbose    bool
	useAPI     bool
)

const requestTimeout = 5 * time.Second

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "autoclicker",
		Short:         "Control the autoclicker daemon",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logging.SetLevel(logging.LevelTrace)
			} else {
				logging.SetLevel(logging.LevelWarn)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default $XDG_CONFIG_HOME/autoclicker/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")
	rootCmd.PersistentFlags().BoolVar(&useAPI, "api", false, "Talk to the daemon through its HTTP/WebSocket API")

	rootCmd.AddCommand(
		mouseCmd(),
		keyboardCmd(),
		stopCmd(),
		statusCmd(),
		checkCmd(),
		keysCmd(),
		trayCmd(),
		serviceCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Manager, error) {
	mgr, err := config.NewManager(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	if err := mgr.Load(); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return mgr, nil
}

func newSender(cfg config.Config) (network.Sender, error) {
	if useAPI {
		return network.NewWSClient(cfg.Daemon.API.Addr, cfg.Daemon.API.Token), nil
	}
	return network.NewSender(cfg.General)
}

// ready verifies the daemon can be reached and can open /dev/uinput,
// printing what to do when it cannot.
func ready(ctx context.Context, sender network.Sender) error {
	if err := sender.Ready(ctx); err != nil {
		if errors.Is(err, network.ErrNotRunning) {
			fmt.Fprintln(os.Stderr, "The daemon is not running. Start it with: autoclicker service --install --enable --start")
		}
		return err
	}

	if in, err := osutils.IsUserInGroup(osutils.InputGroup); err == nil && !in && !osutils.IsAdmin() {
		fmt.Fprintf(os.Stderr, "warning: you are not in the %q group; the daemon may be unable to create devices. Run: autoclicker service --group\n", osutils.InputGroup)
	}
	return nil
}

// withSender loads the config, connects and runs fn with a bounded context.
func withSender(fn func(ctx context.Context, mgr *config.Manager, sender network.Sender) error) error {
	mgr, err := loadConfig()
	if err != nil {
		return err
	}
	sender, err := newSender(mgr.Get())
	if err != nil {
		return err
	}
	if c, ok := sender.(interface{ Close() error }); ok {
		defer c.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := ready(ctx, sender); err != nil {
		return err
	}
	return fn(ctx, mgr, sender)
}

// daemonPath finds autoclickerd next to this binary or on $PATH.
func daemonPath() (string, error) {
	if self, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(self), "autoclickerd")
		if _, err := os.Stat(sibling); err == nil {
			return sibling, nil
		}
	}
	path, err := exec.LookPath("autoclickerd")
	if err != nil {
		return "", fmt.Errorf("autoclickerd not found next to %s or on $PATH", os.Args[0])
	}
	return filepath.Abs(path)
}
