// autoclickerd owns the virtual keyboard and mouse and executes click
// specifications sent by the autoclicker front-ends.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"autoclicker/internal/api"
	"autoclicker/internal/config"
	"autoclicker/internal/daemon"
	"autoclicker/internal/engine"
	"autoclicker/internal/logging"
	"autoclicker/internal/network"
)

var version = "0.4.0"

var (
	verbose    bool
	dryRun     bool
	configPath string
)

var log = logging.New("Daemon")

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "autoclickerd",
		Short:   "Autoclicker daemon",
		Long:    "autoclickerd creates virtual input devices and runs click requests received over D-Bus or a Unix socket.",
		Version: version,
		Args:    cobra.NoArgs,
		RunE:    run,
	}

	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every step at trace level")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log device actions instead of performing them")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default $XDG_CONFIG_HOME/autoclicker/config.toml)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func policyFrom(d config.DaemonConfig) engine.Policy {
	mouse, keyboard := d.ExtraDelays()
	return engine.Policy{MouseExtraDelay: mouse, KeyboardExtraDelay: keyboard}
}

func run(cmd *cobra.Command, args []string) error {
	if verbose {
		logging.SetLevel(logging.LevelTrace)
	}

	cfgMgr, err := config.NewManager(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}
	if err := cfgMgr.Load(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := cfgMgr.Get()
	log.Infof("using config %s", cfgMgr.Path())

	devices, err := openDevices(cfg.Daemon, dryRun || cfg.Daemon.DryRun)
	if err != nil {
		return err
	}
	defer devices.Close()

	eng := engine.New(devices.keyboard, devices.mouse, engine.WithPolicy(policyFrom(cfg.Daemon)))
	handler := daemon.NewHandler(eng, func() config.DaemonConfig { return cfgMgr.Get().Daemon })

	cfgMgr.RegisterChangeCallback(func() {
		d := cfgMgr.Get().Daemon
		eng.SetPolicy(policyFrom(d))
		log.Debugf("applied reloaded settings")
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	g := newGroup(ctx)
	g.Go("engine", eng.Run)
	g.Go("config watcher", cfgMgr.Watch)

	switch cfg.General.CommunicationMethod {
	case config.MethodUnixSocket:
		path := cfg.General.ResolvedSocketPath()
		if path == "" {
			g.cancel()
			return network.ErrNoSocketPath
		}
		g.Go("socket", network.NewSocketServer(path, handler).Serve)
	default:
		g.Go("dbus", network.NewDBusServer(handler).Serve)
	}

	if cfg.Daemon.API.Enabled {
		srv := api.NewServer(handler, eng, cfgMgr.Get)
		addr := cfg.Daemon.API.Addr
		g.Go("api", func(ctx context.Context) error { return srv.Start(ctx, addr) })
	}

	err = g.Wait()
	log.Infof("gracefully shutting down")
	return err
}

// group runs tasks until the first one fails or ctx is cancelled, then
// cancels the rest and waits for them.
type group struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
	err    error
}

func newGroup(parent context.Context) *group {
	ctx, cancel := context.WithCancel(parent)
	return &group{ctx: ctx, cancel: cancel}
}

func (g *group) Go(name string, fn func(context.Context) error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		err := fn(g.ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("%s: %v", name, err)
			g.once.Do(func() { g.err = fmt.Errorf("%s: %w", name, err) })
		}
		g.cancel()
	}()
}

func (g *group) Wait() error {
	g.wg.Wait()
	g.cancel()
	return g.err
}
