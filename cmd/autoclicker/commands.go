package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"autoclicker/internal/autostart"
	"autoclicker/internal/config"
	"autoclicker/internal/keycodes"
	"autoclicker/internal/keyparser"
	"autoclicker/internal/network"
	"autoclicker/internal/osutils"
	"autoclicker/internal/protocol"
	"autoclicker/internal/tray"
)

func mouseCmd() *cobra.Command {
	var (
		p    config.MouseProfile
		save bool
	)

	cmd := &cobra.Command{
		Use:   "mouse",
		Short: "Start clicking with the mouse",
		Long: `Start a repeating mouse click. Unset flags fall back to the saved profile.

Example:
  autoclicker mouse --button left --interval 50 --amount 100 --x 640 --y 360`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSender(func(ctx context.Context, mgr *config.Manager, sender network.Sender) error {
				profile := mgr.Get().Profile.Mouse
				f := cmd.Flags()
				if f.Changed("button") {
					profile.Button = p.Button
				}
				if f.Changed("type") {
					profile.ClickType = p.ClickType
				}
				if f.Changed("amount") {
					profile.Amount = p.Amount
				}
				if f.Changed("interval") {
					profile.Interval = p.Interval
				}
				if f.Changed("x") {
					profile.X, profile.UseX = p.X, true
				}
				if f.Changed("y") {
					profile.Y, profile.UseY = p.Y, true
				}

				req, err := profile.Request()
				if err != nil {
					return err
				}
				if err := sender.Send(ctx, req); err != nil {
					return err
				}
				if save {
					return mgr.Update(func(c *config.Config) { c.Profile.Mouse = profile })
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&p.Button, "button", "b", "left", "Button: left, right, middle")
	cmd.Flags().StringVarP(&p.ClickType, "type", "t", "single", "Click type: single, double")
	cmd.Flags().Uint64VarP(&p.Amount, "amount", "n", 0, "Number of clicks (0 = until stopped)")
	cmd.Flags().Uint64VarP(&p.Interval, "interval", "i", 100, "Milliseconds between clicks")
	cmd.Flags().Int32Var(&p.X, "x", 0, "Move to this x coordinate before clicking")
	cmd.Flags().Int32Var(&p.Y, "y", 0, "Move to this y coordinate before clicking")
	cmd.Flags().BoolVar(&save, "save", false, "Store these settings as the mouse profile")
	return cmd
}

func keyboardCmd() *cobra.Command {
	var (
		p    config.KeyboardProfile
		save bool
	)

	cmd := &cobra.Command{
		Use:   "keyboard [sequence]",
		Short: "Start typing a key sequence",
		Long: `Start a repeating key sequence. Without an argument the saved sequence is used.

Sequences mix quoted text, key names and calls:
  "hello" KEY_ENTER
  press(LEFTCTRL) c release(LEFTCTRL) delay(200)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSender(func(ctx context.Context, mgr *config.Manager, sender network.Sender) error {
				profile := mgr.Get().Profile.Keyboard
				if len(args) == 1 {
					profile.Sequence = args[0]
				}
				f := cmd.Flags()
				if f.Changed("amount") {
					profile.Amount = p.Amount
				}
				if f.Changed("interval") {
					profile.Interval = p.Interval
				}
				if f.Changed("delay-before-repeat") {
					profile.DelayBeforeRepeat = p.DelayBeforeRepeat
				}
				if f.Changed("hold") {
					profile.HoldDuration = p.HoldDuration
				}
				if f.Changed("enter") {
					profile.EnterAfter = p.EnterAfter
				}

				req, err := profile.Request()
				if err != nil {
					return err
				}
				if err := sender.Send(ctx, req); err != nil {
					return err
				}
				if save {
					return mgr.Update(func(c *config.Config) { c.Profile.Keyboard = profile })
				}
				return nil
			})
		},
	}

	cmd.Flags().Uint64VarP(&p.Amount, "amount", "n", 0, "Number of cycles (0 = until stopped)")
	cmd.Flags().Uint64VarP(&p.Interval, "interval", "i", 100, "Milliseconds between actions")
	cmd.Flags().Uint64Var(&p.DelayBeforeRepeat, "delay-before-repeat", 0, "Milliseconds to wait between cycles")
	cmd.Flags().Uint64Var(&p.HoldDuration, "hold", 0, "Milliseconds each key is held down")
	cmd.Flags().BoolVar(&p.EnterAfter, "enter", false, "Press Enter after the sequence")
	cmd.Flags().BoolVar(&save, "save", false, "Store these settings as the keyboard profile")
	return cmd
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop clicking and release held keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSender(func(ctx context.Context, _ *config.Manager, sender network.Sender) error {
				return sender.Send(ctx, protocol.StopClicking{})
			})
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the daemon is reachable and what it is doing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSender(func(ctx context.Context, mgr *config.Manager, _ network.Sender) error {
				cfg := mgr.Get()
				fmt.Printf("daemon: running (%s)\n", cfg.General.CommunicationMethod)
				if !cfg.Daemon.API.Enabled {
					return nil
				}

				client := network.NewWSClient(cfg.Daemon.API.Addr, cfg.Daemon.API.Token)
				st, err := client.Status(ctx)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			})
		},
	}
}

func checkCmd() *cobra.Command {
	var highlight bool

	cmd := &cobra.Command{
		Use:   "check <sequence>",
		Short: "Compile a key sequence and print the resulting actions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			if highlight {
				if err := keyparser.Highlight(os.Stdout, src); err != nil {
					return err
				}
				fmt.Println()
			}

			actions, err := keyparser.Parse(src)
			if err != nil {
				var syntax *keyparser.SyntaxError
				if errors.As(err, &syntax) {
					fmt.Fprint(os.Stderr, syntax.Error())
					return fmt.Errorf("invalid key sequence")
				}
				return err
			}
			for _, a := range actions {
				fmt.Println(a)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&highlight, "highlight", false, "Print the sequence with syntax colouring first")
	return cmd
}

func keysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys [filter]",
		Short: "List key names usable in sequences",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			filter := ""
			if len(args) == 1 {
				filter = strings.ToUpper(args[0])
			}
			for _, name := range keycodes.All() {
				if strings.Contains(name, filter) {
					code, _ := keycodes.Lookup(name)
					fmt.Printf("%-24s %d\n", name, code)
				}
			}
		},
	}
}

func trayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tray",
		Short: "Show a system tray icon with start and stop entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := loadConfig()
			if err != nil {
				return err
			}
			sender, err := newSender(mgr.Get())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			err = ready(ctx, sender)
			cancel()
			if err != nil {
				return err
			}

			watchCtx, stopWatch := context.WithCancel(context.Background())
			defer stopWatch()
			go mgr.Watch(watchCtx)

			t := tray.New("Autoclicker")
			tray.NewController(sender, func() config.ProfileConfig { return mgr.Get().Profile }).Build(t)
			t.Run()
			return nil
		},
	}
}

func serviceCmd() *cobra.Command {
	var install, enable, disable, start, stop, group bool

	cmd := &cobra.Command{
		Use:   "service",
		Short: "Install and control the autoclickerd systemd user service",
		Example: `  autoclicker service --install --enable --start
  autoclicker service --group`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := autostart.New()
			if err != nil {
				return err
			}
			ctx := context.Background()

			if install {
				exe, err := daemonPath()
				if err != nil {
					return err
				}
				if err := svc.Install(ctx, exe); err != nil {
					return err
				}
			}
			steps := []struct {
				on bool
				fn func(context.Context) error
			}{
				{disable, svc.Disable},
				{stop, svc.Stop},
				{enable, svc.Enable},
				{start, svc.Start},
			}
			for _, s := range steps {
				if s.on {
					if err := s.fn(ctx); err != nil {
						return err
					}
				}
			}
			if group {
				if err := svc.AddToGroup(ctx, osutils.InputGroup); err != nil {
					return err
				}
				fmt.Println("Log out and back in for the group change to take effect.")
			}

			if !install && !enable && !disable && !start && !stop && !group {
				fmt.Printf("unit: %s (installed: %v)\n", svc.UnitPath(), svc.IsInstalled())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&install, "install", false, "Write the unit file if it does not exist")
	cmd.Flags().BoolVar(&enable, "enable", false, "Start the daemon on login")
	cmd.Flags().BoolVar(&disable, "disable", false, "Do not start the daemon on login")
	cmd.Flags().BoolVar(&start, "start", false, "Start the daemon now")
	cmd.Flags().BoolVar(&stop, "stop", false, "Stop the daemon")
	cmd.Flags().BoolVar(&group, "group", false, "Add the current user to the input group (asks for a password)")
	return cmd
}
