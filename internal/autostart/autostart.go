// Package autostart installs and controls the daemon as a systemd user
// service and enrols the user in the group that may open /dev/uinput.
package autostart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"text/template"

	"autoclicker/internal/logging"
)

// ServiceName is the systemd user unit managed by this package
const ServiceName = "autoclickerd.service"

const unitTemplate = `[Unit]
Description=Autoclicker daemon
After=graphical-session.target

[Service]
Type=simple
ExecStart={{.ExecutablePath}}{{range .Args}} {{.}}{{end}}
Restart=on-failure
RestartSec=2

[Install]
WantedBy=default.target
`

var unit = template.Must(template.New("unit").Parse(unitTemplate))

// Runner executes an external command. Tests replace it.
type Runner func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

// Service manages the systemd user unit
type Service struct {
	UnitDir string
	Run     Runner
	log     *logging.Logger
}

// New returns a Service writing to $XDG_CONFIG_HOME/systemd/user.
func New() (*Service, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return &Service{
		UnitDir: filepath.Join(dir, "systemd", "user"),
		Run:     runCommand,
		log:     logging.New("Autostart"),
	}, nil
}

// UnitPath returns where the unit file is installed
func (s *Service) UnitPath() string {
	return filepath.Join(s.UnitDir, ServiceName)
}

// WriteUnit renders the unit for the daemon executable at execPath.
func WriteUnit(w io.Writer, execPath string, args ...string) error {
	return unit.Execute(w, struct {
		ExecutablePath string
		Args           []string
	}{execPath, args})
}

// Install writes the unit file unless one already exists, so that
// packaged or hand-edited units are left alone.
func (s *Service) Install(ctx context.Context, execPath string) error {
	if s.IsInstalled() {
		s.log.Debugf("%s already installed", s.UnitPath())
		return nil
	}
	if err := os.MkdirAll(s.UnitDir, 0o755); err != nil {
		return err
	}

	f, err := os.Create(s.UnitPath())
	if err != nil {
		return err
	}
	if err := WriteUnit(f, execPath); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	s.log.Infof("installed %s", s.UnitPath())
	return s.Run(ctx, "systemctl", "--user", "daemon-reload")
}

// IsInstalled reports whether the unit file exists
func (s *Service) IsInstalled() bool {
	_, err := os.Stat(s.UnitPath())
	return err == nil
}

// Enable makes the service start on login
func (s *Service) Enable(ctx context.Context) error {
	return s.Run(ctx, "systemctl", "--user", "enable", ServiceName)
}

// Disable stops the service from starting on login
func (s *Service) Disable(ctx context.Context) error {
	return s.Run(ctx, "systemctl", "--user", "disable", ServiceName)
}

// Start starts the service now
func (s *Service) Start(ctx context.Context) error {
	return s.Run(ctx, "systemctl", "--user", "start", ServiceName)
}

// Stop stops the running service
func (s *Service) Stop(ctx context.Context) error {
	return s.Run(ctx, "systemctl", "--user", "stop", ServiceName)
}

// AddToGroup adds the current user to group through pkexec. The change
// takes effect at the next login.
func (s *Service) AddToGroup(ctx context.Context, group string) error {
	u, err := user.Current()
	if err != nil {
		return err
	}
	if u.Username == "" {
		return errors.New("could not determine user name")
	}
	s.log.Infof("adding %s to group %s", u.Username, group)
	return s.Run(ctx, "pkexec", "usermod", "-aG", group, u.Username)
}
