// Package config provides configuration management for the autoclicker.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"autoclicker/internal/logging"
	"autoclicker/internal/osutils"
)

// CurrentVersion is the schema version written by Save
const CurrentVersion = 4

// Method selects the transport between client and daemon
type Method string

const (
	MethodDBus       Method = "dbus"
	MethodUnixSocket Method = "unix_socket"
)

// UnmarshalText accepts both the snake case names and the older
// "DBus"/"UnixSocket" spellings.
func (m *Method) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.ReplaceAll(string(text), "_", "")) {
	case "dbus":
		*m = MethodDBus
	case "unixsocket":
		*m = MethodUnixSocket
	default:
		return fmt.Errorf("unknown communication method %q", text)
	}
	return nil
}

// Config represents the application configuration
type Config struct {
	// Version is the schema version of the file
	Version int `toml:"version"`

	// General contains settings shared by client and daemon
	General GeneralConfig `toml:"general"`

	// Client contains front-end settings
	Client ClientConfig `toml:"client"`

	// Daemon contains settings read by autoclickerd
	Daemon DaemonConfig `toml:"daemon"`

	// Profile contains the last used click parameters
	Profile ProfileConfig `toml:"profile"`
}

// GeneralConfig contains settings shared by both processes
type GeneralConfig struct {
	// CommunicationMethod is "dbus" or "unix_socket"
	CommunicationMethod Method `toml:"communication_method"`

	// SocketPath is the unix socket location; "$id" expands to the user id
	SocketPath string `toml:"socket_path"`
}

// ResolvedSocketPath returns SocketPath with "$id" expanded.
func (g GeneralConfig) ResolvedSocketPath() string {
	return osutils.ExpandUID(g.SocketPath)
}

// ClientConfig contains front-end settings
type ClientConfig struct {
	DisableWindowControls bool `toml:"disable_window_controls"`

	// Notification shows a desktop notification when clicking starts or stops
	Notification bool `toml:"notification"`
}

// SubsystemConfig toggles and slows down one virtual device
type SubsystemConfig struct {
	Disabled bool `toml:"disabled"`

	// AddedDelay is added to every requested interval, in milliseconds
	AddedDelay uint64 `toml:"added_delay"`
}

// APIConfig controls the optional local HTTP/WebSocket surface
type APIConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
	Token   string `toml:"token"`
}

// DaemonConfig contains settings read by autoclickerd
type DaemonConfig struct {
	// HyprlandIPC corrects absolute moves using the compositor's cursor position
	HyprlandIPC bool `toml:"hyprland_ipc"`

	// DryRun logs device calls instead of performing them
	DryRun bool `toml:"dry_run"`

	Mouse    SubsystemConfig `toml:"mouse"`
	Keyboard SubsystemConfig `toml:"keyboard"`
	API      APIConfig       `toml:"api"`
}

// ExtraDelays converts the added delays to durations.
func (d DaemonConfig) ExtraDelays() (mouse, keyboard time.Duration) {
	return time.Duration(d.Mouse.AddedDelay) * time.Millisecond,
		time.Duration(d.Keyboard.AddedDelay) * time.Millisecond
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		General: GeneralConfig{
			CommunicationMethod: MethodDBus,
			SocketPath:          "/run/user/$id/autoclicker.socket",
		},
		Daemon: DaemonConfig{
			HyprlandIPC: true,
			API: APIConfig{
				Addr: "127.0.0.1:18080",
			},
		},
		Profile: DefaultProfile(),
	}
}

// Manager handles loading and saving configuration. It keeps the settings
// as stored in the file; environment overrides are applied by Get only, so
// Save never writes them back.
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func()
	log        *logging.Logger
}

// NewManager creates a new configuration manager. An empty path selects
// the per-user default location.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
		log:        logging.New("Config"),
	}, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/autoclicker/config.toml
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "autoclicker", "config.toml"), nil
}

// Path returns the file backing the manager.
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk. A missing file is created with
// defaults; an older schema is migrated and written back.
func (m *Manager) Load() error {
	cfg, migrated, err := m.read()
	if errors.Is(err, os.ErrNotExist) {
		m.log.Infof("no config at %s, writing defaults", m.configPath)
		cfg, migrated, err = DefaultConfig(), true, nil
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.config = cfg
	onChanged := m.onChanged
	m.mu.Unlock()

	if migrated {
		if err := m.Save(); err != nil {
			return err
		}
	}

	if onChanged != nil {
		onChanged()
	}
	return nil
}

func (m *Manager) read() (*Config, bool, error) {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return nil, false, err
	}

	cfg, from, err := decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("parse %s: %w", m.configPath, err)
	}
	if from != CurrentVersion {
		m.log.Infof("migrated config from version %d to %d", from, CurrentVersion)
	}
	return cfg, from != CurrentVersion, nil
}

// Save writes the file settings to disk. The file may hold the API token,
// so it is readable by the owner only.
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := toml.Marshal(m.config)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0o755); err != nil {
		return err
	}

	m.log.Debugf("saving configuration to %s (%d bytes)", m.configPath, len(data))
	if err := os.WriteFile(m.configPath, data, 0o600); err != nil {
		return err
	}
	// WriteFile keeps the mode of an existing file.
	return os.Chmod(m.configPath, 0o600)
}

// Get returns a copy of the current configuration with environment
// overrides applied.
func (m *Manager) Get() Config {
	m.mu.Lock()
	cfg := *m.config
	m.mu.Unlock()
	applyEnv(&cfg)
	return cfg
}

// Set replaces the file settings without saving them
func (m *Manager) Set(config Config) {
	m.mu.Lock()
	m.config = &config
	onChanged := m.onChanged
	m.mu.Unlock()
	if onChanged != nil {
		onChanged()
	}
}

// Update applies fn to the file settings under the lock and saves them.
// fn never sees environment overrides.
func (m *Manager) Update(fn func(*Config)) error {
	m.mu.Lock()
	cfg := *m.config
	fn(&cfg)
	m.config = &cfg
	m.mu.Unlock()
	return m.Save()
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}
