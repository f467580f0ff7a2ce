package config

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// Older layouts. None of them carried a version field, so they are
// recognized by shape.

type configV1 struct {
	DisableWindowControls bool `toml:"disable_window_controls"`
}

type configV2 struct {
	General struct {
		SocketPath string `toml:"socket_path"`
	} `toml:"general"`
	Client struct {
		DisableWindowControls bool `toml:"disable_window_controls"`
	} `toml:"client"`
	Daemon legacyDaemon `toml:"daemon"`
}

type configV3 struct {
	General struct {
		CommunicationMethod Method `toml:"communication_method"`
		SocketPath          string `toml:"socket_path"`
	} `toml:"general"`
	Client struct {
		DisableWindowControls bool `toml:"disable_window_controls"`
		Notification          bool `toml:"notification"`
	} `toml:"client"`
	Daemon legacyDaemon `toml:"daemon"`
}

type legacyDaemon struct {
	HyprlandIPC bool            `toml:"hyprland_ipc"`
	DryRun      bool            `toml:"dry_run"`
	Mouse       SubsystemConfig `toml:"mouse"`
	Keyboard    SubsystemConfig `toml:"keyboard"`
}

func (d legacyDaemon) upgrade(cfg *Config) {
	cfg.Daemon.HyprlandIPC = d.HyprlandIPC
	cfg.Daemon.DryRun = d.DryRun
	cfg.Daemon.Mouse = d.Mouse
	cfg.Daemon.Keyboard = d.Keyboard
}

// detectVersion guesses the schema version of a parsed file.
func detectVersion(raw map[string]any) int {
	if v, ok := raw["version"].(int64); ok {
		return int(v)
	}
	if _, ok := raw["disable_window_controls"]; ok {
		return 1
	}
	// Tables that only exist in the current layout.
	if _, ok := raw["profile"]; ok {
		return CurrentVersion
	}
	daemon, _ := raw["daemon"].(map[string]any)
	if _, ok := daemon["api"]; ok {
		return CurrentVersion
	}
	general, _ := raw["general"].(map[string]any)
	if _, ok := general["communication_method"]; ok {
		return 3
	}
	if _, ok := general["socket_path"]; ok {
		return 2
	}
	if len(raw) == 0 {
		return CurrentVersion
	}
	return 1
}

// decode parses data in any known schema and returns it as the current
// schema along with the version it was read as.
func decode(data []byte) (*Config, int, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, 0, err
	}

	version := detectVersion(raw)
	cfg := DefaultConfig()

	switch version {
	case CurrentVersion:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, 0, err
		}
		cfg.Version = CurrentVersion
		return cfg, version, nil

	case 3:
		var old configV3
		if err := toml.Unmarshal(data, &old); err != nil {
			return nil, 0, err
		}
		if old.General.CommunicationMethod != "" {
			cfg.General.CommunicationMethod = old.General.CommunicationMethod
		}
		if old.General.SocketPath != "" {
			cfg.General.SocketPath = old.General.SocketPath
		}
		cfg.Client.DisableWindowControls = old.Client.DisableWindowControls
		cfg.Client.Notification = old.Client.Notification
		old.Daemon.upgrade(cfg)

	case 2:
		var old configV2
		if err := toml.Unmarshal(data, &old); err != nil {
			return nil, 0, err
		}
		cfg.General.CommunicationMethod = MethodUnixSocket
		if old.General.SocketPath != "" {
			cfg.General.SocketPath = old.General.SocketPath
		}
		cfg.Client.DisableWindowControls = old.Client.DisableWindowControls
		old.Daemon.upgrade(cfg)

	case 1:
		var old configV1
		if err := toml.Unmarshal(data, &old); err != nil {
			return nil, 0, err
		}
		cfg.Client.DisableWindowControls = old.DisableWindowControls

	default:
		return nil, 0, fmt.Errorf("unsupported config version %d", version)
	}
	return cfg, version, nil
}
