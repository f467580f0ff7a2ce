package config

import (
	"os"
	"strconv"
)

// Environment variables that override the file. They are read after
// godotenv has loaded any .env file into the process environment.
const (
	EnvMethod     = "AUTOCLICKER_METHOD"
	EnvSocketPath = "AUTOCLICKER_SOCKET_PATH"
	EnvDryRun     = "AUTOCLICKER_DRY_RUN"
	EnvAPIAddr    = "AUTOCLICKER_API_ADDR"
)

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvMethod); v != "" {
		var method Method
		if err := method.UnmarshalText([]byte(v)); err == nil {
			cfg.General.CommunicationMethod = method
		}
	}
	if v := os.Getenv(EnvSocketPath); v != "" {
		cfg.General.SocketPath = v
	}
	if v := os.Getenv(EnvDryRun); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Daemon.DryRun = b
		}
	}
	if v := os.Getenv(EnvAPIAddr); v != "" {
		cfg.Daemon.API.Addr = v
		cfg.Daemon.API.Enabled = true
	}
}
