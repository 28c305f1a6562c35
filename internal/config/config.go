package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr   string   `mapstructure:"listen_addr"`
	DataDir      string   `mapstructure:"data_dir"`
	DatabasePath string   `mapstructure:"database_path"`
	DefaultUser  string   `mapstructure:"default_user"`
	DefaultPass  string   `mapstructure:"default_pass"`
	LogLevel     string   `mapstructure:"log_level"`
	LogFormat    string   `mapstructure:"log_format"`
	CORSOrigins  []string `mapstructure:"cors_origins"`
	Game         string   `mapstructure:"game"`

	RCON      RCONConfig      `mapstructure:"rcon"`
	Transport TransportConfig `mapstructure:"transport"`
}

type RCONConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	RosterInterval time.Duration `mapstructure:"roster_interval"`
}

type TransportConfig struct {
	Kind           string        `mapstructure:"kind"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	Relay          RelayConfig   `mapstructure:"relay"`
	Docker         DockerConfig  `mapstructure:"docker"`
}

type RelayConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

type DockerConfig struct {
	Container string        `mapstructure:"container"`
	Coalesce  time.Duration `mapstructure:"coalesce"`
}

const (
	TransportRelay  = "wsrelay"
	TransportDocker = "docker"
)

// Load reads the optional YAML file at path, then REEDCON_* environment
// overrides (REEDCON_TRANSPORT_RELAY_URL for transport.relay.url).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("REEDCON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("database_path", "")
	v.SetDefault("default_user", "admin")
	v.SetDefault("default_pass", "admin")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("cors_origins", []string{"http://localhost:5173", "http://localhost:8080"})
	v.SetDefault("game", "armareforger")
	v.SetDefault("rcon.timeout", "15s")
	v.SetDefault("rcon.roster_interval", "2m")
	v.SetDefault("transport.kind", TransportRelay)
	v.SetDefault("transport.reconnect_delay", "500ms")
	v.SetDefault("transport.relay.url", "ws://127.0.0.1:8090/rcon")
	v.SetDefault("transport.relay.token", "")
	v.SetDefault("transport.docker.container", "")
	v.SetDefault("transport.docker.coalesce", "75ms")

	if path == "" {
		path = os.Getenv("REEDCON_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	dataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	cfg.DataDir = dataDir
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(dataDir, "reedcon.db")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	switch c.Transport.Kind {
	case TransportRelay:
		if c.Transport.Relay.URL == "" {
			errs = append(errs, errors.New("transport.relay.url is required"))
		}
	case TransportDocker:
		if c.Transport.Docker.Container == "" {
			errs = append(errs, errors.New("transport.docker.container is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("transport.kind must be %s or %s, got %q", TransportRelay, TransportDocker, c.Transport.Kind))
	}
	if c.RCON.Timeout <= 0 {
		errs = append(errs, errors.New("rcon.timeout must be positive"))
	}
	if c.RCON.RosterInterval <= 0 {
		errs = append(errs, errors.New("rcon.roster_interval must be positive"))
	}
	return errors.Join(errs...)
}
