// Package config loads modalmcp settings from a YAML or TOML file, .env
// files and MODALMCP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/petal-labs/modalmcp/command"
	"github.com/petal-labs/modalmcp/journal"
)

const (
	DefaultHost        = "127.0.0.1"
	DefaultPort        = 8000
	DefaultMaxBody     = int64(1 << 20)
	DefaultCORSOrigin  = "*"
	DefaultServiceName = "modalmcp"

	envPrefix = "MODALMCP_"
	homeDir   = ".modalmcp"
)

var projectConfigNames = []string{"modalmcp.yaml", "modalmcp.yml", "modalmcp.toml"}

var homeConfigNames = []string{"config.yaml", "config.yml", "config.toml"}

// Duration decodes from strings such as "2s" or "1h30m" in both YAML and TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	clean := strings.TrimSpace(string(text))
	if clean == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(clean)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", clean, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Modal     ModalConfig     `yaml:"modal" toml:"modal"`
	Journal   JournalConfig   `yaml:"journal" toml:"journal"`
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
	Log       LogConfig       `yaml:"log" toml:"log"`
}

type ServerConfig struct {
	Host            string   `yaml:"host" toml:"host"`
	Port            int      `yaml:"port" toml:"port"`
	CORSOrigin      string   `yaml:"cors_origin" toml:"cors_origin"`
	MaxBody         int64    `yaml:"max_body" toml:"max_body"`
	ReadTimeout     Duration `yaml:"read_timeout" toml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout" toml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

type ModalConfig struct {
	Binary string `yaml:"binary" toml:"binary"`
	// Catalog overrides the embedded tool catalog.
	Catalog      string            `yaml:"catalog" toml:"catalog"`
	LaunchWindow Duration          `yaml:"launch_window" toml:"launch_window"`
	DeployWithUV bool              `yaml:"deploy_with_uv" toml:"deploy_with_uv"`
	Env          map[string]string `yaml:"env" toml:"env"`
}

type JournalConfig struct {
	Enabled       bool     `yaml:"enabled" toml:"enabled"`
	Path          string   `yaml:"path" toml:"path"`
	Retention     Duration `yaml:"retention" toml:"retention"`
	PruneSchedule string   `yaml:"prune_schedule" toml:"prune_schedule"`
}

type TelemetryConfig struct {
	ServiceName  string `yaml:"service_name" toml:"service_name"`
	OTLPEndpoint string `yaml:"otlp_endpoint" toml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure" toml:"insecure"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			CORSOrigin:      DefaultCORSOrigin,
			MaxBody:         DefaultMaxBody,
			ReadTimeout:     Duration{30 * time.Second},
			WriteTimeout:    Duration{5 * time.Minute},
			ShutdownTimeout: Duration{30 * time.Second},
		},
		Modal: ModalConfig{
			Binary:       command.DefaultBinary,
			LaunchWindow: Duration{command.DefaultLaunchWindow},
		},
		Journal: JournalConfig{
			Retention:     Duration{journal.DefaultRetention},
			PruneSchedule: journal.DefaultPruneSchedule,
		},
		Telemetry: TelemetryConfig{
			ServiceName: DefaultServiceName,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Addr returns host:port for the HTTP listener.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxBody < 0 {
		return errors.New("config: server.max_body must not be negative")
	}
	if strings.TrimSpace(c.Modal.Binary) == "" {
		return errors.New("config: modal.binary is required")
	}
	if c.Modal.LaunchWindow.Duration < 0 {
		return errors.New("config: modal.launch_window must not be negative")
	}
	if c.Journal.Retention.Duration < 0 {
		return errors.New("config: journal.retention must not be negative")
	}
	if c.Journal.Enabled {
		if _, err := journal.ParseSchedule(c.Journal.PruneSchedule); err != nil {
			return fmt.Errorf("config: journal.prune_schedule: %w", err)
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: log.format %q must be text or json", c.Log.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q must be debug, info, warn or error", c.Log.Level)
	}
	return nil
}

// Load applies .env files from the working directory, then the discovered
// config file, then MODALMCP_* variables, and validates the result. It
// returns the file path that was used, or "" when none was found.
func Load(explicitPath string) (Config, string, error) {
	if err := LoadDotEnv("."); err != nil {
		return Config{}, "", err
	}

	path, found, err := DiscoverPath(explicitPath)
	if err != nil {
		return Config{}, "", err
	}

	cfg := Default()
	if found {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, "", err
		}
	} else {
		path = ""
	}

	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, "", err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, "", err
	}
	return cfg, path, nil
}

// LoadFile decodes one config file over the defaults without consulting the
// environment.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if err := decodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv reads .env then .env.local from dir. Variables already present
// in the process environment win.
func LoadDotEnv(dir string) error {
	for _, name := range []string{".env", ".env.local"} {
		values, err := godotenv.Read(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		for k, v := range values {
			if _, exists := os.LookupEnv(k); !exists {
				if setErr := os.Setenv(k, v); setErr != nil {
					return fmt.Errorf("config: set %s from %s: %w", k, name, setErr)
				}
			}
		}
	}
	return nil
}

// DiscoverPath resolves the config file with first-match semantics.
func DiscoverPath(explicitPath string) (string, bool, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false, fmt.Errorf("config: resolve working directory: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("config: resolve user home: %w", err)
	}
	return DiscoverPathFrom(explicitPath, cwd, home)
}

// DiscoverPathFrom is a testable variant of DiscoverPath.
func DiscoverPathFrom(explicitPath, cwd, home string) (string, bool, error) {
	if clean := strings.TrimSpace(explicitPath); clean != "" {
		candidate := filepath.Clean(clean)
		info, err := os.Stat(candidate)
		switch {
		case errors.Is(err, os.ErrNotExist):
			return "", false, fmt.Errorf("config: file %q not found", candidate)
		case err != nil:
			return "", false, fmt.Errorf("config: checking path %q: %w", candidate, err)
		case info.IsDir():
			return "", false, fmt.Errorf("config: %q is a directory", candidate)
		}
		return candidate, true, nil
	}

	candidates := make([]string, 0, len(projectConfigNames)+len(homeConfigNames))
	for _, name := range projectConfigNames {
		candidates = append(candidates, filepath.Join(cwd, name))
	}
	for _, name := range homeConfigNames {
		candidates = append(candidates, filepath.Join(home, homeDir, name))
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, true, nil
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("config: checking path %q: %w", candidate, err)
		}
	}
	return "", false, nil
}

// DefaultJournalPath returns ~/.modalmcp/journal.db.
func DefaultJournalPath() (string, error) {
	return journal.DefaultPath()
}

func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("config: decode %s: %w", path, err)
		}
		return nil
	case ".yaml", ".yml", "":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("config: decode %s: %w", path, err)
		}
		return nil
	default:
		return fmt.Errorf("config: unsupported file extension %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}
}
