package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ROOFPI_INTERVAL.
const EnvPrefix = "ROOFPI"

// Source names accepted by --source.
const (
	SourceProc     = "proc"
	SourceGopsutil = "gopsutil"
)

// Config carries runtime options for roofpi.
type Config struct {
	Bus         string
	Address     uint16
	Interval    time.Duration
	Window      time.Duration
	Source      string
	StatPath    string
	Probe       string
	MetricsAddr string
	LogLevel    slog.Level
	LogFormat   string
}

func Default() Config {
	return Config{
		Bus:       "",
		Address:   0x27,
		Interval:  3 * time.Second,
		Window:    500 * time.Millisecond,
		Source:    SourceProc,
		StatPath:  "/proc/stat",
		Probe:     "8.8.8.8:53",
		LogLevel:  slog.LevelInfo,
		LogFormat: "text",
	}
}

// BindFlags registers the flags on fs and ties them, the environment, and
// an optional config file to v.
func BindFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	cfg := Default()
	fs.String("bus", cfg.Bus, "I2C bus name (empty: first available)")
	fs.Uint16("address", cfg.Address, "I2C address of the display backpack")
	fs.Duration("interval", cfg.Interval, "refresh interval")
	fs.Duration("window", cfg.Window, "CPU sampling window")
	fs.String("source", cfg.Source, "CPU counter source: proc|gopsutil")
	fs.String("stat-path", cfg.StatPath, "path of the kernel cpu counters")
	fs.String("probe", cfg.Probe, "UDP target used to find the outbound address")
	fs.String("metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address (empty: off)")
	fs.String("log-level", cfg.LogLevel.String(), "log level: debug|info|warn|error")
	fs.String("log-format", cfg.LogFormat, "log format: text|json")
	fs.String("config", "", "optional config file (yaml, toml or json)")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v.BindPFlags(fs)
}

// Load resolves the configuration from v: flags first, then environment,
// then the config file, then defaults.
func Load(v *viper.Viper) (Config, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Default()
	cfg.Bus = v.GetString("bus")
	cfg.Address = v.GetUint16("address")
	cfg.Source = strings.ToLower(v.GetString("source"))
	cfg.StatPath = v.GetString("stat-path")
	cfg.Probe = v.GetString("probe")
	cfg.MetricsAddr = v.GetString("metrics-addr")
	cfg.LogFormat = strings.ToLower(v.GetString("log-format"))

	var err error
	if cfg.Interval, err = parseDuration(v.GetString("interval")); err != nil {
		return Config{}, fmt.Errorf("interval: %w", err)
	}
	if cfg.Window, err = parseDuration(v.GetString("window")); err != nil {
		return Config{}, fmt.Errorf("window: %w", err)
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log-level"))); err != nil {
		return Config{}, fmt.Errorf("log-level: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %s", c.Interval))
	}
	if c.Window <= 0 {
		errs = append(errs, fmt.Errorf("window must be positive, got %s", c.Window))
	}
	if c.Address == 0 || c.Address > 0x7F {
		errs = append(errs, fmt.Errorf("address 0x%X is not a 7-bit I2C address", c.Address))
	}
	switch c.Source {
	case SourceProc, SourceGopsutil:
	default:
		errs = append(errs, fmt.Errorf("unknown source %q", c.Source))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// parseDuration accepts Go durations and bare numbers of seconds.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	d, err := time.ParseDuration(s + "s")
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}
