// Package config loads parkd settings from defaults, an optional config
// file, an optional .env file and PARKING_* environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/navan260/dsa-el/internal/logging"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "PARKING"

// Config is the full parkd configuration.
type Config struct {
	GRPCAddr    string `mapstructure:"grpc_addr"`
	HTTPAddr    string `mapstructure:"http_addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`

	Layout  LayoutConfig  `mapstructure:"layout"`
	Log     LogConfig     `mapstructure:"log"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// LayoutConfig selects the initial facility. Path wins over Rows; with
// neither set the built-in layout is used.
type LayoutConfig struct {
	Path string   `mapstructure:"path"`
	Name string   `mapstructure:"name"`
	Rows []string `mapstructure:"rows"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HTTPConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Exporter    string  `mapstructure:"exporter"`
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Options tell Load where to look besides the environment.
type Options struct {
	// File is an explicit config file; any format viper understands.
	File string
	// EnvFile is a dotenv file. A missing file is ignored.
	EnvFile string
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// New returns a viper instance with defaults and environment binding set
// up, ready for further overrides (flags, tests).
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("grpc_addr", ":50051")
	v.SetDefault("http_addr", ":8000")
	v.SetDefault("metrics_addr", ":9090")
	v.SetDefault("layout.path", "")
	v.SetDefault("layout.name", "default")
	v.SetDefault("layout.rows", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("http.allow_origins", []string{"*"})
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "parkd")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load resolves the configuration and validates it.
func Load(opts Options) (Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := New()
	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", opts.File, err)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates v.
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.HTTP.AllowOrigins = splitList(cfg.HTTP.AllowOrigins)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the servers cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.GRPCAddr) == "" {
		return fmt.Errorf("%w: grpc_addr is required", ErrInvalid)
	}
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return fmt.Errorf("%w: http_addr is required", ErrInvalid)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	if c.Log.Format != "" && !slices.Contains(logging.Formats, strings.ToLower(c.Log.Format)) {
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	for _, origin := range c.HTTP.AllowOrigins {
		if origin == "*" {
			if len(c.HTTP.AllowOrigins) > 1 {
				return fmt.Errorf("%w: http.allow_origins mixes * with explicit origins", ErrInvalid)
			}
			continue
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("%w: http.allow_origins entry %q needs a scheme", ErrInvalid, origin)
		}
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("%w: tracing.sample_ratio %v outside [0,1]", ErrInvalid, c.Tracing.SampleRatio)
	}
	switch c.Tracing.Exporter {
	case "stdout", "otlp":
	default:
		if c.Tracing.Enabled {
			return fmt.Errorf("%w: tracing.exporter %q", ErrInvalid, c.Tracing.Exporter)
		}
	}
	return nil
}

// splitList accepts both list values and a single comma-separated string,
// which is what an environment variable yields.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
