package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Inference InferenceConfig `mapstructure:"inference"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Start     StartConfig     `mapstructure:"start"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// InferenceConfig configures the external inference service and the pacing
// the engine applies to it. StageDelayMS is the fixed inter-stage throttle;
// InitialBackoffMS and MaxRetries drive the rate-limit retry executor.
type InferenceConfig struct {
	APIKey           string `mapstructure:"api_key"`
	BaseURL          string `mapstructure:"base_url"`
	Model            string `mapstructure:"model"`
	MaxRetries       int    `mapstructure:"max_retries"`
	InitialBackoffMS int    `mapstructure:"initial_backoff_ms"`
	StageDelayMS     int    `mapstructure:"stage_delay_ms"`
	RequestTimeout   int    `mapstructure:"request_timeout"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	OTLPAddr    string `mapstructure:"otlp_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// StartConfig is the initial position. The engine never reads device
// geolocation; the current location is always supplied externally.
type StartConfig struct {
	Lat     float64 `mapstructure:"lat"`
	Lng     float64 `mapstructure:"lng"`
	DestLat float64 `mapstructure:"dest_lat"`
	DestLng float64 `mapstructure:"dest_lng"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("inference.api_key", "")
	v.SetDefault("inference.base_url", "")
	v.SetDefault("inference.model", "gpt-4o-mini")
	v.SetDefault("inference.max_retries", 3)
	v.SetDefault("inference.initial_backoff_ms", 2000)
	v.SetDefault("inference.stage_delay_ms", 1500)
	v.SetDefault("inference.request_timeout", 30)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("start.lat", 40.7484)
	v.SetDefault("start.lng", -74.0010)
	v.SetDefault("start.dest_lat", 40.7580)
	v.SetDefault("start.dest_lng", -73.9855)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: SAFEWALK_INFERENCE_API_KEY → inference.api_key
	v.SetEnvPrefix("SAFEWALK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Inference.Model == "" {
		errs = append(errs, "inference.model is required")
	}
	if c.Inference.MaxRetries < 0 {
		errs = append(errs, "inference.max_retries must not be negative")
	}
	if c.Inference.InitialBackoffMS <= 0 {
		errs = append(errs, "inference.initial_backoff_ms must be positive")
	}
	if c.Inference.StageDelayMS < 0 {
		errs = append(errs, "inference.stage_delay_ms must not be negative")
	}
	if c.Inference.RequestTimeout <= 0 {
		errs = append(errs, "inference.request_timeout must be positive")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
