package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CIRCLE_CATALOG_"

// Config holds the settings of one pipeline run.
type Config struct {
	// DataDir holds the snapshot and release metadata.
	DataDir      string `yaml:"data_dir" validate:"required"`
	SnapshotFile string `yaml:"snapshot_file" validate:"required"`
	ReleaseFile  string `yaml:"release_file" validate:"required"`

	// StateFile and HTMLFile are the scratch outputs of the fetch step.
	StateFile string `yaml:"state_file" validate:"required"`
	HTMLFile  string `yaml:"html_file" validate:"required"`

	MappingFile   string `yaml:"mapping_file"`
	OverridesFile string `yaml:"overrides_file"`
	MetricsFile   string `yaml:"metrics_file"`

	Fetch   FetchConfig   `yaml:"fetch"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
}

type FetchConfig struct {
	URL           string        `yaml:"url" validate:"required,url"`
	UserAgent     string        `yaml:"user_agent" validate:"required"`
	Timeout       time.Duration `yaml:"timeout" validate:"gt=0"`
	RespectRobots bool          `yaml:"respect_robots"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

type TracingConfig struct {
	Exporter    string  `yaml:"exporter" validate:"oneof=none stdout"`
	ServiceName string  `yaml:"service_name" validate:"required"`
	SampleRate  float64 `yaml:"sample_rate" validate:"gte=0,lte=1"`
}

// Default returns the configuration used when nothing is overridden. Paths
// are relative to the working directory.
func Default() Config {
	return Config{
		DataDir:       "data",
		SnapshotFile:  "creator-data.json",
		ReleaseFile:   "version.json",
		StateFile:     "tmp/initial-state-data.json",
		HTMLFile:      "tmp/fetched-catalog.html",
		MappingFile:   "data/fandom-mapping.json",
		OverridesFile: "config/override.json",
		Fetch: FetchConfig{
			URL:           "https://catalog.comifuro.net/catalog",
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			Timeout:       30 * time.Second,
			RespectRobots: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Tracing: TracingConfig{
			Exporter:    "none",
			ServiceName: "circle-catalog",
			SampleRate:  1,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, CIRCLE_CATALOG_* environment variables and finally the apply
// functions, in that order, and validates the result.
func Load(path string, apply ...func(*Config)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	for _, fn := range apply {
		fn(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.SnapshotFile = getEnv("SNAPSHOT_FILE", cfg.SnapshotFile)
	cfg.ReleaseFile = getEnv("RELEASE_FILE", cfg.ReleaseFile)
	cfg.StateFile = getEnv("STATE_FILE", cfg.StateFile)
	cfg.HTMLFile = getEnv("HTML_FILE", cfg.HTMLFile)
	cfg.MappingFile = getEnv("MAPPING_FILE", cfg.MappingFile)
	cfg.OverridesFile = getEnv("OVERRIDES_FILE", cfg.OverridesFile)
	cfg.MetricsFile = getEnv("METRICS_FILE", cfg.MetricsFile)

	cfg.Fetch.URL = getEnv("URL", cfg.Fetch.URL)
	cfg.Fetch.UserAgent = getEnv("USER_AGENT", cfg.Fetch.UserAgent)
	cfg.Fetch.Timeout = getEnvDuration("TIMEOUT", cfg.Fetch.Timeout)
	cfg.Fetch.RespectRobots = getEnvBool("RESPECT_ROBOTS", cfg.Fetch.RespectRobots)

	cfg.Logging.Level = strings.ToLower(getEnv("LOG_LEVEL", cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(getEnv("LOG_FORMAT", cfg.Logging.Format))

	cfg.Tracing.Exporter = strings.ToLower(getEnv("TRACING_EXPORTER", cfg.Tracing.Exporter))
	cfg.Tracing.ServiceName = getEnv("SERVICE_NAME", cfg.Tracing.ServiceName)
	cfg.Tracing.SampleRate = getEnvFloat("TRACE_SAMPLE_RATE", cfg.Tracing.SampleRate)
}

var validate = validator.New()

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(EnvPrefix + key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
