package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "NEOWATCH_CONFIG"
	demoModeEnv   = "DEMO_MODE"
	apiKeyEnv     = "NASA_API_KEY"
	apiBaseURLEnv = "NASA_API_BASE_URL"
	csvPathEnv    = "NEOWATCH_CSV"
	dbPathEnv     = "NEOWATCH_DB"
	tableEnv      = "NEOWATCH_TABLE"
	samplePathEnv = "NEOWATCH_SAMPLE"
	logLevelEnv   = "NEOWATCH_LOG_LEVEL"
)

// Config holds all pipeline settings. The demo/live mode lives here
// and is threaded into the fetch source at construction time; nothing
// in the core reads process environment at run time.
type Config struct {
	Demo     bool         `yaml:"demo"`
	API      APIConfig    `yaml:"api"`
	Output   OutputConfig `yaml:"output"`
	Sample   SampleConfig `yaml:"sample"`
	LogLevel string       `yaml:"logLevel"`
}

// APIConfig describes the live NeoWs endpoint.
type APIConfig struct {
	BaseURL        string `yaml:"baseUrl"`
	Key            string `yaml:"key"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	MaxRetries     int    `yaml:"maxRetries"`
}

// OutputConfig describes where transformed rows land.
type OutputConfig struct {
	CSVPath string `yaml:"csvPath"`
	DBPath  string `yaml:"dbPath"`
	Table   string `yaml:"table"`
}

// SampleConfig points at the demo-mode fixture.
type SampleConfig struct {
	Path string `yaml:"path"`
}

func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Load builds the configuration: defaults, then an optional YAML file
// named by NEOWATCH_CONFIG, then environment overrides. A .env file
// in the working directory is folded into the environment first.
func Load() Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v (falling back to defaults)\n", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(demoModeEnv); v != "" {
		c.Demo = parseBool(v)
	}
	if v := os.Getenv(apiKeyEnv); v != "" {
		c.API.Key = v
	}
	if v := os.Getenv(apiBaseURLEnv); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(csvPathEnv); v != "" {
		c.Output.CSVPath = v
	}
	if v := os.Getenv(dbPathEnv); v != "" {
		c.Output.DBPath = v
	}
	if v := os.Getenv(tableEnv); v != "" {
		c.Output.Table = v
	}
	if v := os.Getenv(samplePathEnv); v != "" {
		c.Sample.Path = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.LogLevel = v
	}
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

func defaultConfig() Config {
	return Config{
		Demo: false,
		API: APIConfig{
			BaseURL:        "https://api.nasa.gov/neo/rest/v1",
			Key:            "DEMO_KEY",
			TimeoutSeconds: 15,
			MaxRetries:     4,
		},
		Output: OutputConfig{
			CSVPath: "data/processed/neows_latest.csv",
			DBPath:  "data/warehouse/neows_data.db",
			Table:   "neows",
		},
		Sample: SampleConfig{
			Path: "sample_data/feed_sample.json",
		},
		LogLevel: "info",
	}
}
