// Package config loads pipeline configuration from a YAML file, with
// connection strings supplied via environment (optionally a .env file).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"brent-regime-lab/internal/domain"
	"brent-regime-lab/internal/logging"
)

const dateLayout = "2006-01-02"

// Config is the full pipeline configuration.
type Config struct {
	Data    DataConfig       `yaml:"data"`
	Model   domain.ModelSpec `yaml:"model"`
	Logging logging.Config   `yaml:"logging"`
	Storage StorageConfig    `yaml:"storage"`
	Server  ServerConfig     `yaml:"server"`
}

// DataConfig locates the input series and the artifacts directory.
type DataConfig struct {
	InputPath    string `yaml:"input_path"`
	ArtifactsDir string `yaml:"artifacts_dir"`
	WindowStart  string `yaml:"window_start"` // YYYY-MM-DD, optional
	WindowEnd    string `yaml:"window_end"`   // YYYY-MM-DD, optional
}

// StorageConfig selects the persistence backends. Empty DSNs mean
// in-memory stores only.
type StorageConfig struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
}

// ServerConfig controls the artifact API server.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the configuration used when no YAML file is given.
func Default() Config {
	return Config{
		Data: DataConfig{
			InputPath:    "data/BrentOilPrices.csv",
			ArtifactsDir: "output",
		},
		Model: domain.DefaultModelSpec(),
		Logging: logging.Config{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Addr:        ":8080",
			MetricsAddr: ":9090",
		},
	}
}

// Load reads a YAML config file on top of the defaults. An empty path
// returns the defaults unchanged. DSNs found in the environment
// (POSTGRES_DSN, CLICKHOUSE_DSN) override the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		cfg.Storage.PostgresDSN = dsn
	}
	if dsn := os.Getenv("CLICKHOUSE_DSN"); dsn != "" {
		cfg.Storage.ClickhouseDSN = dsn
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadEnv loads a .env file into the process environment if one exists.
// Existing environment variables win.
func LoadEnv() {
	_ = godotenv.Load()
}

func (c Config) validate() error {
	if c.Data.InputPath == "" {
		return fmt.Errorf("config: data.input_path is required")
	}
	if c.Data.ArtifactsDir == "" {
		return fmt.Errorf("config: data.artifacts_dir is required")
	}
	if _, _, err := c.Window(); err != nil {
		return err
	}
	return nil
}

// Window parses the optional analysis date window. Zero times mean
// unbounded on that side.
func (c Config) Window() (start, end time.Time, err error) {
	if c.Data.WindowStart != "" {
		start, err = time.Parse(dateLayout, c.Data.WindowStart)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("config: invalid window_start %q: %w", c.Data.WindowStart, err)
		}
	}
	if c.Data.WindowEnd != "" {
		end, err = time.Parse(dateLayout, c.Data.WindowEnd)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("config: invalid window_end %q: %w", c.Data.WindowEnd, err)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("config: window_end %s before window_start %s", c.Data.WindowEnd, c.Data.WindowStart)
	}
	return start, end, nil
}
