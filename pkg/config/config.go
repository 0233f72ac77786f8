package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for autoprep-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values. Secrets (API keys,
// database passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Data directory layout
	Data DataConfig `yaml:"data"`

	// LLM provider configuration for AI-assisted analysis
	AI AIConfig `yaml:"ai"`

	// Job execution settings
	Jobs JobsConfig `yaml:"jobs"`

	// Optional PostgreSQL-backed job store. When disabled, jobs are kept
	// in memory and lost on restart.
	Database DatabaseConfig `yaml:"database"`
}

// DataConfig holds the on-disk dataset layout. All paths are derived from
// Root: uploads/ for raw datasets, processed/ for pipeline output,
// artifacts/ for reports and models/ for serialized models.
type DataConfig struct {
	Root             string `yaml:"root" env:"DATA_ROOT" env-default:"data"`
	DefaultSeparator string `yaml:"default_separator" env:"DATA_DEFAULT_SEPARATOR" env-default:","`
}

// UploadsDir returns the directory holding raw uploaded datasets.
func (d *DataConfig) UploadsDir() string { return filepath.Join(d.Root, "uploads") }

// ProcessedDir returns the directory holding processed datasets.
func (d *DataConfig) ProcessedDir() string { return filepath.Join(d.Root, "processed") }

// ArtifactsDir returns the directory holding generated reports.
func (d *DataConfig) ArtifactsDir() string { return filepath.Join(d.Root, "artifacts") }

// ModelsDir returns the directory holding serialized model artifacts.
func (d *DataConfig) ModelsDir() string { return filepath.Join(d.Root, "models") }

// EnsureDirs creates the data directory tree if missing.
func (d *DataConfig) EnsureDirs() error {
	for _, dir := range []string{d.UploadsDir(), d.ProcessedDir(), d.ArtifactsDir(), d.ModelsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir %s: %w", dir, err)
		}
	}
	return nil
}

// AIConfig selects and configures the text-completion provider used by the
// suggestion engine. If no provider is configured, analysis always uses the
// deterministic heuristic fallback.
type AIConfig struct {
	// Provider is "openai" (any OpenAI-compatible endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:""`
	// Endpoint is the base URL for OpenAI-compatible providers, e.g.
	// "https://api.openai.com/v1" or a local vLLM endpoint.
	Endpoint string `yaml:"endpoint" env:"AI_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model    string `yaml:"model" env:"AI_MODEL" env-default:""`
	APIKey   string `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
	// TimeoutSeconds bounds a single provider call.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"AI_TIMEOUT_SECONDS" env-default:"60"`
	// Temperature for completion requests.
	Temperature float64 `yaml:"temperature" env:"AI_TEMPERATURE" env-default:"0.2"`
}

// Enabled returns true if a provider is configured.
func (a *AIConfig) Enabled() bool {
	return a.Provider != "" && a.Model != ""
}

// Timeout returns the per-call provider deadline.
func (a *AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// JobsConfig tunes the background job runner.
type JobsConfig struct {
	// MaxDataJobs limits concurrently running preprocessing/training jobs.
	MaxDataJobs int `yaml:"max_data_jobs" env:"JOBS_MAX_DATA" env-default:"2"`
	// MaxLLMJobs limits concurrently running analysis jobs.
	MaxLLMJobs int `yaml:"max_llm_jobs" env:"JOBS_MAX_LLM" env-default:"1"`
}

// DatabaseConfig holds PostgreSQL job store configuration.
type DatabaseConfig struct {
	Enabled        bool   `yaml:"enabled" env:"JOBSTORE_POSTGRES" env-default:"false"`
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"autoprep"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"autoprep_engine"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// URL builds a connection string for pgx.
func (d *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

// Load reads configuration from config.yaml (if present) and environment
// variables, with env taking precedence.
func Load(version string) (*Config, error) {
	var cfg Config

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("read env config: %w", err)
		}
	}

	cfg.Version = version

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.Data.Root == "" {
		return fmt.Errorf("data.root must not be empty")
	}
	if c.Jobs.MaxDataJobs < 1 {
		return fmt.Errorf("jobs.max_data_jobs must be at least 1")
	}
	if c.Jobs.MaxLLMJobs < 1 {
		return fmt.Errorf("jobs.max_llm_jobs must be at least 1")
	}
	switch c.AI.Provider {
	case "", "openai", "anthropic":
	default:
		return fmt.Errorf("ai.provider %q not supported (want openai or anthropic)", c.AI.Provider)
	}
	if c.AI.TimeoutSeconds <= 0 {
		return fmt.Errorf("ai.timeout_seconds must be positive")
	}
	return nil
}
