package cli

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/pthm/relnorm/pkg/analysis"
	"github.com/pthm/relnorm/pkg/ddl"
	"github.com/pthm/relnorm/pkg/parser"
)

const (
	maxWalkDepth = 25
)

// Config represents the relnorm configuration from relnorm.yaml.
type Config struct {
	Input    InputConfig    `mapstructure:"input" json:"input"`
	Analysis AnalysisConfig `mapstructure:"analysis" json:"analysis"`
	Render   RenderConfig   `mapstructure:"render" json:"render"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database" json:"database"`

	// Per-command configuration
	Migrate MigrateConfig `mapstructure:"migrate" json:"migrate"`

	LogLevel string `mapstructure:"log_level" json:"log_level"`
	Output   string `mapstructure:"output" json:"output"`
}

// InputConfig names the input files and how they are parsed.
type InputConfig struct {
	DDL       string `mapstructure:"ddl" json:"ddl"`
	FDs       string `mapstructure:"fds" json:"fds"`
	UpperCase bool   `mapstructure:"uppercase" json:"uppercase"`
	Strict    bool   `mapstructure:"strict" json:"strict"`
}

// AnalysisConfig bounds the candidate key search.
type AnalysisConfig struct {
	MaxAttributes int `mapstructure:"max_attributes" json:"max_attributes"`
	Workers       int `mapstructure:"workers" json:"workers"`
}

// RenderConfig controls the generated CREATE TABLE statements.
type RenderConfig struct {
	ColumnType       string `mapstructure:"column_type" json:"column_type"`
	TablePrefix      string `mapstructure:"table_prefix" json:"table_prefix"`
	QuoteIdentifiers bool   `mapstructure:"quote_identifiers" json:"quote_identifiers"`
	IfNotExists      bool   `mapstructure:"if_not_exists" json:"if_not_exists"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	URL      string `mapstructure:"url" json:"url"`
	Host     string `mapstructure:"host" json:"host"`
	Port     int    `mapstructure:"port" json:"port"`
	Name     string `mapstructure:"name" json:"name"`
	User     string `mapstructure:"user" json:"user"`
	Password string `mapstructure:"password" json:"password,omitempty"`
	SSLMode  string `mapstructure:"sslmode" json:"sslmode"`

	// Driver is the database/sql driver: "postgres" (lib/pq) or "pgx".
	Driver string `mapstructure:"driver" json:"driver"`
}

// MigrateConfig holds migration settings.
type MigrateConfig struct {
	DryRun bool `mapstructure:"dry_run" json:"dry_run"`
	Force  bool `mapstructure:"force" json:"force"`
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	// 1. Set defaults first (lowest precedence)
	setDefaults(v)

	// 2. Set up environment variable binding
	v.SetEnvPrefix("RELNORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 3. Find and load config file
	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	// 4. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, configPath, err
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	// Input defaults
	v.SetDefault("input.ddl", "")
	v.SetDefault("input.fds", "")
	v.SetDefault("input.uppercase", false)
	v.SetDefault("input.strict", false)

	// Analysis defaults
	v.SetDefault("analysis.max_attributes", analysis.DefaultMaxAttributes)
	v.SetDefault("analysis.workers", 0)

	// Render defaults
	v.SetDefault("render.column_type", ddl.DefaultColumnType)
	v.SetDefault("render.table_prefix", analysis.DefaultRelationPrefix)
	v.SetDefault("render.quote_identifiers", false)
	v.SetDefault("render.if_not_exists", false)

	// Database defaults
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "prefer")
	v.SetDefault("database.driver", "postgres")

	// Migrate defaults
	v.SetDefault("migrate.dry_run", false)
	v.SetDefault("migrate.force", false)

	v.SetDefault("log_level", "warn")
	v.SetDefault("output", "text")
}

// Output formats.
const (
	OutputText = "text"
	OutputYAML = "yaml"
	OutputJSON = "json"
)

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch c.Output {
	case OutputText, OutputYAML, OutputJSON:
	default:
		return fmt.Errorf("output must be text, yaml or json, got %q", c.Output)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.Database.Driver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("database.driver must be postgres or pgx, got %q", c.Database.Driver)
	}
	if c.Analysis.Workers < 0 {
		return fmt.Errorf("analysis.workers must not be negative, got %d", c.Analysis.Workers)
	}
	return nil
}

// ParseLogLevel maps debug, info, warn and error to slog levels.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log_level must be debug, info, warn or error, got %q", s)
	}
	return level, nil
}

// ParserOptions returns the parser options for the input settings.
func (c *Config) ParserOptions() []parser.Option {
	var opts []parser.Option
	if c.Input.UpperCase {
		opts = append(opts, parser.WithUpperCase())
	}
	if c.Input.Strict {
		opts = append(opts, parser.WithStrict())
	}
	return opts
}

// AnalysisOptions returns the analysis options for the analysis settings.
// A zero workers setting keeps the analysis default.
func (c *Config) AnalysisOptions(logger *slog.Logger) []analysis.Option {
	opts := []analysis.Option{
		analysis.WithMaxAttributes(c.Analysis.MaxAttributes),
		analysis.WithLogger(logger),
	}
	if c.Analysis.Workers > 0 {
		opts = append(opts, analysis.WithWorkers(c.Analysis.Workers))
	}
	return opts
}

// RenderOptions returns the DDL options for the render settings.
func (c *Config) RenderOptions() []ddl.Option {
	opts := []ddl.Option{
		ddl.WithColumnType(c.Render.ColumnType),
		ddl.WithTablePrefix(c.Render.TablePrefix),
	}
	if c.Render.QuoteIdentifiers {
		opts = append(opts, ddl.WithQuotedIdentifiers())
	}
	if c.Render.IfNotExists {
		opts = append(opts, ddl.WithIfNotExists())
	}
	return opts
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for relnorm.yaml or relnorm.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	// Auto-discovery: walk up to .git or maxWalkDepth
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		// Try relnorm.yaml then relnorm.yml
		for _, name := range []string{"relnorm.yaml", "relnorm.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		// Check for repo boundary (.git file or directory)
		gitPath := filepath.Join(dir, ".git")
		if _, err := os.Stat(gitPath); err == nil {
			break // Stop at repo root
		}

		// Move up
		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		dir = parent
	}

	return "", nil // No config found, use defaults
}

// redactedSecret replaces secrets in Redacted output.
const redactedSecret = "xxxxx"

// Redacted returns a copy of c with the database password hidden, both the
// discrete field and any password embedded in the URL.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Database.Password != "" {
		out.Database.Password = redactedSecret
	}
	if u, err := url.Parse(out.Database.URL); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), redactedSecret)
			out.Database.URL = u.String()
		}
	}
	return &out
}

// DSN returns the database connection string.
// If database.url is set, it's returned directly.
// Otherwise, builds a DSN from discrete fields.
func (c *Config) DSN() (string, error) {
	db := c.Database

	if db.URL != "" {
		return db.URL, nil
	}

	// Build DSN from discrete fields
	if db.Host == "" {
		return "", fmt.Errorf("database.host is required when database.url is not set")
	}
	if db.Name == "" {
		return "", fmt.Errorf("database.name is required when database.url is not set")
	}
	if db.User == "" {
		return "", fmt.Errorf("database.user is required when database.url is not set")
	}

	// Build postgres:// URL
	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   "/" + db.Name,
	}

	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	} else {
		u.User = url.User(db.User)
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}
