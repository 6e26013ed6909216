// Package config loads the toolkit configuration from environment variables
// (prefix WLA) layered over an optional YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database" envconfig:"DATABASE"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Dashboard DashboardConfig `yaml:"dashboard" envconfig:"DASHBOARD"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
}

// DatabaseConfig contains the relational store connection settings
type DatabaseConfig struct {
	Driver string `yaml:"driver" envconfig:"DRIVER" default:"sqlite3" validate:"required"`
	DSN    string `yaml:"dsn" envconfig:"DSN" default:"data/wla.db" validate:"required"`
	Table  string `yaml:"table" envconfig:"TABLE" default:"master_data" validate:"required"`
}

// ReportConfig controls the PDF report pipeline
type ReportConfig struct {
	Title          string `yaml:"title" envconfig:"TITLE" default:"WLA Historical Performance Analysis"`
	Author         string `yaml:"author" envconfig:"AUTHOR" default:"Business Intelligence Team"`
	OutputDir      string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"data/reports"`
	FilenamePrefix string `yaml:"filename_prefix" envconfig:"FILENAME_PREFIX" default:"WLA_Historical_Report"`
}

// DashboardConfig contains the dashboard HTTP server settings
type DashboardConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	// Raw category labels passed to the store filter; the loader
	// normalizes them before matching.
	PopGroups       []string `yaml:"pop_groups" envconfig:"POP_GROUPS" default:"Urban,S - Urban,Rural"`
	DefaultHorizon  int      `yaml:"default_horizon" envconfig:"DEFAULT_HORIZON" default:"12" validate:"min=3,max=36"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/wla.log"`
}

// Load loads configuration from environment variables and an optional
// config file. Environment values take precedence over file values;
// defaults fill only fields set by neither.
func Load(configFile string) (*Config, error) {
	var cfg Config

	// Load from environment variables first (this also applies defaults).
	if err := envconfig.Process("WLA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if exists
	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			fileCfg, err := loadFromFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
			mergeFileConfig(&cfg, fileCfg)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// mergeFileConfig overlays file values onto the env+default config.
// A file value wins over a default but never over an explicitly set
// environment variable; fields the file leaves unset keep their value.
func mergeFileConfig(cfg, file *Config) {
	overrideString(&cfg.Database.Driver, file.Database.Driver, "WLA_DATABASE_DRIVER")
	overrideString(&cfg.Database.DSN, file.Database.DSN, "WLA_DATABASE_DSN")
	overrideString(&cfg.Database.Table, file.Database.Table, "WLA_DATABASE_TABLE")

	overrideString(&cfg.Report.Title, file.Report.Title, "WLA_REPORT_TITLE")
	overrideString(&cfg.Report.Author, file.Report.Author, "WLA_REPORT_AUTHOR")
	overrideString(&cfg.Report.OutputDir, file.Report.OutputDir, "WLA_REPORT_OUTPUT_DIR")
	overrideString(&cfg.Report.FilenamePrefix, file.Report.FilenamePrefix, "WLA_REPORT_FILENAME_PREFIX")

	overrideInt(&cfg.Dashboard.Port, file.Dashboard.Port, "WLA_DASHBOARD_PORT")
	overrideDuration(&cfg.Dashboard.ReadTimeout, file.Dashboard.ReadTimeout, "WLA_DASHBOARD_READ_TIMEOUT")
	overrideDuration(&cfg.Dashboard.WriteTimeout, file.Dashboard.WriteTimeout, "WLA_DASHBOARD_WRITE_TIMEOUT")
	overrideDuration(&cfg.Dashboard.ShutdownTimeout, file.Dashboard.ShutdownTimeout, "WLA_DASHBOARD_SHUTDOWN_TIMEOUT")
	overrideStrings(&cfg.Dashboard.PopGroups, file.Dashboard.PopGroups, "WLA_DASHBOARD_POP_GROUPS")
	overrideInt(&cfg.Dashboard.DefaultHorizon, file.Dashboard.DefaultHorizon, "WLA_DASHBOARD_DEFAULT_HORIZON")

	overrideString(&cfg.Logging.Level, file.Logging.Level, "WLA_LOGGING_LEVEL")
	overrideString(&cfg.Logging.Output, file.Logging.Output, "WLA_LOGGING_OUTPUT")
	overrideString(&cfg.Logging.FilePath, file.Logging.FilePath, "WLA_LOGGING_FILE_PATH")
}

func overrideString(dst *string, fileVal, envKey string) {
	if fileVal == "" {
		return
	}
	if _, set := os.LookupEnv(envKey); set {
		return
	}
	*dst = fileVal
}

func overrideInt(dst *int, fileVal int, envKey string) {
	if fileVal == 0 {
		return
	}
	if _, set := os.LookupEnv(envKey); set {
		return
	}
	*dst = fileVal
}

func overrideDuration(dst *time.Duration, fileVal time.Duration, envKey string) {
	if fileVal == 0 {
		return
	}
	if _, set := os.LookupEnv(envKey); set {
		return
	}
	*dst = fileVal
}

func overrideStrings(dst *[]string, fileVal []string, envKey string) {
	if len(fileVal) == 0 {
		return
	}
	if _, set := os.LookupEnv(envKey); set {
		return
	}
	*dst = fileVal
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate runs struct-level validation over the merged configuration
func (c *Config) validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	return nil
}
