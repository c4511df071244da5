// Package config loads the pipeline configuration from defaults, an
// optional YAML file, and GP_-prefixed environment variables, in that
// order of precedence (later wins).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete pipeline configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_if=Output file Output both"`
}

// PathsConfig locates the input files and the output directory.
type PathsConfig struct {
	ExtractsDir string `yaml:"extracts_dir" envconfig:"EXTRACTS_DIR" validate:"required"`
	IMDFile     string `yaml:"imd_file" envconfig:"IMD_FILE" validate:"required"`
	LookupFile  string `yaml:"lookup_file" envconfig:"LOOKUP_FILE" validate:"required"`
	OutputDir   string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/gpreport.log",
		},
		Paths: PathsConfig{
			ExtractsDir: "data/extracts",
			IMDFile:     "data/imd2019.xlsx",
			LookupFile:  "data/lsoa_ccg_lookup.csv",
			OutputDir:   "output",
		},
	}
}

// Load builds the configuration: defaults, overlaid by the YAML file
// at configPath when it exists, overlaid by GP_-prefixed environment
// variables, then validated.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := loadFromFile(configPath, &cfg); err != nil {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		}
	}

	if err := envconfig.Process("GP", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg.resolvePaths()
	return &cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// resolvePaths cleans the configured paths so log lines and error
// messages show canonical forms.
func (c *Config) resolvePaths() {
	c.Paths.ExtractsDir = filepath.Clean(c.Paths.ExtractsDir)
	c.Paths.IMDFile = filepath.Clean(c.Paths.IMDFile)
	c.Paths.LookupFile = filepath.Clean(c.Paths.LookupFile)
	c.Paths.OutputDir = filepath.Clean(c.Paths.OutputDir)
}
