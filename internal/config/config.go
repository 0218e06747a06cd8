package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/runnerr0/chordmap/internal/eventlog"
	"github.com/runnerr0/chordmap/internal/taxonomy"
)

// Default config file path.
const DefaultConfigPath = "~/.config/chordmap/config.yaml"

// Config holds all chordmap configuration.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Render   RenderConfig   `yaml:"render"`
	Taxonomy TaxonomyConfig `yaml:"taxonomy"`
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// InputConfig names the CSV columns the loader reads.
type InputConfig struct {
	UserColumn      string `yaml:"user_column" validate:"required"`
	CategoryColumn  string `yaml:"category_column" validate:"required"`
	TimestampColumn string `yaml:"timestamp_column" validate:"required"`
	Delimiter       string `yaml:"delimiter" validate:"len=1"`
}

type RenderConfig struct {
	MinTransitions int    `yaml:"min_transitions" validate:"min=0"`
	Width          int    `yaml:"width" validate:"min=200"`
	Height         int    `yaml:"height" validate:"min=200"`
	Title          string `yaml:"title"`
	LegendTitle    string `yaml:"legend_title"`
	Background     string `yaml:"background" validate:"hexcolor"`
}

// GroupConfig is one taxonomy group as written in the config file.
type GroupConfig struct {
	Name       string   `yaml:"name" validate:"required"`
	Color      string   `yaml:"color" validate:"hexcolor"`
	Categories []string `yaml:"categories" validate:"dive,required"`
}

// TaxonomyConfig declares the category groups. A file that lists groups
// replaces the built-in ones entirely.
type TaxonomyConfig struct {
	Groups     []GroupConfig `yaml:"groups" validate:"dive"`
	OtherGroup string        `yaml:"other_group"`
	OtherColor string        `yaml:"other_color" validate:"omitempty,hexcolor"`
}

type StorageConfig struct {
	Path       string `yaml:"path" validate:"required"`
	SQLiteFile string `yaml:"sqlite_file" validate:"required"`
}

type ServerConfig struct {
	Host string `yaml:"host" validate:"required,hostname|ip"`
	Port int    `yaml:"port" validate:"min=1,max=65535"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	File   string `yaml:"file"`
	Format string `yaml:"format" validate:"oneof=console json"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read, contains invalid YAML, or
// fails validation.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// ResolvePath returns path, or the default config path when path is empty,
// with a leading ~ expanded.
func ResolvePath(path string) (string, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	return expandPath(path)
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := ResolvePath("")
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}

// DBPath returns the SQLite database path with ~ expanded.
func (s StorageConfig) DBPath() (string, error) {
	dir, err := expandPath(s.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, s.SQLiteFile), nil
}

// Columns converts the input section for the loader.
func (c InputConfig) Columns() eventlog.Columns {
	cols := eventlog.Columns{
		User:      c.UserColumn,
		Category:  c.CategoryColumn,
		Timestamp: c.TimestampColumn,
		Delimiter: ',',
	}
	for _, r := range c.Delimiter {
		cols.Delimiter = r
		break
	}
	return cols
}

// Table builds the taxonomy table. An empty group list means the built-in
// taxonomy.
func (c TaxonomyConfig) Table() (*taxonomy.Table, error) {
	specs := make([]taxonomy.Spec, 0, len(c.Groups))
	for _, g := range c.Groups {
		specs = append(specs, taxonomy.Spec{Name: g.Name, Color: g.Color, Categories: g.Categories})
	}
	if len(specs) == 0 {
		specs = taxonomy.DefaultSpecs()
	}

	t, err := taxonomy.New(specs, taxonomy.Spec{Name: c.OtherGroup, Color: c.OtherColor})
	if err != nil {
		return nil, fmt.Errorf("taxonomy: %w", err)
	}
	return t, nil
}
