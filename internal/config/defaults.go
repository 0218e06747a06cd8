package config

import (
	"github.com/runnerr0/chordmap/internal/eventlog"
	"github.com/runnerr0/chordmap/internal/taxonomy"
)

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			UserColumn:      eventlog.DefaultUserColumn,
			CategoryColumn:  eventlog.DefaultCategoryColumn,
			TimestampColumn: eventlog.DefaultTimestampColumn,
			Delimiter:       ",",
		},
		Render: RenderConfig{
			MinTransitions: 2,
			Width:          1200,
			Height:         1000,
			Title:          "Chord diagram of transitions between categories",
			LegendTitle:    "Groups",
			Background:     "#ffffff",
		},
		Taxonomy: TaxonomyConfig{
			Groups:     defaultGroups(),
			OtherGroup: taxonomy.DefaultOtherGroup,
			OtherColor: taxonomy.DefaultOtherColor,
		},
		Storage: StorageConfig{
			Path:       "~/.config/chordmap",
			SQLiteFile: "chordmap.db",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8750,
		},
		Logging: LoggingConfig{
			Level:  "info",
			File:   "",
			Format: "console",
		},
	}
}

func defaultGroups() []GroupConfig {
	specs := taxonomy.DefaultSpecs()
	groups := make([]GroupConfig, 0, len(specs))
	for _, s := range specs {
		groups = append(groups, GroupConfig{Name: s.Name, Color: s.Color, Categories: s.Categories})
	}
	return groups
}
