// Package config reads the optional siteplan.yml with export defaults.
// Flags and SITEPLAN_ environment variables override anything set here.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Workspace string        `yaml:"workspace"`
	Export    ExportDefault `yaml:"export"`
}

type ExportDefault struct {
	Format                  string `yaml:"format"`
	IncludeMilestones       bool   `yaml:"include_milestones"`
	IncludeComments         bool   `yaml:"include_comments"`
	TaskSchedulingMode      string `yaml:"task_scheduling_mode"`
	MilestoneSchedulingMode string `yaml:"milestone_scheduling_mode"`
}

func Default() Config {
	return Config{
		Workspace: ".",
		Export: ExportDefault{
			Format:            "msproject",
			IncludeMilestones: true,
			IncludeComments:   true,
		},
	}
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Export.Format {
	case "msproject", "p6":
	default:
		return fmt.Errorf("config: unknown export format %q", c.Export.Format)
	}
	for _, m := range []string{c.Export.TaskSchedulingMode, c.Export.MilestoneSchedulingMode} {
		switch m {
		case "", "auto", "manual":
		default:
			return fmt.Errorf("config: unknown scheduling mode %q", m)
		}
	}
	return nil
}
