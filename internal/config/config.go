package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models projectarchitect.yml: the phase catalog every new project
// is pre-populated from, plus defaults applied at the creation boundary.
type Config struct {
	Phases   []PhaseTemplate `yaml:"phases"`
	Defaults struct {
		Currency     string `yaml:"currency"`
		TaskPriority string `yaml:"task_priority"`
		Actor        string `yaml:"actor"`
	} `yaml:"defaults"`
}

type PhaseTemplate struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "projectarchitect.yml")
}

// Load reads config from the workspace, falling back to the bundled default
// when no file exists.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if len(c.Phases) == 0 {
		return fmt.Errorf("config.phases is required")
	}
	for i, p := range c.Phases {
		if p.Name == "" {
			return fmt.Errorf("config.phases[%d].name is empty", i)
		}
	}
	if c.Defaults.Currency == "" {
		return fmt.Errorf("config.defaults.currency is required")
	}
	switch c.Defaults.TaskPriority {
	case "low", "medium", "high":
	default:
		return fmt.Errorf("config.defaults.task_priority must be low, medium or high")
	}
	return nil
}

// Default returns the bundled default Config.
func Default() *Config {
	var cfg Config
	_ = yaml.Unmarshal([]byte(defaultTemplate), &cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `phases:
  - name: Project Initiation
    description: Initial project setup and planning
  - name: Design Phase
    description: Architectural design and documentation
  - name: Permit & Approval
    description: Regulatory approvals and permits
  - name: Construction
    description: Construction and implementation
  - name: Final Delivery
    description: Project completion and handover

defaults:
  currency: USD
  task_priority: medium
  actor: local-user
`
