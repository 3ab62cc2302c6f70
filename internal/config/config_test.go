package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"projectarchitect/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if len(cfg.Phases) != 5 {
		t.Fatalf("expected 5 default phases, got %d", len(cfg.Phases))
	}
	if cfg.Phases[0].Name != "Project Initiation" || cfg.Phases[4].Name != "Final Delivery" {
		t.Fatalf("unexpected phase catalog: %+v", cfg.Phases)
	}
	if cfg.Defaults.Currency != "USD" || cfg.Defaults.TaskPriority != "medium" {
		t.Fatalf("unexpected defaults: %+v", cfg.Defaults)
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Phases) == 0 {
		t.Fatal("expected default phases")
	}
}

func TestLoadReadsWorkspaceFile(t *testing.T) {
	dir := t.TempDir()
	yml := `phases:
  - name: Kickoff
  - name: Handover
defaults:
  currency: THB
  task_priority: high
  actor: pm
`
	if err := os.WriteFile(filepath.Join(dir, "projectarchitect.yml"), []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Phases) != 2 || cfg.Phases[0].Name != "Kickoff" {
		t.Fatalf("workspace config not applied: %+v", cfg.Phases)
	}
	if cfg.Defaults.Currency != "THB" || cfg.Defaults.Actor != "pm" {
		t.Fatalf("defaults not applied: %+v", cfg.Defaults)
	}
}

func TestFromYAMLRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		yml  string
	}{
		{"no phases", "defaults:\n  currency: USD\n  task_priority: medium\n"},
		{"empty phase name", "phases:\n  - name: \"\"\ndefaults:\n  currency: USD\n  task_priority: medium\n"},
		{"missing currency", "phases:\n  - name: A\ndefaults:\n  task_priority: medium\n"},
		{"bad priority", "phases:\n  - name: A\ndefaults:\n  currency: USD\n  task_priority: urgent\n"},
		{"not yaml", "phases: [unterminated"},
	}
	for _, tc := range cases {
		if _, err := config.FromYAML([]byte(tc.yml)); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}
