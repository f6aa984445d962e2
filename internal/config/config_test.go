package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// Feature: allot, Property 8: config merge precedence
func TestConfigMergePrecedence(t *testing.T) {
	nonEmptyString := rapid.StringMatching(`[a-zA-Z0-9/_.-]{1,20}`)

	configGen := rapid.Custom(func(t *rapid.T) *Config {
		cfg := &Config{}
		if rapid.Bool().Draw(t, "hasDefaultFormat") {
			cfg.DefaultFormat = nonEmptyString.Draw(t, "defaultFormat")
		}
		if rapid.Bool().Draw(t, "hasOutputDir") {
			cfg.OutputDir = nonEmptyString.Draw(t, "outputDir")
		}
		if rapid.Bool().Draw(t, "hasCategoriesPath") {
			cfg.CategoriesPath = nonEmptyString.Draw(t, "categoriesPath")
		}
		if rapid.Bool().Draw(t, "hasTotal") {
			cfg.DefaultTotalMinutes = rapid.IntRange(1, 600).Draw(t, "total")
		}
		return cfg
	})

	rapid.Check(t, func(t *rapid.T) {
		global := configGen.Draw(t, "global")
		project := configGen.Draw(t, "project")

		merged := Merge(global, project)
		defaults := Defaults()

		checkStringField(t, "DefaultFormat",
			global.DefaultFormat, project.DefaultFormat, defaults.DefaultFormat,
			merged.DefaultFormat)
		checkStringField(t, "OutputDir",
			global.OutputDir, project.OutputDir, defaults.OutputDir,
			merged.OutputDir)
		checkStringField(t, "CategoriesPath",
			global.CategoriesPath, project.CategoriesPath, defaults.CategoriesPath,
			merged.CategoriesPath)

		want := defaults.DefaultTotalMinutes
		switch {
		case project.DefaultTotalMinutes > 0:
			want = project.DefaultTotalMinutes
		case global.DefaultTotalMinutes > 0:
			want = global.DefaultTotalMinutes
		}
		if merged.DefaultTotalMinutes != want {
			t.Fatalf("DefaultTotalMinutes: expected %d, got %d", want, merged.DefaultTotalMinutes)
		}
	})
}

// checkStringField asserts the merge precedence rule for a single string field:
//   - project non-empty  → merged == project
//   - project empty, global non-empty → merged == global
//   - both empty → merged == defaultVal
func checkStringField(t *rapid.T, name, globalVal, projectVal, defaultVal, mergedVal string) {
	t.Helper()
	switch {
	case projectVal != "":
		if mergedVal != projectVal {
			t.Fatalf("%s: both set, expected project value %q, got %q", name, projectVal, mergedVal)
		}
	case globalVal != "":
		if mergedVal != globalVal {
			t.Fatalf("%s: only global set, expected global value %q, got %q", name, globalVal, mergedVal)
		}
	default:
		if mergedVal != defaultVal {
			t.Fatalf("%s: neither set, expected default %q, got %q", name, defaultVal, mergedVal)
		}
	}
}

func TestDefaultsValues(t *testing.T) {
	d := Defaults()
	if d.DefaultFormat != "markdown" {
		t.Errorf("DefaultFormat: want %q, got %q", "markdown", d.DefaultFormat)
	}
	if d.OutputDir != "." {
		t.Errorf("OutputDir: want %q, got %q", ".", d.OutputDir)
	}
	if d.DefaultTotalMinutes != 90 {
		t.Errorf("DefaultTotalMinutes: want 90, got %d", d.DefaultTotalMinutes)
	}
	if d.TickInterval.Duration != time.Second {
		t.Errorf("TickInterval: want 1s, got %v", d.TickInterval)
	}
}

func TestLoadGlobalMissingFileReturnsDefaults(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config, got nil")
	}
	if *cfg != Defaults() {
		t.Errorf("want defaults, got %+v", cfg)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoadProjectMissingFileReturnsNil(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadProject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %+v", cfg)
	}
}

func TestLoadProjectReadsDurations(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	body := `{"default_total_minutes": 45, "tick_interval": "250ms"}`
	if err := os.WriteFile(filepath.Join(dir, ".allotconfig"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadProject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultTotalMinutes != 45 {
		t.Errorf("DefaultTotalMinutes: want 45, got %d", cfg.DefaultTotalMinutes)
	}
	if cfg.TickInterval.Duration != 250*time.Millisecond {
		t.Errorf("TickInterval: want 250ms, got %v", cfg.TickInterval)
	}
}

func TestLoadGlobalParseError(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfgDir := filepath.Join(tmp, ".config", "allot")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte("{invalid json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadGlobal()
	if err == nil {
		t.Fatal("expected an error for invalid JSON, got nil")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "config.json") {
		t.Errorf("error should mention the file, got %q", err.Error())
	}
}

func TestApplyEnvOverridesFiles(t *testing.T) {
	t.Setenv("ALLOT_TOTAL_MINUTES", "120")
	t.Setenv("ALLOT_FORMAT", "json")
	t.Setenv("ALLOT_TICK", "2s")

	cfg, err := ApplyEnv(Merge(&Config{DefaultFormat: "markdown", OutputDir: "out"}, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultTotalMinutes != 120 {
		t.Errorf("DefaultTotalMinutes: want 120, got %d", cfg.DefaultTotalMinutes)
	}
	if cfg.DefaultFormat != "json" {
		t.Errorf("DefaultFormat: want json, got %q", cfg.DefaultFormat)
	}
	if cfg.OutputDir != "out" {
		t.Errorf("OutputDir: unset env var must not override, got %q", cfg.OutputDir)
	}
	if cfg.TickInterval.Duration != 2*time.Second {
		t.Errorf("TickInterval: want 2s, got %v", cfg.TickInterval)
	}
}

func TestApplyEnvRejectsBadValue(t *testing.T) {
	t.Setenv("ALLOT_TOTAL_MINUTES", "lots")

	if _, err := ApplyEnv(Defaults()); err == nil {
		t.Fatal("expected an error for a non-numeric ALLOT_TOTAL_MINUTES")
	}
}
