package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	want := Default()
	if cfg != want {
		t.Fatalf("Load(\"\") = %+v, want %+v", cfg, want)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load(missing): %v", err)
	}
	if cfg != Default() {
		t.Fatalf("Load(missing) = %+v, want defaults", cfg)
	}
}

func TestLoadOverridesPartialFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tierwalk.toml")
	data := `[profiling]
threshold = 3

[codegen]
allow_specialization = false
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Profiling.Threshold != 3 {
		t.Fatalf("Profiling.Threshold = %d, want 3", cfg.Profiling.Threshold)
	}
	if cfg.Codegen.AllowSpecialization {
		t.Fatalf("Codegen.AllowSpecialization = true, want false")
	}
	// untouched section keeps its default
	if cfg.Trace.Level != "off" {
		t.Fatalf("Trace.Level = %q, want default %q", cfg.Trace.Level, "off")
	}
}

func TestLoadRejectsInvalidTraceLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tierwalk.toml")
	data := `[trace]
level = "verbose"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("Load: expected error for invalid trace level")
	}
}

func TestLoadRejectsZeroThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tierwalk.toml")
	data := `[profiling]
threshold = 0
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("Load: expected error for zero threshold")
	}
}
