package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadDefaultsAndOverrides(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	cfg := `{"logLevel": "debug", "drivetime": {"metersPerMinute": 650}}`
	if err := os.WriteFile(filepath.Join(dir, "marketarea.cfg.json"), []byte(cfg), 0644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	if err := Load(dir); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := GetString("logLevel"); got != "debug" {
		t.Errorf("logLevel override = %q, want debug", got)
	}
	if got := GetFloat("drivetime.metersPerMinute"); got != 650 {
		t.Errorf("drivetime.metersPerMinute override = %v, want 650", got)
	}

	// Untouched keys keep their defaults.
	if got := GetFloat("unify.holeAreaRatio"); got != 0.001 {
		t.Errorf("unify.holeAreaRatio default = %v, want 0.001", got)
	}
	if got := GetFloat("unify.holeMinPerimeter"); got != 100 {
		t.Errorf("unify.holeMinPerimeter default = %v, want 100", got)
	}
	if got := GetInt("engine.debounceMs"); got != 300 {
		t.Errorf("engine.debounceMs default = %v, want 300", got)
	}
	if GetBool("influx.enabled") {
		t.Error("influx should default to disabled")
	}
	if !GetBool("drivetime.cacheEnabled") {
		t.Error("drivetime cache should default to enabled")
	}
}

func TestLoadMissingFile(t *testing.T) {
	viper.Reset()
	if err := Load(t.TempDir()); err == nil {
		t.Error("missing config file should report an error")
	}
	// Defaults still apply after a failed read.
	if got := GetString("drivetime.travelMode"); got != "driving" {
		t.Errorf("default travelMode = %q, want driving", got)
	}
}
