package config

import "testing"

func TestLoadDefaultsWithNoFlags(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load(nil): %v", err)
	}
	if cfg.TTSizeMB <= 0 {
		t.Fatalf("expected a positive default TT size, got %d", cfg.TTSizeMB)
	}
	if cfg.Workers <= 0 {
		t.Fatalf("expected a positive default worker count, got %d", cfg.Workers)
	}
	if cfg.Depth <= 0 {
		t.Fatalf("expected a positive default depth, got %d", cfg.Depth)
	}
}

func TestLoadDefaultsEnableBothSearchFlags(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load(nil): %v", err)
	}
	if !cfg.QSearch || !cfg.PVSearch {
		t.Fatalf("expected both search flags enabled by default, got %+v", cfg)
	}
}
