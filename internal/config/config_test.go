package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"PLANBASE_API_ADDR", "PLANBASE_CHUNK_SIZE", "PLANBASE_CHUNK_OVERLAP",
		"PLANBASE_COLLECTION", "PLANBASE_RESET_ON_START", "PLANBASE_SEARCH_LIMIT",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.APIAddr != ":8081" {
		t.Fatalf("api addr %q", cfg.APIAddr)
	}
	if cfg.ChunkSize != 600 || cfg.ChunkOverlap != 50 {
		t.Fatalf("chunk defaults %d/%d", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.CollectionName != "insurance_plans" {
		t.Fatalf("collection %q", cfg.CollectionName)
	}
	if !cfg.ResetOnStart {
		t.Fatal("reset on start should default true")
	}
	if cfg.SearchLimit != 5 {
		t.Fatalf("search limit %d", cfg.SearchLimit)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PLANBASE_CHUNK_SIZE", "800")
	t.Setenv("PLANBASE_RESET_ON_START", "false")
	t.Setenv("PLANBASE_SEARCH_LIMIT", "not-a-number")

	cfg := Load()
	if cfg.ChunkSize != 800 {
		t.Fatalf("chunk size %d, want 800", cfg.ChunkSize)
	}
	if cfg.ResetOnStart {
		t.Fatal("reset on start should be disabled")
	}
	if cfg.SearchLimit != 5 {
		t.Fatalf("bad int should fall back to default, got %d", cfg.SearchLimit)
	}
}
