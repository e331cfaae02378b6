package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"origamicore/internal/blob"
	"origamicore/internal/core"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.SQLitePath != "origamicore.db" {
		t.Fatalf("unexpected storage defaults %+v", cfg.Storage)
	}
	if cfg.Blob.Driver != blob.DriverFilesystem || cfg.Blob.FSRoot != "./blobdata" {
		t.Fatalf("unexpected blob defaults %+v", cfg.Blob)
	}
	if level, _ := cfg.Log.SlogLevel(); level != slog.LevelInfo {
		t.Fatalf("expected info level, got %s", level)
	}
	if cfg.Observability.Metrics != "none" {
		t.Fatalf("unexpected metrics default %q", cfg.Observability.Metrics)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "settings.yaml")
	yaml := `log:
  level: debug
storage:
  driver: memory
blob:
  driver: s3
  s3:
    bucket: from-file
    path_style: true
observability:
  metrics: prometheus
`
	if err := os.WriteFile(file, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("ORIGAMICORE_BLOB_S3_BUCKET", "from-env")
	t.Setenv("ORIGAMICORE_SQLITE_PATH", "/var/lib/designs.db")

	cfg, err := Load(New(), file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Storage.Driver != "memory" || cfg.Observability.Metrics != "prometheus" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Blob.S3.Bucket != "from-env" || !cfg.Blob.S3.PathStyle {
		t.Fatalf("env must override the file: %+v", cfg.Blob.S3)
	}
	want := core.StorageConfig{Driver: core.StorageMemory, SQLitePath: "/var/lib/designs.db"}
	if got := cfg.StorageConfig(); got != want {
		t.Fatalf("storage config %+v, want %+v", got, want)
	}
}

func TestLoadFindsConfigInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, "origamicore.yaml"), []byte("log:\n  format: json\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Format != "json" {
		t.Fatalf("expected json format from working directory file, got %q", cfg.Log.Format)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		if _, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Fatalf("expected missing file error")
		}
	})
	cases := map[string]string{
		"ORIGAMICORE_LOG_LEVEL":             "chatty",
		"ORIGAMICORE_LOG_FORMAT":            "xml",
		"ORIGAMICORE_STORAGE_DRIVER":        "redis",
		"ORIGAMICORE_BLOB_DRIVER":           "ftp",
		"ORIGAMICORE_OBSERVABILITY_METRICS": "statsd",
	}
	for env, value := range cases {
		t.Run(env, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(env, value)
			if _, err := Load(New(), ""); err == nil {
				t.Fatalf("expected %s=%s to be rejected", env, value)
			}
		})
	}
}
