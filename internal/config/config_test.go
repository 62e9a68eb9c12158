package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configDirEnvKey,
		dataDirEnvKey,
		blobBackendEnvKey,
		apiURLEnvKey,
		attachmentAllowedMediaTypesEnvKey,
	} {
		t.Setenv(key, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.APIURL != "http://127.0.0.1:7345" {
		t.Fatalf("expected default API URL, got %q", cfg.APIURL)
	}
	if cfg.DataDir != "" {
		t.Fatalf("expected empty data dir, got %q", cfg.DataDir)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("expected default log level %q, got %q", DefaultLogLevel, cfg.LogLevel)
	}
	if cfg.Blobs.Backend != "badger" {
		t.Fatalf("expected badger backend, got %q", cfg.Blobs.Backend)
	}
	if cfg.Attachments.MaxBytes != DefaultAttachmentMaxBytes {
		t.Fatalf("expected attachment max default %d, got %d", DefaultAttachmentMaxBytes, cfg.Attachments.MaxBytes)
	}
	if cfg.Attachments.MultipartMaxMemory != DefaultAttachmentMultipartMemory {
		t.Fatalf("expected multipart default %d, got %d", DefaultAttachmentMultipartMemory, cfg.Attachments.MultipartMaxMemory)
	}
	if cfg.Drafts.MaxSnapshotBytes != DefaultMaxSnapshotBytes {
		t.Fatalf("expected snapshot max default %d, got %d", DefaultMaxSnapshotBytes, cfg.Drafts.MaxSnapshotBytes)
	}
	age, err := cfg.SweepMaxAgeDuration()
	if err != nil || age != 168*time.Hour {
		t.Fatalf("expected 168h sweep age, got %v (err: %v)", age, err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".wizdraft.toml")
	if err := os.WriteFile(path, []byte(`api_url = "http://localhost:9999"
log_level = "warn"

[blobs]
backend = "file"
sweep_max_age = "24h"

[attachments]
max_bytes = 1024
allowed_media_types = ["image/png"]
`), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := Default()
	if err := decodeIfPresent(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://localhost:9999" {
		t.Fatalf("expected api_url 'http://localhost:9999', got %q", cfg.APIURL)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected log_level 'warn', got %q", cfg.LogLevel)
	}
	if cfg.Blobs.Backend != "file" || cfg.Blobs.SweepMaxAge != "24h" {
		t.Fatalf("unexpected blobs section: %+v", cfg.Blobs)
	}
	if cfg.Attachments.MaxBytes != 1024 {
		t.Fatalf("expected max_bytes 1024, got %d", cfg.Attachments.MaxBytes)
	}
	if len(cfg.Attachments.AllowedMediaTypes) != 1 || cfg.Attachments.AllowedMediaTypes[0] != "image/png" {
		t.Fatalf("unexpected allowed media types: %v", cfg.Attachments.AllowedMediaTypes)
	}
}

func TestLoadFileMissing(t *testing.T) {
	cfg := Default()
	if err := decodeIfPresent("/nonexistent/path/.wizdraft.toml", &cfg); err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Fatalf("defaults should be preserved")
	}
}

func TestIsAllowedKey(t *testing.T) {
	for _, key := range []string{
		"data_dir",
		"api_url",
		"log_level",
		"blobs.backend",
		"blobs.sweep_max_age",
		"attachments.max_bytes",
		"attachments.multipart_max_memory",
		"attachments.allowed_media_types",
		"drafts.max_snapshot_bytes",
	} {
		if !IsAllowedKey(key) {
			t.Fatalf("expected %q to be allowed", key)
		}
	}
	if IsAllowedKey("invalid") {
		t.Fatal("expected 'invalid' to not be allowed")
	}
}

func TestGetKey(t *testing.T) {
	cfg := Config{
		DataDir:  "/tmp/wiz",
		APIURL:   "http://test:1234",
		LogLevel: "warn",
		Blobs:    BlobConfig{Backend: "memory", SweepMaxAge: "1h"},
		Attachments: AttachmentConfig{
			MaxBytes:           123,
			MultipartMaxMemory: 456,
			AllowedMediaTypes:  []string{"application/pdf", "image/png"},
		},
		Drafts: DraftConfig{MaxSnapshotBytes: 789},
	}

	tests := map[string]string{
		"data_dir":                         "/tmp/wiz",
		"api_url":                          "http://test:1234",
		"log_level":                        "warn",
		"blobs.backend":                    "memory",
		"blobs.sweep_max_age":              "1h",
		"attachments.max_bytes":            "123",
		"attachments.multipart_max_memory": "456",
		"attachments.allowed_media_types":  "application/pdf,image/png",
		"drafts.max_snapshot_bytes":        "789",
	}
	for key, want := range tests {
		val, err := cfg.Get(key)
		if err != nil || val != want {
			t.Fatalf("%s: expected %q, got %q (err: %v)", key, want, val, err)
		}
	}
	if _, err := cfg.Get("invalid"); err == nil {
		t.Fatal("expected error for invalid key")
	}
}

func TestSetKeyCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.toml")
	if err := SetKey(path, "data_dir", "/srv/wiz"); err != nil {
		t.Fatalf("set: %v", err)
	}

	cfg := Default()
	if err := decodeIfPresent(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/srv/wiz" {
		t.Fatalf("expected '/srv/wiz', got %q", cfg.DataDir)
	}
}

func TestSetKeyUpdatesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "existing.toml")
	if err := os.WriteFile(path, []byte("data_dir = \"/old\"\napi_url = \"http://keep\"\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := SetKey(path, "data_dir", "/new"); err != nil {
		t.Fatalf("set: %v", err)
	}

	cfg := Default()
	if err := decodeIfPresent(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/new" {
		t.Fatalf("expected '/new', got %q", cfg.DataDir)
	}
	if cfg.APIURL != "http://keep" {
		t.Fatalf("expected preserved api_url 'http://keep', got %q", cfg.APIURL)
	}
}

func TestSetKeyInvalidKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.toml")
	if err := SetKey(path, "invalid_key", "value"); err == nil {
		t.Fatal("expected error for invalid key")
	}
}

func TestSetKeyRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	for key, value := range map[string]string{
		"blobs.backend":             "s3",
		"blobs.sweep_max_age":       "soon",
		"attachments.max_bytes":     "-1",
		"drafts.max_snapshot_bytes": "zero",
	} {
		if err := SetKey(path, key, value); err == nil {
			t.Fatalf("%s=%s: expected error", key, value)
		}
	}
}

func TestSetNestedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested.toml")
	if err := SetKey(path, "attachments.max_bytes", "321"); err != nil {
		t.Fatalf("set max_bytes: %v", err)
	}
	if err := SetKey(path, "blobs.backend", "FILE"); err != nil {
		t.Fatalf("set backend: %v", err)
	}
	if err := SetKey(path, "attachments.allowed_media_types", "image/png, application/pdf"); err != nil {
		t.Fatalf("set media types: %v", err)
	}

	cfg := Default()
	if err := decodeIfPresent(path, &cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Attachments.MaxBytes != 321 {
		t.Fatalf("expected max_bytes 321, got %d", cfg.Attachments.MaxBytes)
	}
	if cfg.Blobs.Backend != "file" {
		t.Fatalf("expected backend 'file', got %q", cfg.Blobs.Backend)
	}
	if len(cfg.Attachments.AllowedMediaTypes) != 2 {
		t.Fatalf("expected two media types, got %v", cfg.Attachments.AllowedMediaTypes)
	}
}

func TestConfigDirOverridePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(configDirEnvKey, dir)

	globalPath, err := GlobalPath()
	if err != nil {
		t.Fatalf("global path: %v", err)
	}
	if globalPath != filepath.Join(dir, ".wizdraft.toml") {
		t.Fatalf("unexpected global path: %s", globalPath)
	}
}

func TestLoadConfigDirOverride(t *testing.T) {
	clearEnv(t)
	configDir := t.TempDir()
	cfgPath := filepath.Join(configDir, ".wizdraft.toml")
	if err := os.WriteFile(cfgPath, []byte("data_dir = \"/var/wiz\"\napi_url = \"http://127.0.0.1:9001\"\n"), 0644); err != nil {
		t.Fatalf("write override config: %v", err)
	}

	t.Setenv(configDirEnvKey, configDir)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/var/wiz" {
		t.Fatalf("expected config-dir data dir, got %q", cfg.DataDir)
	}
	if cfg.APIURL != "http://127.0.0.1:9001" {
		t.Fatalf("expected config-dir api_url override, got %q", cfg.APIURL)
	}
	if cfg.SnapshotDBPath() != filepath.Join("/var/wiz", "draft.db") {
		t.Fatalf("unexpected snapshot db path %q", cfg.SnapshotDBPath())
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv(configDirEnvKey, t.TempDir())
	t.Setenv(blobBackendEnvKey, "s3")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(configDirEnvKey, t.TempDir())
	t.Setenv(apiURLEnvKey, "http://example.com:8080")
	t.Setenv(dataDirEnvKey, "/tmp/override")
	t.Setenv(blobBackendEnvKey, "Memory")
	t.Setenv(attachmentAllowedMediaTypesEnvKey, "image/PNG, image/png; charset=x, ,application/pdf")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://example.com:8080" {
		t.Fatalf("expected env override for API URL, got %q", cfg.APIURL)
	}
	if cfg.DataDir != "/tmp/override" {
		t.Fatalf("expected env override for data dir, got %q", cfg.DataDir)
	}
	if cfg.Blobs.Backend != "memory" {
		t.Fatalf("expected normalized backend, got %q", cfg.Blobs.Backend)
	}
	want := []string{"image/png", "application/pdf"}
	if len(cfg.Attachments.AllowedMediaTypes) != len(want) {
		t.Fatalf("expected %v, got %v", want, cfg.Attachments.AllowedMediaTypes)
	}
	for i := range want {
		if cfg.Attachments.AllowedMediaTypes[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, cfg.Attachments.AllowedMediaTypes)
		}
	}
}
