package config

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL      = "http://127.0.0.1:7345"
	DefaultLogLevel    = "info"
	DefaultDataDirName = ".wizdraft"
	DefaultBlobBackend = "badger"
	DefaultSweepMaxAge = "168h"

	DefaultAttachmentMaxBytes        int64 = 5 * 1024 * 1024
	DefaultAttachmentMultipartMemory int64 = 8 * 1024 * 1024
	DefaultMaxSnapshotBytes                = 256 * 1024

	configFileName = ".wizdraft.toml"
	snapshotDBName = "draft.db"

	configDirEnvKey                   = "WIZDRAFT_CONFIG_DIR"
	dataDirEnvKey                     = "WIZDRAFT_DATA_DIR"
	blobBackendEnvKey                 = "WIZDRAFT_BLOB_BACKEND"
	apiURLEnvKey                      = "WIZDRAFT_API_URL"
	attachmentAllowedMediaTypesEnvKey = "WIZDRAFT_ATTACH_ALLOWED_MEDIA_TYPES"
)

var validBackends = []string{"badger", "file", "memory"}

func isValidBackend(b string) bool { return slices.Contains(validBackends, b) }

// BlobConfig selects and tunes the blob store.
type BlobConfig struct {
	Backend     string `toml:"backend"`
	SweepMaxAge string `toml:"sweep_max_age"`
}

// AttachmentConfig defines runtime configuration for attachment handling.
type AttachmentConfig struct {
	MaxBytes           int64    `toml:"max_bytes"`
	MultipartMaxMemory int64    `toml:"multipart_max_memory"`
	AllowedMediaTypes  []string `toml:"allowed_media_types"`
}

// DraftConfig bounds the draft snapshot.
type DraftConfig struct {
	MaxSnapshotBytes int `toml:"max_snapshot_bytes"`
}

// Config defines runtime configuration for wizdraft.
type Config struct {
	DataDir     string           `toml:"data_dir"`
	APIURL      string           `toml:"api_url"`
	LogLevel    string           `toml:"log_level"`
	Blobs       BlobConfig       `toml:"blobs"`
	Attachments AttachmentConfig `toml:"attachments"`
	Drafts      DraftConfig      `toml:"drafts"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		LogLevel: DefaultLogLevel,
		Blobs: BlobConfig{
			Backend:     DefaultBlobBackend,
			SweepMaxAge: DefaultSweepMaxAge,
		},
		Attachments: AttachmentConfig{
			MaxBytes:           DefaultAttachmentMaxBytes,
			MultipartMaxMemory: DefaultAttachmentMultipartMemory,
		},
		Drafts: DraftConfig{
			MaxSnapshotBytes: DefaultMaxSnapshotBytes,
		},
	}
}

// SnapshotDBPath returns the SQLite file holding the draft snapshot.
func (c *Config) SnapshotDBPath() string {
	return filepath.Join(c.DataDir, snapshotDBName)
}

// SweepMaxAgeDuration parses blobs.sweep_max_age.
func (c *Config) SweepMaxAgeDuration() (time.Duration, error) {
	return parseAge(c.Blobs.SweepMaxAge)
}

func parseAge(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", raw)
	}
	return d, nil
}

// decodeIfPresent merges the TOML file at path into cfg. A missing file or a
// directory in its place is not an error.
func decodeIfPresent(path string, cfg *Config) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return err
	case info.IsDir():
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

var allowedKeys = []string{
	"data_dir",
	"api_url",
	"log_level",
	"blobs.backend",
	"blobs.sweep_max_age",
	"attachments.max_bytes",
	"attachments.multipart_max_memory",
	"attachments.allowed_media_types",
	"drafts.max_snapshot_bytes",
}

// AllowedKeys lists the keys accepted by Get and SetKey.
func AllowedKeys() []string {
	return slices.Clone(allowedKeys)
}

func IsAllowedKey(key string) bool {
	return slices.Contains(allowedKeys, key)
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "data_dir":
		return c.DataDir, nil
	case "api_url":
		return c.APIURL, nil
	case "log_level":
		return c.LogLevel, nil
	case "blobs.backend":
		return c.Blobs.Backend, nil
	case "blobs.sweep_max_age":
		return c.Blobs.SweepMaxAge, nil
	case "attachments.max_bytes":
		return strconv.FormatInt(c.Attachments.MaxBytes, 10), nil
	case "attachments.multipart_max_memory":
		return strconv.FormatInt(c.Attachments.MultipartMaxMemory, 10), nil
	case "attachments.allowed_media_types":
		return strings.Join(c.Attachments.AllowedMediaTypes, ","), nil
	case "drafts.max_snapshot_bytes":
		return strconv.Itoa(c.Drafts.MaxSnapshotBytes), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the config file location, honoring WIZDRAFT_CONFIG_DIR.
func GlobalPath() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(configDirEnvKey)); dir != "" {
		return filepath.Join(dir, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// SetKey validates value for key and stores it in the TOML file at path,
// preserving the other keys. The file is replaced atomically.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}
	parsed, err := parseSetValue(key, value)
	if err != nil {
		return err
	}

	doc := map[string]any{}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := setDotted(doc, key, parsed); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".wizdraft-*.toml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := toml.NewEncoder(tmp).Encode(doc); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads the config file and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if path, err := GlobalPath(); err == nil {
		if err := decodeIfPresent(path, &cfg); err != nil {
			return nil, err
		}
	}

	if dataDir := strings.TrimSpace(os.Getenv(dataDirEnvKey)); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if cfg.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.DataDir = filepath.Join(home, DefaultDataDirName)
		}
	}
	if apiURL := os.Getenv(apiURLEnvKey); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if backend := strings.TrimSpace(os.Getenv(blobBackendEnvKey)); backend != "" {
		cfg.Blobs.Backend = backend
	}
	if raw := strings.TrimSpace(os.Getenv(attachmentAllowedMediaTypesEnvKey)); raw != "" {
		cfg.Attachments.AllowedMediaTypes = splitCSV(raw)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "attachments.max_bytes", "attachments.multipart_max_memory":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "drafts.max_snapshot_bytes":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "blobs.backend":
		backend := strings.ToLower(value)
		if !isValidBackend(backend) {
			return nil, fmt.Errorf("%s must be one of %s", key, strings.Join(validBackends, ", "))
		}
		return backend, nil
	case "blobs.sweep_max_age":
		if _, err := parseAge(value); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return value, nil
	case "attachments.allowed_media_types":
		return splitCSV(value), nil
	default:
		return value, nil
	}
}

// setDotted assigns value at a dotted key such as "blobs.backend", creating
// intermediate tables as needed.
func setDotted(doc map[string]any, key string, value any) error {
	parts := strings.Split(key, ".")
	table := doc
	for _, part := range parts[:len(parts)-1] {
		switch child := table[part].(type) {
		case nil:
			next := map[string]any{}
			table[part] = next
			table = next
		case map[string]any:
			table = child
		default:
			return fmt.Errorf("cannot set %q: %q is not a table", key, part)
		}
	}
	table[parts[len(parts)-1]] = value
	return nil
}

// splitCSV splits a comma separated list, dropping blank entries.
func splitCSV(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) normalize() error {
	c.Blobs.Backend = strings.ToLower(strings.TrimSpace(c.Blobs.Backend))
	if c.Blobs.Backend == "" {
		c.Blobs.Backend = DefaultBlobBackend
	}
	if !isValidBackend(c.Blobs.Backend) {
		return fmt.Errorf("invalid blobs.backend %q (valid: %s)", c.Blobs.Backend, strings.Join(validBackends, ", "))
	}
	if strings.TrimSpace(c.Blobs.SweepMaxAge) == "" {
		c.Blobs.SweepMaxAge = DefaultSweepMaxAge
	}
	if _, err := c.SweepMaxAgeDuration(); err != nil {
		return fmt.Errorf("blobs.sweep_max_age: %w", err)
	}
	if c.Attachments.MaxBytes <= 0 {
		c.Attachments.MaxBytes = DefaultAttachmentMaxBytes
	}
	if c.Attachments.MultipartMaxMemory <= 0 {
		c.Attachments.MultipartMaxMemory = DefaultAttachmentMultipartMemory
	}
	if c.Drafts.MaxSnapshotBytes <= 0 {
		c.Drafts.MaxSnapshotBytes = DefaultMaxSnapshotBytes
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.Attachments.AllowedMediaTypes = normalizeConfiguredMediaTypes(c.Attachments.AllowedMediaTypes)
	return nil
}

// normalizeConfiguredMediaTypes lowercases and dedupes the configured types,
// dropping unparsable ones. It returns nil when nothing usable remains so the
// built-in allow-list applies.
func normalizeConfiguredMediaTypes(raw []string) []string {
	var out []string
	for _, value := range raw {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(value))
		if err != nil || mediaType == "" || slices.Contains(out, mediaType) {
			continue
		}
		out = append(out, mediaType)
	}
	return out
}
