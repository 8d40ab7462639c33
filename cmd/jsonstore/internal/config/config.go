// Package config provides the configuration file of the jsonstore CLI.
//
// Configuration is stored under os.UserConfigDir()/jsonstore/:
//
//	~/Library/Application Support/jsonstore/   (macOS)
//	~/.config/jsonstore/                       (Linux)
//	%AppData%/jsonstore/                       (Windows)
//
// The JSONSTORE_CONFIG_DIR environment variable overrides the directory.
//
// Layout:
//
//	jsonstore/
//	├── config.yaml     # backend settings
//	├── data/           # default root of the local backend
//	└── keychain/       # default badger directory of the keychain backend
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/jsonstore/pkg/encoding"
)

const (
	// appDir is the directory name under os.UserConfigDir().
	appDir = "jsonstore"

	// configFile is the configuration file name inside the directory.
	configFile = "config.yaml"

	// EnvDir overrides the configuration directory.
	EnvDir = "JSONSTORE_CONFIG_DIR"

	// EnvDropboxToken overrides dropbox.token.
	EnvDropboxToken = "JSONSTORE_DROPBOX_TOKEN"
)

// Config is the content of config.yaml.
type Config struct {
	// DefaultBackend is the backend used when --backend is not given. Empty
	// means the storage default (keychain if available, else local).
	DefaultBackend string `yaml:"default_backend,omitempty"`

	// Debug turns on diagnostic logging of every storage call.
	Debug bool `yaml:"debug,omitempty"`

	Dropbox  DropboxConfig  `yaml:"dropbox,omitempty"`
	Local    LocalConfig    `yaml:"local,omitempty"`
	Keychain KeychainConfig `yaml:"keychain,omitempty"`
	Cloud    CloudConfig    `yaml:"cloud,omitempty"`
	Memory   MemoryConfig   `yaml:"memory,omitempty"`

	// dir is the configuration directory the file was loaded from.
	dir string
}

// DropboxConfig configures the Dropbox backend. The backend is only
// available when AppKey is set; requests use the access token.
type DropboxConfig struct {
	AppKey string `yaml:"app_key,omitempty"`
	Token  string `yaml:"token,omitempty"`

	// Root is the folder inside the app folder. Empty means the app folder.
	Root string `yaml:"root,omitempty"`

	APIURL     string `yaml:"api_url,omitempty"`
	ContentURL string `yaml:"content_url,omitempty"`
}

// AccessToken returns the token from the environment or the file.
func (d DropboxConfig) AccessToken() string {
	if t := os.Getenv(EnvDropboxToken); t != "" {
		return t
	}
	return d.Token
}

// LocalConfig configures the local filesystem backend.
type LocalConfig struct {
	// Root is the directory holding the files. Default is <dir>/data.
	Root     string `yaml:"root,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// KeychainConfig configures the badger-backed keychain backend.
type KeychainConfig struct {
	// Dir is the badger directory. Default is <dir>/keychain.
	Dir string `yaml:"dir,omitempty"`

	// InMemory keeps the keychain in memory; nothing survives the process.
	InMemory bool `yaml:"in_memory,omitempty"`

	// EncryptionKey is a hex AES key of 16, 24 or 32 bytes. Empty disables
	// encryption at rest.
	EncryptionKey string `yaml:"encryption_key,omitempty"`

	Disabled bool `yaml:"disabled,omitempty"`
}

// CloudConfig configures the S3-backed cloud backend. The backend is only
// available when Bucket is set. Credentials come from the standard AWS
// environment variables.
type CloudConfig struct {
	Bucket    string `yaml:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	PathStyle bool   `yaml:"path_style,omitempty"`
}

// MemoryConfig configures the in-memory backend.
type MemoryConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
}

// Dir returns the default configuration directory.
func Dir() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, appDir), nil
}

// Load loads the configuration from the default location.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(dir)
}

// LoadFrom loads the configuration from a specific directory. A missing
// config.yaml yields the defaults.
func LoadFrom(dir string) (*Config, error) {
	cfg := &Config{dir: dir}
	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Join(dir, configFile), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config.yaml, creating the directory if needed.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(c.Path(), data, 0600)
}

// Validate checks the values that cannot be checked when used.
func (c *Config) Validate() error {
	if _, err := c.Keychain.Key(); err != nil {
		return err
	}
	return nil
}

// Path returns the path of config.yaml.
func (c *Config) Path() string {
	return filepath.Join(c.dir, configFile)
}

// Dir returns the configuration directory.
func (c *Config) Dir() string {
	return c.dir
}

// LocalRoot returns the effective local backend root.
func (c *Config) LocalRoot() string {
	if c.Local.Root != "" {
		return c.Local.Root
	}
	return filepath.Join(c.dir, "data")
}

// KeychainDir returns the effective badger directory.
func (c *Config) KeychainDir() string {
	if c.Keychain.Dir != "" {
		return c.Keychain.Dir
	}
	return filepath.Join(c.dir, "keychain")
}

// Key decodes the encryption key. It returns nil when no key is set.
func (k KeychainConfig) Key() ([]byte, error) {
	if k.EncryptionKey == "" {
		return nil, nil
	}
	key, err := encoding.ParseHexData(k.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("keychain.encryption_key: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	default:
		return nil, fmt.Errorf("keychain.encryption_key: must be 16, 24 or 32 bytes, got %d", len(key))
	}
}

// field binds a dotted key to a config value.
type field struct {
	get    func(c *Config) string
	set    func(c *Config, v string) error
	secret bool
}

func secret(f field) field {
	f.secret = true
	return f
}

func stringField(p func(c *Config) *string) field {
	return field{
		get: func(c *Config) string { return *p(c) },
		set: func(c *Config, v string) error { *p(c) = v; return nil },
	}
}

func boolField(p func(c *Config) *bool) field {
	return field{
		get: func(c *Config) string { return strconv.FormatBool(*p(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid boolean %q", v)
			}
			*p(c) = b
			return nil
		},
	}
}

var fields = map[string]field{
	"default_backend":         stringField(func(c *Config) *string { return &c.DefaultBackend }),
	"debug":                   boolField(func(c *Config) *bool { return &c.Debug }),
	"dropbox.app_key":         stringField(func(c *Config) *string { return &c.Dropbox.AppKey }),
	"dropbox.token":           secret(stringField(func(c *Config) *string { return &c.Dropbox.Token })),
	"dropbox.root":            stringField(func(c *Config) *string { return &c.Dropbox.Root }),
	"dropbox.api_url":         stringField(func(c *Config) *string { return &c.Dropbox.APIURL }),
	"dropbox.content_url":     stringField(func(c *Config) *string { return &c.Dropbox.ContentURL }),
	"local.root":              stringField(func(c *Config) *string { return &c.Local.Root }),
	"local.disabled":          boolField(func(c *Config) *bool { return &c.Local.Disabled }),
	"keychain.dir":            stringField(func(c *Config) *string { return &c.Keychain.Dir }),
	"keychain.in_memory":      boolField(func(c *Config) *bool { return &c.Keychain.InMemory }),
	"keychain.encryption_key": secret(stringField(func(c *Config) *string { return &c.Keychain.EncryptionKey })),
	"keychain.disabled":       boolField(func(c *Config) *bool { return &c.Keychain.Disabled }),
	"cloud.bucket":            stringField(func(c *Config) *string { return &c.Cloud.Bucket }),
	"cloud.prefix":            stringField(func(c *Config) *string { return &c.Cloud.Prefix }),
	"cloud.region":            stringField(func(c *Config) *string { return &c.Cloud.Region }),
	"cloud.endpoint":          stringField(func(c *Config) *string { return &c.Cloud.Endpoint }),
	"cloud.path_style":        boolField(func(c *Config) *bool { return &c.Cloud.PathStyle }),
	"memory.enabled":          boolField(func(c *Config) *bool { return &c.Memory.Enabled }),
}

// Keys returns every settable key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// IsSecret reports whether the value of key must be masked for display.
func IsSecret(key string) bool {
	return fields[strings.ToLower(key)].secret
}

// Get returns the value of a dotted key such as "cloud.bucket".
func (c *Config) Get(key string) (string, error) {
	f, ok := fields[strings.ToLower(key)]
	if !ok {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	return f.get(c), nil
}

// Set assigns a dotted key. The change is not saved.
func (c *Config) Set(key, value string) error {
	f, ok := fields[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	old := f.get(c)
	if err := f.set(c, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := c.Validate(); err != nil {
		_ = f.set(c, old)
		return err
	}
	return nil
}
