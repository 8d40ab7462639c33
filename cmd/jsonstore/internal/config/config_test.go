package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testKey = "000102030405060708090a0b0c0d0e0f"

func TestLoadFromMissing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", cfg.Dir(), dir)
	}
	if got, want := cfg.LocalRoot(), filepath.Join(dir, "data"); got != want {
		t.Errorf("LocalRoot() = %q, want %q", got, want)
	}
	if got, want := cfg.KeychainDir(), filepath.Join(dir, "keychain"); got != want {
		t.Errorf("KeychainDir() = %q, want %q", got, want)
	}
	if cfg.DefaultBackend != "" || cfg.Debug {
		t.Errorf("unexpected non-default config: %+v", cfg)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	data := `default_backend: cloud
debug: true
local:
  root: /srv/json
keychain:
  in_memory: true
  encryption_key: ` + testKey + `
cloud:
  bucket: b
  prefix: p/
  region: eu-west-1
  endpoint: http://localhost:9000
  path_style: true
memory:
  enabled: true
dropbox:
  app_key: k
  token: file-token
  root: apps/json
`
	if err := os.WriteFile(filepath.Join(dir, configFile), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.DefaultBackend != "cloud" || !cfg.Debug {
		t.Errorf("top level = %+v", cfg)
	}
	if cfg.LocalRoot() != "/srv/json" {
		t.Errorf("LocalRoot() = %q", cfg.LocalRoot())
	}
	if !cfg.Keychain.InMemory {
		t.Error("keychain.in_memory not loaded")
	}
	key, err := cfg.Keychain.Key()
	if err != nil || len(key) != 16 {
		t.Errorf("Key() = %x, %v", key, err)
	}
	want := CloudConfig{Bucket: "b", Prefix: "p/", Region: "eu-west-1", Endpoint: "http://localhost:9000", PathStyle: true}
	if cfg.Cloud != want {
		t.Errorf("Cloud = %+v, want %+v", cfg.Cloud, want)
	}
	if !cfg.Memory.Enabled {
		t.Error("memory.enabled not loaded")
	}
	if cfg.Dropbox.AppKey != "k" || cfg.Dropbox.Root != "apps/json" {
		t.Errorf("Dropbox = %+v", cfg.Dropbox)
	}
	if got := cfg.Dropbox.AccessToken(); got != "file-token" {
		t.Errorf("AccessToken() = %q, want file-token", got)
	}
	t.Setenv(EnvDropboxToken, "env-token")
	if got := cfg.Dropbox.AccessToken(); got != "env-token" {
		t.Errorf("AccessToken() = %q, want env-token", got)
	}
}

func TestLoadFromInvalid(t *testing.T) {
	tests := map[string]string{
		"syntax":      "local: [",
		"bad hex":     "keychain:\n  encryption_key: zz\n",
		"bad key len": "keychain:\n  encryption_key: abcd\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, configFile), []byte(data), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFrom(dir); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatal(err)
	}
	cfg.DefaultBackend = "local"
	cfg.Cloud.Bucket = "bucket"
	cfg.Keychain.EncryptionKey = testKey
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(cfg.Path())
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config mode = %o, want 600", perm)
	}

	loaded, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if loaded.DefaultBackend != "local" || loaded.Cloud.Bucket != "bucket" || loaded.Keychain.EncryptionKey != testKey {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestGetSet(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := cfg.Set("cloud.bucket", "b1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cfg.Set("Keychain.In_Memory", "true"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, _ := cfg.Get("cloud.bucket"); v != "b1" {
		t.Errorf("cloud.bucket = %q", v)
	}
	if v, _ := cfg.Get("keychain.in_memory"); v != "true" {
		t.Errorf("keychain.in_memory = %q", v)
	}

	if err := cfg.Set("debug", "sometimes"); err == nil {
		t.Error("expected error for invalid boolean")
	}
	if _, err := cfg.Get("unknown"); err == nil {
		t.Error("expected error for unknown key")
	}

	// An invalid key is rejected and the previous value kept.
	if err := cfg.Set("keychain.encryption_key", testKey); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Set("keychain.encryption_key", "abcd"); err == nil {
		t.Fatal("expected error for short key")
	}
	if cfg.Keychain.EncryptionKey != testKey {
		t.Errorf("encryption key changed to %q", cfg.Keychain.EncryptionKey)
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	if len(keys) != len(fields) {
		t.Fatalf("Keys() returned %d keys, want %d", len(keys), len(fields))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Fatalf("Keys() not sorted: %v", keys)
		}
	}
	for _, k := range keys {
		if strings.ToLower(k) != k {
			t.Errorf("key %q is not lower case", k)
		}
	}
}

func TestIsSecret(t *testing.T) {
	for key, want := range map[string]bool{
		"keychain.encryption_key": true,
		"Dropbox.Token":           true,
		"dropbox.app_key":         false,
		"cloud.bucket":            false,
		"no.such.key":             false,
	} {
		if got := IsSecret(key); got != want {
			t.Errorf("IsSecret(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestDirEnvOverride(t *testing.T) {
	t.Setenv(EnvDir, "/tmp/jsonstore-test")
	dir, err := Dir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/tmp/jsonstore-test" {
		t.Errorf("Dir() = %q", dir)
	}
}
