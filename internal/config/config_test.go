package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for missing file", err)
	}
	if cfg.PortalURL != "https://api.trialpoint.org" {
		t.Errorf("default PortalURL = %q", cfg.PortalURL)
	}
	if cfg.Browse.PageSize != 15 {
		t.Errorf("default PageSize = %d, want 15", cfg.Browse.PageSize)
	}
	if cfg.Download.MaxConcurrent != 5 {
		t.Errorf("default MaxConcurrent = %d, want 5", cfg.Download.MaxConcurrent)
	}
	if cfg.Proxy.Mode != "no-proxy" {
		t.Errorf("default proxy mode = %q, want no-proxy", cfg.Proxy.Mode)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apiconfig")

	cfg := NewConfig()
	cfg.PortalURL = "https://portal.example.org"
	cfg.APIToken = "tok-123"
	cfg.Browse.PageSize = 50
	cfg.Download.OutputDir = "/data/dl"
	cfg.Download.MaxConcurrent = 8
	cfg.Proxy.Mode = "basic"
	cfg.Proxy.Host = "proxy.example.org"
	cfg.Proxy.Port = 3128

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.PortalURL != cfg.PortalURL {
		t.Errorf("PortalURL = %q, want %q", got.PortalURL, cfg.PortalURL)
	}
	if got.APIToken != "tok-123" {
		t.Errorf("APIToken = %q", got.APIToken)
	}
	if got.Browse.PageSize != 50 {
		t.Errorf("PageSize = %d, want 50", got.Browse.PageSize)
	}
	if got.Download.OutputDir != "/data/dl" {
		t.Errorf("OutputDir = %q", got.Download.OutputDir)
	}
	if got.Proxy.Host != "proxy.example.org" || got.Proxy.Port != 3128 {
		t.Errorf("proxy = %q:%d", got.Proxy.Host, got.Proxy.Port)
	}

	// No leftover temp file from the atomic write.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind after Save")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(c *Config) {}, nil},
		{"missing url", func(c *Config) { c.PortalURL = " " }, ErrMissingPortalURL},
		{"missing token", func(c *Config) { c.APIToken = "" }, ErrMissingAPIToken},
		{"bad page size", func(c *Config) { c.Browse.PageSize = 0 }, ErrInvalidPageSize},
		{"bad concurrency", func(c *Config) { c.Download.MaxConcurrent = 99 }, ErrInvalidConcurrency},
		{"bad proxy mode", func(c *Config) { c.Proxy.Mode = "socks" }, ErrInvalidProxyMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.APIToken = "tok"
			tt.mutate(cfg)
			if err := cfg.Validate(); err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveTokenPrecedence(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(tokenFile, []byte("file-token\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvToken, "env-token")

	cfg := NewConfig()
	cfg.APIToken = "config-token"

	if err := ResolveToken(cfg, "flag-token", tokenFile); err != nil {
		t.Fatalf("ResolveToken() error = %v", err)
	}
	if cfg.APIToken != "flag-token" {
		t.Errorf("flag should win, got %q", cfg.APIToken)
	}

	cfg.APIToken = "config-token"
	if err := ResolveToken(cfg, "", tokenFile); err != nil {
		t.Fatalf("ResolveToken() error = %v", err)
	}
	if cfg.APIToken != "file-token" {
		t.Errorf("token file should win over env, got %q", cfg.APIToken)
	}

	cfg.APIToken = "config-token"
	if err := ResolveToken(cfg, "", ""); err != nil {
		t.Fatalf("ResolveToken() error = %v", err)
	}
	if cfg.APIToken != "env-token" {
		t.Errorf("env should win over config, got %q", cfg.APIToken)
	}

	t.Setenv(EnvToken, "")
	cfg.APIToken = "config-token"
	if err := ResolveToken(cfg, "", ""); err != nil {
		t.Fatalf("ResolveToken() error = %v", err)
	}
	if cfg.APIToken != "config-token" {
		t.Errorf("config token should remain, got %q", cfg.APIToken)
	}
}

func TestResolveTokenEmptyFile(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(tokenFile, []byte("  \n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg := NewConfig()
	if err := ResolveToken(cfg, "", tokenFile); err == nil {
		t.Error("ResolveToken() should fail for empty token file")
	}
}
