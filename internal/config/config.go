// Package config provides configuration management for trialctl.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/ini.v1"
)

// Config holds the portal connection and client settings.
//
// Config file location:
//   - Windows: %USERPROFILE%\.config\trialctl\apiconfig
//   - Unix: ~/.config/trialctl/apiconfig
//
// INI format:
//
//	[trialpoint]
//	portal_url = https://api.trialpoint.org
//	api_token = <bearer-token>
//
//	[trialctl.browse]
//	page_size = 15
//
//	[trialctl.download]
//	output_dir = /data/downloads
//	max_concurrent = 5
//
//	[trialctl.proxy]
//	mode = no-proxy
//	host =
//	port = 0
//	user =
//	password =
type Config struct {
	// Portal connection settings
	PortalURL string `ini:"portal_url"`
	APIToken  string `ini:"api_token"`

	// Browse settings
	Browse BrowseConfig

	// Download settings
	Download DownloadConfig

	// Proxy settings
	Proxy ProxyConfig
}

// BrowseConfig contains table-browsing settings.
type BrowseConfig struct {
	// PageSize is the fixed rows-per-page for listings.
	// Range: 1-200, default 15.
	PageSize int `ini:"page_size"`
}

// DownloadConfig contains batch-download settings.
type DownloadConfig struct {
	// OutputDir is the default directory for downloaded objects.
	OutputDir string `ini:"output_dir"`

	// MaxConcurrent is the default worker count for batch downloads.
	// Range: 1-20, default 5.
	MaxConcurrent int `ini:"max_concurrent"`
}

// ProxyConfig contains outbound proxy settings.
// Mode is one of "no-proxy", "system", "basic", "ntlm".
type ProxyConfig struct {
	Mode     string `ini:"mode"`
	Host     string `ini:"host"`
	Port     int    `ini:"port"`
	User     string `ini:"user"`
	Password string `ini:"password"`
}

// Validation errors
var (
	ErrMissingPortalURL   = errors.New("portal_url is required")
	ErrMissingAPIToken    = errors.New("api_token is required")
	ErrInvalidPageSize    = errors.New("page_size must be between 1 and 200")
	ErrInvalidConcurrency = errors.New("max_concurrent must be between 1 and 20")
	ErrInvalidProxyMode   = errors.New("proxy mode must be one of: no-proxy, system, basic, ntlm")
)

// DefaultConfigPath returns the default path for the apiconfig file.
func DefaultConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "apiconfig"), nil
}

// SessionPath returns the path of the persisted browse-session file.
func SessionPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session"), nil
}

func configDir() (string, error) {
	if runtime.GOOS == "windows" {
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", errors.New("USERPROFILE environment variable not set")
		}
		return filepath.Join(userProfile, ".config", "trialctl"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "trialctl"), nil
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		PortalURL: "https://api.trialpoint.org",
		Browse: BrowseConfig{
			PageSize: 15,
		},
		Download: DownloadConfig{
			MaxConcurrent: 5,
		},
		Proxy: ProxyConfig{
			Mode: "no-proxy",
		},
	}
}

// Load loads configuration from an INI file.
// If the file doesn't exist, returns a config with defaults and no error.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load apiconfig: %w", err)
	}

	portal := iniFile.Section("trialpoint")
	cfg.PortalURL = portal.Key("portal_url").MustString(cfg.PortalURL)
	cfg.APIToken = portal.Key("api_token").String()

	browse := iniFile.Section("trialctl.browse")
	cfg.Browse.PageSize = browse.Key("page_size").MustInt(15)

	download := iniFile.Section("trialctl.download")
	cfg.Download.OutputDir = download.Key("output_dir").String()
	cfg.Download.MaxConcurrent = download.Key("max_concurrent").MustInt(5)

	proxy := iniFile.Section("trialctl.proxy")
	cfg.Proxy.Mode = proxy.Key("mode").MustString("no-proxy")
	cfg.Proxy.Host = proxy.Key("host").String()
	cfg.Proxy.Port = proxy.Key("port").MustInt(0)
	cfg.Proxy.User = proxy.Key("user").String()
	cfg.Proxy.Password = proxy.Key("password").String()

	return cfg, nil
}

// Save saves configuration to an INI file.
// Creates parent directories if needed. The token is stored in the file,
// so the file is written with user-only permissions.
func Save(cfg *Config, path string) error {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return fmt.Errorf("failed to determine config path: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	portal, err := iniFile.NewSection("trialpoint")
	if err != nil {
		return fmt.Errorf("failed to create trialpoint section: %w", err)
	}
	portal.Key("portal_url").SetValue(cfg.PortalURL)
	portal.Key("api_token").SetValue(cfg.APIToken)

	browse, err := iniFile.NewSection("trialctl.browse")
	if err != nil {
		return fmt.Errorf("failed to create browse section: %w", err)
	}
	browse.Key("page_size").SetValue(fmt.Sprintf("%d", cfg.Browse.PageSize))

	download, err := iniFile.NewSection("trialctl.download")
	if err != nil {
		return fmt.Errorf("failed to create download section: %w", err)
	}
	download.Key("output_dir").SetValue(cfg.Download.OutputDir)
	download.Key("max_concurrent").SetValue(fmt.Sprintf("%d", cfg.Download.MaxConcurrent))

	proxy, err := iniFile.NewSection("trialctl.proxy")
	if err != nil {
		return fmt.Errorf("failed to create proxy section: %w", err)
	}
	proxy.Key("mode").SetValue(cfg.Proxy.Mode)
	proxy.Key("host").SetValue(cfg.Proxy.Host)
	proxy.Key("port").SetValue(fmt.Sprintf("%d", cfg.Proxy.Port))
	proxy.Key("user").SetValue(cfg.Proxy.User)
	proxy.Key("password").SetValue(cfg.Proxy.Password)

	// Temp file + rename keeps a concurrent reader from seeing a torn write.
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// Validate checks the full configuration. Setting ranges are checked
// before connection settings so a partially initialized config still
// reports bad values.
func (cfg *Config) Validate() error {
	if err := cfg.ValidateSettings(); err != nil {
		return err
	}
	return cfg.ValidateForConnection()
}

// ValidateSettings checks everything except the connection settings.
func (cfg *Config) ValidateSettings() error {
	if cfg.Browse.PageSize < 1 || cfg.Browse.PageSize > 200 {
		return ErrInvalidPageSize
	}
	if cfg.Download.MaxConcurrent < 1 || cfg.Download.MaxConcurrent > 20 {
		return ErrInvalidConcurrency
	}
	switch cfg.Proxy.Mode {
	case "", "no-proxy", "system", "basic", "ntlm":
	default:
		return ErrInvalidProxyMode
	}
	return nil
}

// ValidateForConnection checks only the connection settings.
func (cfg *Config) ValidateForConnection() error {
	if strings.TrimSpace(cfg.PortalURL) == "" {
		return ErrMissingPortalURL
	}
	if strings.TrimSpace(cfg.APIToken) == "" {
		return ErrMissingAPIToken
	}
	return nil
}
