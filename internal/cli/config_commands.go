package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trialpoint/trialctl/internal/config"
)

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage trialctl configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultConfigPath()
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active configuration (token redacted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			fmt.Printf("Config file:    %s\n", path)
			fmt.Printf("portal_url:     %s\n", cfg.PortalURL)
			fmt.Printf("api_token:      %s\n", redactToken(cfg.APIToken))
			fmt.Printf("page_size:      %d\n", cfg.Browse.PageSize)
			fmt.Printf("output_dir:     %s\n", cfg.Download.OutputDir)
			fmt.Printf("max_concurrent: %d\n", cfg.Download.MaxConcurrent)
			fmt.Printf("proxy mode:     %s\n", cfg.Proxy.Mode)
			if cfg.Proxy.Host != "" {
				fmt.Printf("proxy host:     %s:%d\n", cfg.Proxy.Host, cfg.Proxy.Port)
			}
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one configuration value",
		Long: `Set one configuration value and save the file.

Keys: portal_url, api_token, page_size, output_dir, max_concurrent,
proxy.mode, proxy.host, proxy.port, proxy.user, proxy.password`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			if err := applyConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			// Connection settings may legitimately still be empty here;
			// only the value ranges are enforced on set.
			if err := cfg.ValidateSettings(); err != nil {
				return err
			}
			if err := config.Save(cfg, path); err != nil {
				return err
			}
			fmt.Printf("Saved %s\n", path)
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var (
		url   string
		token string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with portal URL and token",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}

			cfg := config.NewConfig()
			if url != "" {
				cfg.PortalURL = url
			}
			if token == "" {
				fmt.Print("API token: ")
				token, err = readLine()
				if err != nil {
					return err
				}
			}
			cfg.APIToken = strings.TrimSpace(token)

			if err := cfg.ValidateForConnection(); err != nil {
				return err
			}
			if err := config.Save(cfg, path); err != nil {
				return err
			}
			fmt.Printf("Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "portal-url", "", "Portal API base URL")
	cmd.Flags().StringVar(&token, "api-token", "", "API bearer token")
	return cmd
}

func applyConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "portal_url":
		cfg.PortalURL = value
	case "api_token":
		cfg.APIToken = value
	case "page_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("page_size must be a number")
		}
		cfg.Browse.PageSize = n
	case "output_dir":
		cfg.Download.OutputDir = value
	case "max_concurrent":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("max_concurrent must be a number")
		}
		cfg.Download.MaxConcurrent = n
	case "proxy.mode":
		cfg.Proxy.Mode = value
	case "proxy.host":
		cfg.Proxy.Host = value
	case "proxy.port":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("proxy.port must be a number")
		}
		cfg.Proxy.Port = n
	case "proxy.user":
		cfg.Proxy.User = value
	case "proxy.password":
		cfg.Proxy.Password = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

func redactToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
