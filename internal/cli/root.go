// Package cli provides the command-line interface for trialctl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/trialpoint/trialctl/internal/api"
	"github.com/trialpoint/trialctl/internal/config"
	"github.com/trialpoint/trialctl/internal/logging"
)

var (
	// Global flags
	cfgFile   string
	apiToken  string
	tokenFile string // path to a file containing the bearer token
	portalURL string
	verbose   bool
	debug     bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// Version information - set by main at startup via LDFLAGS.
var (
	Version   = "v1.3.0-dev"
	BuildTime = "unknown"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "trialctl",
		Short: "TrialPoint portal client - browse trials and download data files",
		Long: `trialctl ` + Version + ` - Built: ` + BuildTime + `
Command-line client for the TrialPoint clinical data portal.

Browse trial metadata, filter downloadable files by facet, generate
download manifests, and fetch data files from cloud storage.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultLogger()
			if verbose || debug {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "API bearer token (overrides all other sources)")
	rootCmd.PersistentFlags().StringVar(&tokenFile, "token-file", "", "Path to file containing the API token")
	rootCmd.PersistentFlags().StringVar(&portalURL, "api-url", "", "Portal API base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	rootCmd.Version = Version + " (" + BuildTime + ")"

	return rootCmd
}

// Execute runs the CLI with a signal-cancelled root context.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nreceived signal %v, cancelling...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands attaches all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newTrialsCmd())
	rootCmd.AddCommand(newFilesCmd())
	rootCmd.AddCommand(newFacetsCmd())
	rootCmd.AddCommand(newManifestCmd())
	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return logger
}

// GetContext returns the signal-cancelled root context.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// loadConfig loads the configuration file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if portalURL != "" {
		cfg.PortalURL = portalURL
	}
	if err := config.ResolveToken(cfg, apiToken, tokenFile); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newAPIClient builds an authenticated portal client from config and flags.
func newAPIClient() (*api.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}
