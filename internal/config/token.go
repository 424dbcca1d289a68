package config

import (
	"fmt"
	"os"
	"strings"
)

// EnvToken is the environment variable consulted for the API token.
const EnvToken = "TRIALPOINT_API_TOKEN"

// ResolveToken applies the token source precedence:
// explicit flag > token file > environment > config file.
// The winning token is written back into cfg.APIToken.
func ResolveToken(cfg *Config, flagToken, tokenFile string) error {
	if flagToken != "" {
		cfg.APIToken = strings.TrimSpace(flagToken)
		return nil
	}

	if tokenFile != "" {
		data, err := os.ReadFile(tokenFile)
		if err != nil {
			return fmt.Errorf("failed to read token file: %w", err)
		}
		token := strings.TrimSpace(string(data))
		if token == "" {
			return fmt.Errorf("token file %s is empty", tokenFile)
		}
		cfg.APIToken = token
		return nil
	}

	if env := strings.TrimSpace(os.Getenv(EnvToken)); env != "" {
		cfg.APIToken = env
		return nil
	}

	// Fall through to whatever the config file provided.
	return nil
}
