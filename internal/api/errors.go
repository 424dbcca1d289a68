// Package api provides error types for portal API responses.
package api

import (
	"errors"
	"strings"
)

// ErrUnauthorized indicates the bearer token was rejected (401/403).
var ErrUnauthorized = errors.New("portal rejected the API token")

// IsAuthError checks whether an error indicates a rejected or expired token.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnauthorized) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, indicator := range []string{"401", "403", "unauthorized", "token expired"} {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}
