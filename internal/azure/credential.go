package azure

import (
	"encoding/base64"
	"errors"
)

// ErrMissingToken is returned when no personal access token is configured.
var ErrMissingToken = errors.New("personal access token is not set")

// EncodeToken returns the Basic authorization value for a personal access token:
// base64(":" + token).
func EncodeToken(token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}
	return base64.StdEncoding.EncodeToString([]byte(":" + token)), nil
}

// MaskToken renders a token for logs without revealing it.
func MaskToken(token string) string {
	if token == "" {
		return "<unset>"
	}
	if len(token) <= 8 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
