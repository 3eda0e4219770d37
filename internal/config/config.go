package config

import (
	"encoding/base64"
	"fmt"
)

type Config struct {
	ServerAddr     string
	DatabaseDSN    string
	PrivilegedDSN  string
	SigningKey     []byte
	AllowedOrigins []string
	VideoAPIURL    string
	VideoAPIKey    string
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(base64Secret)
}

// NewConfig validates and assembles the server configuration. The
// privileged DSN is optional and falls back to the primary DSN, which
// disables the elevated write path. The video API settings are optional;
// without them room provisioning is unconfigured.
func NewConfig(serverAddr, databaseDSN, privilegedDSN, base64Secret string, allowedOrigins []string, videoAPIURL, videoAPIKey string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}
	if videoAPIURL == "" && videoAPIKey != "" {
		return nil, fmt.Errorf("video API key set without video API URL")
	}

	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	if privilegedDSN == "" {
		privilegedDSN = databaseDSN
	}

	return &Config{
		ServerAddr:     serverAddr,
		DatabaseDSN:    databaseDSN,
		PrivilegedDSN:  privilegedDSN,
		SigningKey:     signingKey,
		AllowedOrigins: allowedOrigins,
		VideoAPIURL:    videoAPIURL,
		VideoAPIKey:    videoAPIKey,
	}, nil
}
