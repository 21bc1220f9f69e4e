package config

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr     string
	DatabaseDSN    string
	SigningKey     []byte
	AllowedOrigins []string
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(base64Secret)
}

func NewConfig(serverAddr, databaseDSN, base64Secret string, allowedOrigins []string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}

	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	return &Config{
		ServerAddr:     serverAddr,
		DatabaseDSN:    databaseDSN,
		SigningKey:     signingKey,
		AllowedOrigins: allowedOrigins,
	}, nil
}

// Env returns the value of key from the environment, falling back to def.
// A .env file in the working directory is loaded once, if present.
func Env(key, def string) string {
	loadDotEnv()
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

var dotEnvLoaded bool

func loadDotEnv() {
	if dotEnvLoaded {
		return
	}
	dotEnvLoaded = true
	_ = godotenv.Load()
}
