package backend

import (
	"errors"
	"fmt"
	"time"

	"recorridos/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// api
	APIBaseURL string
	APITimeout time.Duration

	// sqlite
	SQLiteDBPath string

	// memory
	SeedFile string

	// local authentication
	JWTSecret string
	TokenTTL  time.Duration

	// recorrido month cache; zero disables it
	CacheTTL time.Duration

	// optional event publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{
		Type:         backendType,
		APIBaseURL:   appConfig.APIBaseURL,
		APITimeout:   appConfig.APITimeout,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		SeedFile:     appConfig.SeedFile,
		JWTSecret:    appConfig.JWTSecret,
		TokenTTL:     appConfig.TokenTTL,
		CacheTTL:     appConfig.CacheTTL,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	switch c.Type {
	case APIBackend:
		if c.APIBaseURL == "" {
			return errors.New("API base URL is required for api backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	}
	if c.Type.LocalAuth() && len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT secret of at least 16 characters is required for %s backend", c.Type)
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{APIBackend, SQLiteBackend, MemoryBackend}
}
