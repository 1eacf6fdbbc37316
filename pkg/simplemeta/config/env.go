package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// WithEnv reads configuration from environment variables. Unset variables
// keep the value configured so far; the variable names are the env tags of
// ServerConfig (PORT, DATABASE_URL, CACHE_BACKEND, ...).
func WithEnv() Option {
	return func(c *ServerConfig) error {
		if err := cleanenv.ReadEnv(c); err != nil {
			return fmt.Errorf("read environment: %w", err)
		}
		return nil
	}
}
