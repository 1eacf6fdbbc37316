package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/tendant/simple-meta/pkg/simplemeta"
	"github.com/tendant/simple-meta/pkg/simplemeta/transform"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:          "8080",
		Environment:   "development",
		ElementStore:  "memory",
		DBSchema:      "meta",
		CacheBackend:  "memory",
		S3Region:      "us-east-1",
		S3Prefix:      "meta-cache",
		TransformType: string(transform.TypePassthrough),
		SiteHandle:    "default",
		SiteBaseURL:   "http://localhost:8080",
	}
}

// ServerConfig represents server configuration for the simple-meta service.
// Field tags name the environment variables WithEnv reads.
type ServerConfig struct {
	Port        string `env:"PORT"`
	Environment string `env:"ENVIRONMENT"` // development, production, testing

	// Settings
	SettingsFile  string               `env:"SETTINGS_FILE"` // YAML resolver settings
	Settings      *simplemeta.Settings `env:"-"`             // programmatic settings; wins over SettingsFile
	CacheDuration time.Duration        `env:"CACHE_DURATION"` // overrides the settings duration when > 0

	// Element store
	ElementStore string `env:"ELEMENT_STORE"` // "memory", "postgres"
	FixturesFile string `env:"FIXTURES_FILE"` // YAML entries for the memory store
	DatabaseURL  string `env:"DATABASE_URL"`
	DBSchema     string `env:"DB_SCHEMA"` // Postgres schema to use (default: meta)
	AutoMigrate  bool   `env:"DB_AUTO_MIGRATE"`

	// Cache
	CacheBackend   string `env:"CACHE_BACKEND"` // "none", "memory", "postgres", "s3"
	S3Bucket       string `env:"CACHE_S3_BUCKET"`
	S3Region       string `env:"AWS_REGION"`
	S3Prefix       string `env:"CACHE_S3_PREFIX"`
	S3Endpoint     string `env:"AWS_S3_ENDPOINT"`
	S3UsePathStyle bool   `env:"AWS_S3_USE_PATH_STYLE"`
	S3AccessKeyID  string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretKey    string `env:"AWS_SECRET_ACCESS_KEY"`
	S3CreateBucket bool   `env:"CACHE_S3_CREATE_BUCKET"`

	// Images
	TransformType    string `env:"TRANSFORM_TYPE"` // "passthrough", "query", "path"
	CDNBaseURL       string `env:"CDN_BASE_URL"`
	TransformSignKey string `env:"TRANSFORM_SIGN_KEY"`
	ImagerType       string `env:"IMAGER_TYPE"` // optional imager: "query", "path"; receives focal point positions

	// Site
	SiteHandle   string `env:"SITE_HANDLE"`
	SiteName     string `env:"SITE_NAME"`
	SiteBaseURL  string `env:"SITE_BASE_URL"`
	SiteLanguage string `env:"SITE_LANGUAGE"`
	HostSiteName string `env:"HOST_SITE_NAME"` // fallback site name of the host system

	// HTTP
	JWTSecret   string        `env:"JWT_SECRET"` // protects cache purging when set
	CORSOrigins []string      `env:"CORS_ORIGINS" env-separator:","`
	HTTPMaxAge  time.Duration `env:"HTTP_CACHE_MAX_AGE"`
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.ElementStore {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("database_url is required when using the postgres element store")
		}
	default:
		return fmt.Errorf("element_store must be 'memory' or 'postgres', got %q", c.ElementStore)
	}

	switch c.CacheBackend {
	case "none", "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("database_url is required when using the postgres cache")
		}
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("cache_s3_bucket is required when using the s3 cache")
		}
	default:
		return fmt.Errorf("cache_backend must be 'none', 'memory', 'postgres' or 's3', got %q", c.CacheBackend)
	}

	switch transform.Type(c.TransformType) {
	case transform.TypePassthrough, transform.TypeQuery, transform.TypePath:
	default:
		return fmt.Errorf("transform_type must be 'passthrough', 'query' or 'path', got %q", c.TransformType)
	}

	switch transform.Type(c.ImagerType) {
	case "", transform.TypeQuery, transform.TypePath:
	default:
		return fmt.Errorf("imager_type must be empty, 'query' or 'path', got %q", c.ImagerType)
	}

	if c.CacheDuration < 0 {
		return errors.New("cache_duration cannot be negative")
	}

	if c.Settings != nil {
		if err := c.Settings.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Site returns the configured site
func (c *ServerConfig) Site() simplemeta.Site {
	return simplemeta.Site{
		Handle:   c.SiteHandle,
		Name:     c.SiteName,
		BaseURL:  c.SiteBaseURL,
		Language: c.SiteLanguage,
	}
}
