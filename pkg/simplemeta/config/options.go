package config

import (
	"fmt"
	"time"

	"github.com/tendant/simple-meta/pkg/simplemeta"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		c.Environment = env
		return nil
	}
}

// WithSettingsFile loads resolver settings from a YAML file at build time
func WithSettingsFile(path string) Option {
	return func(c *ServerConfig) error {
		c.SettingsFile = path
		return nil
	}
}

// WithSettings uses settings built in code instead of a settings file
func WithSettings(settings simplemeta.Settings) Option {
	return func(c *ServerConfig) error {
		s := settings.Clone()
		c.Settings = &s
		return nil
	}
}

// WithCacheDuration overrides the settings cache duration
func WithCacheDuration(d time.Duration) Option {
	return func(c *ServerConfig) error {
		c.CacheDuration = d
		return nil
	}
}

// WithMemoryElements uses the in-memory element store, optionally seeded
// from a YAML fixture file
func WithMemoryElements(fixtures string) Option {
	return func(c *ServerConfig) error {
		c.ElementStore = "memory"
		c.FixturesFile = fixtures
		return nil
	}
}

// WithDatabase configures the Postgres connection
func WithDatabase(url string) Option {
	return func(c *ServerConfig) error {
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the Postgres schema
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithPostgresElements stores elements in Postgres
func WithPostgresElements(autoMigrate bool) Option {
	return func(c *ServerConfig) error {
		c.ElementStore = "postgres"
		c.AutoMigrate = autoMigrate
		return nil
	}
}

// WithCache selects the cache backend: none, memory, postgres or s3
func WithCache(backend string) Option {
	return func(c *ServerConfig) error {
		switch backend {
		case "none", "memory", "postgres", "s3":
			c.CacheBackend = backend
			return nil
		}
		return fmt.Errorf("unsupported cache backend: %s", backend)
	}
}

// WithS3Cache caches resolved meta in an S3 bucket
func WithS3Cache(bucket, region, prefix string) Option {
	return func(c *ServerConfig) error {
		c.CacheBackend = "s3"
		c.S3Bucket = bucket
		if region != "" {
			c.S3Region = region
		}
		if prefix != "" {
			c.S3Prefix = prefix
		}
		return nil
	}
}

// WithS3Endpoint points the S3 cache at an S3-compatible service such as MinIO
func WithS3Endpoint(endpoint string, usePathStyle, createBucket bool) Option {
	return func(c *ServerConfig) error {
		c.S3Endpoint = endpoint
		c.S3UsePathStyle = usePathStyle
		c.S3CreateBucket = createBucket
		return nil
	}
}

// WithS3Credentials sets static S3 credentials
func WithS3Credentials(accessKeyID, secretKey string) Option {
	return func(c *ServerConfig) error {
		c.S3AccessKeyID = accessKeyID
		c.S3SecretKey = secretKey
		return nil
	}
}

// WithTransform selects the image transform strategy
func WithTransform(kind, cdnBaseURL, signKey string) Option {
	return func(c *ServerConfig) error {
		c.TransformType = kind
		c.CDNBaseURL = cdnBaseURL
		c.TransformSignKey = signKey
		return nil
	}
}

// WithImager adds an imager transform strategy. With useImagerIfInstalled
// set it replaces the transformer and receives focal point positions.
func WithImager(kind string) Option {
	return func(c *ServerConfig) error {
		c.ImagerType = kind
		return nil
	}
}

// WithSite sets the site meta is resolved for
func WithSite(site simplemeta.Site) Option {
	return func(c *ServerConfig) error {
		c.SiteHandle = site.Handle
		c.SiteName = site.Name
		c.SiteBaseURL = site.BaseURL
		c.SiteLanguage = site.Language
		return nil
	}
}

// WithHostSiteName sets the site name used when settings declare none
func WithHostSiteName(name string) Option {
	return func(c *ServerConfig) error {
		c.HostSiteName = name
		return nil
	}
}

// WithJWTSecret protects cache purging with HS256 tokens
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		return nil
	}
}

// WithCORSOrigins sets the allowed CORS origins
func WithCORSOrigins(origins ...string) Option {
	return func(c *ServerConfig) error {
		c.CORSOrigins = origins
		return nil
	}
}

// WithHTTPCacheMaxAge sets the Cache-Control max-age of API responses
func WithHTTPCacheMaxAge(d time.Duration) Option {
	return func(c *ServerConfig) error {
		c.HTTPMaxAge = d
		return nil
	}
}
