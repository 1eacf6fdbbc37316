package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-meta/pkg/simplemeta"
	"github.com/tendant/simple-meta/pkg/simplemeta/api"
	cachememory "github.com/tendant/simple-meta/pkg/simplemeta/cache/memory"
	cachepg "github.com/tendant/simple-meta/pkg/simplemeta/cache/postgres"
	caches3 "github.com/tendant/simple-meta/pkg/simplemeta/cache/s3"
	elementmemory "github.com/tendant/simple-meta/pkg/simplemeta/element/memory"
	elementpg "github.com/tendant/simple-meta/pkg/simplemeta/element/postgres"
	"github.com/tendant/simple-meta/pkg/simplemeta/metatags"
	"github.com/tendant/simple-meta/pkg/simplemeta/render"
	"github.com/tendant/simple-meta/pkg/simplemeta/transform"
)

// Server is a resolver wired from a ServerConfig together with the
// collaborators the HTTP API serves.
type Server struct {
	Config   *ServerConfig
	Settings simplemeta.Settings
	Resolver simplemeta.Resolver
	Store    simplemeta.ElementStore
	Cache    simplemeta.Cache
	Tags     *metatags.Renderer
	Auth     *jwtauth.JWTAuth

	pool *pgxpool.Pool
}

// BuildServer constructs the resolver and its backends from the config.
func (c *ServerConfig) BuildServer(ctx context.Context, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	settings, err := c.settings()
	if err != nil {
		return nil, err
	}

	srv := &Server{Config: c, Settings: settings}
	if c.needsPostgres() {
		srv.pool, err = newPool(ctx, c.DatabaseURL, c.DBSchema)
		if err != nil {
			return nil, err
		}
	}

	if err := srv.build(ctx, logger); err != nil {
		srv.Close()
		return nil, err
	}
	return srv, nil
}

func (s *Server) build(ctx context.Context, logger *slog.Logger) error {
	c := s.Config

	store, err := c.buildElementStore(ctx, s.pool)
	if err != nil {
		return err
	}
	s.Store = store

	cache, err := c.buildCache(ctx, s.pool)
	if err != nil {
		return err
	}
	s.Cache = cache

	transformer, err := transform.New(transform.Config{
		Type:       transform.Type(c.TransformType),
		CDNBaseURL: c.CDNBaseURL,
		SignKey:    c.TransformSignKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create transformer: %w", err)
	}

	renderer := render.New()
	opts := []simplemeta.Option{
		simplemeta.WithSettings(s.Settings),
		simplemeta.WithRouter(store),
		simplemeta.WithCache(cache),
		simplemeta.WithRenderer(renderer),
		simplemeta.WithTransformer(transformer),
		simplemeta.WithSiteProvider(simplemeta.NewStaticSiteProvider(c.Site())),
		simplemeta.WithHostSiteName(simplemeta.SiteName{Name: c.HostSiteName}),
		simplemeta.WithLogger(logger),
	}

	if c.ImagerType != "" {
		imager, err := transform.New(transform.Config{
			Type:       transform.Type(c.ImagerType),
			CDNBaseURL: c.CDNBaseURL,
			SignKey:    c.TransformSignKey,
		})
		if err != nil {
			return fmt.Errorf("failed to create imager: %w", err)
		}
		opts = append(opts, simplemeta.WithImager(imager))
	}

	s.Resolver, err = simplemeta.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create resolver: %w", err)
	}

	s.Tags, err = metatags.New(s.Settings.TagTemplateMap, renderer)
	if err != nil {
		return fmt.Errorf("failed to compile tag templates: %w", err)
	}

	if c.JWTSecret != "" {
		s.Auth = jwtauth.New("HS256", []byte(c.JWTSecret), nil)
	}
	return nil
}

// Handler returns the HTTP API of the server
func (s *Server) Handler(logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	handler := api.NewMetaHandler(s.Resolver, s.Store, s.Tags, s.Auth)
	return api.NewRouter(handler, api.RouterOptions{
		Logger:         logger,
		AllowedOrigins: s.Config.CORSOrigins,
		CacheMaxAge:    s.Config.HTTPMaxAge,
	})
}

// Close releases the database pool, if any
func (s *Server) Close() {
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}

func (c *ServerConfig) settings() (simplemeta.Settings, error) {
	var settings simplemeta.Settings
	switch {
	case c.Settings != nil:
		settings = c.Settings.Clone()
	case c.SettingsFile != "":
		loaded, err := LoadSettings(c.SettingsFile)
		if err != nil {
			return simplemeta.Settings{}, err
		}
		settings = loaded
	default:
		settings = simplemeta.DefaultSettings()
	}

	if c.CacheDuration > 0 {
		settings.CacheDuration = c.CacheDuration
	}
	if c.CacheBackend == "none" {
		settings.CacheEnabled = false
	}
	return settings, nil
}

func (c *ServerConfig) needsPostgres() bool {
	return c.ElementStore == "postgres" || c.CacheBackend == "postgres"
}

func (c *ServerConfig) buildElementStore(ctx context.Context, pool *pgxpool.Pool) (simplemeta.ElementStore, error) {
	switch c.ElementStore {
	case "memory":
		store := elementmemory.New()
		if c.FixturesFile != "" {
			if err := store.LoadFile(c.FixturesFile); err != nil {
				return nil, fmt.Errorf("failed to load fixtures: %w", err)
			}
		}
		return store, nil

	case "postgres":
		store := elementpg.NewWithPool(pool, c.SiteHandle)
		if c.AutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				return nil, err
			}
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported element store: %s", c.ElementStore)
	}
}

func (c *ServerConfig) buildCache(ctx context.Context, pool *pgxpool.Pool) (simplemeta.Cache, error) {
	switch c.CacheBackend {
	case "none":
		return simplemeta.NewNoopCache(), nil

	case "memory":
		return cachememory.New(), nil

	case "postgres":
		cache := cachepg.NewWithPool(pool)
		if c.AutoMigrate {
			if err := cache.EnsureSchema(ctx); err != nil {
				return nil, err
			}
		}
		return cache, nil

	case "s3":
		cache, err := caches3.New(caches3.Config{
			Region:                 c.S3Region,
			Bucket:                 c.S3Bucket,
			Prefix:                 c.S3Prefix,
			AccessKeyID:            c.S3AccessKeyID,
			SecretAccessKey:        c.S3SecretKey,
			Endpoint:               c.S3Endpoint,
			UsePathStyle:           c.S3UsePathStyle,
			CreateBucketIfNotExist: c.S3CreateBucket,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 cache: %w", err)
		}
		return cache, nil

	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", c.CacheBackend)
	}
}

func newPool(ctx context.Context, databaseURL, schema string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}

// PingPostgres verifies connectivity to Postgres with the schema on the
// search_path. It fails if the schema does not exist.
func PingPostgres(ctx context.Context, databaseURL, schema string) error {
	if databaseURL == "" {
		return errors.New("database_url is required")
	}
	pool, err := newPool(ctx, databaseURL, schema)
	if err != nil {
		return err
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
