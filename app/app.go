package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"soundprint-mockup/app/controller"
	"soundprint-mockup/app/router"
	"soundprint-mockup/catalog"
	"soundprint-mockup/compositor"
	"soundprint-mockup/config"
	"soundprint-mockup/db"
	"soundprint-mockup/layers"
	"soundprint-mockup/logger"
	"soundprint-mockup/pregen"
	"soundprint-mockup/rendercache"
	"soundprint-mockup/repository"
	"soundprint-mockup/service"
	"soundprint-mockup/storage"
)

// App holds every wired component of the mockup pipeline.
type App struct {
	Catalog   *catalog.Catalog
	Layers    *layers.Store
	Cache     *rendercache.Cache
	Renderer  *pregen.Renderer
	Generator *pregen.Generator
	Uploader  storage.UploaderInterface
	Drive     *service.DriveService

	MockupService *service.MockupService
	WarmupService *service.WarmupService

	closers []io.Closer
}

// Close releases database, Redis and storage clients.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build wires the pipeline from configuration without registering any routes.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	log = logger.OrNop(log)
	a := &App{}

	repo, err := a.templateRepository(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Catalog = catalog.New(repo, log)

	// Layer assets: local files, with drive:// refs routed to Google Drive when configured
	var driveSource layers.AssetSourceInterface
	if cfg.AssetSource == "drive" || cfg.DriveCredsPath != "" {
		a.Drive, err = service.NewDriveService(ctx, cfg.DriveCredsPath, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize Drive service: %w", err)
		}
		driveSource = a.Drive
		log.Info("✓ Drive asset source enabled")
	}
	source := layers.NewRoutingAssetSource(layers.NewFileAssetSource(cfg.AssetRoot), driveSource)
	a.Layers = layers.NewStore(source, cfg.LayerCacheBytes, cfg.IOWorkers, log)
	a.Layers.LoadTimeout = cfg.LoadTimeout

	// Render cache, optionally backed by Redis
	var l2 rendercache.SecondTierInterface
	if cfg.RedisAddr != "" {
		redisStore, err := rendercache.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisTTL)
		if err != nil {
			// Redis is an optimisation; run without it rather than refuse to start
			log.Warn("⚠️ Redis unavailable, render cache is process-local", "addr", cfg.RedisAddr, "error", err)
		} else {
			l2 = redisStore
			a.closers = append(a.closers, redisStore)
			log.Info("✓ Redis render cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.RedisTTL)
		}
	}
	a.Cache = rendercache.New(cfg.RenderCacheBytes, cfg.RenderCacheEntries, l2, log)
	a.Cache.ComputeTimeout = cfg.RenderTimeout

	a.Renderer = pregen.NewRenderer(a.Layers, a.Cache, compositor.New(), cfg.RenderWorkers, log)
	a.Generator = pregen.NewGenerator(a.Catalog, a.Renderer, pregen.Options{
		Workers:        cfg.RenderWorkers + cfg.IOWorkers,
		Timeout:        cfg.BatchTimeout,
		Retries:        cfg.RenderRetries,
		MaxDesignBytes: cfg.MaxDesignBytes,
	}, log)

	a.Uploader, err = a.uploader(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.MockupService = service.NewMockupService(service.MockupServiceDeps{
		Catalog:        a.Catalog,
		Layers:         a.Layers,
		Cache:          a.Cache,
		Renderer:       a.Renderer,
		Generator:      a.Generator,
		Uploader:       a.Uploader,
		UploadWorkers:  cfg.UploadWorkers,
		KeyPrefix:      cfg.KeyPrefix,
		MaxDesignBytes: cfg.MaxDesignBytes,
	}, log)
	a.WarmupService = service.NewWarmupService(a.Catalog, a.Layers, log)

	return a, nil
}

// Initialize builds the pipeline and registers the HTTP routes on the default mux.
func Initialize(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a, err := Build(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	controllers := &router.Controllers{
		Mockup:   controller.NewMockupController(a.MockupService, cfg.MaxDesignBytes, log),
		Template: controller.NewTemplateController(a.MockupService, a.WarmupService, log),
	}
	router.SetupRoutes(http.DefaultServeMux, controllers)
	return a, nil
}

func (a *App) templateRepository(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.TemplateRepositoryInterface, error) {
	if cfg.TemplateSource != "postgres" {
		log.Info("📂 Loading templates from manifests", "dir", cfg.TemplateDir)
		return repository.NewTemplateFileRepository(cfg.TemplateDir, log), nil
	}

	connStr, err := db.ConnStringFromEnv()
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(ctx, connStr)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, conn)
	log.Info("✓ Database connection established")
	return repository.NewTemplatePostgresRepository(conn, log), nil
}

func (a *App) uploader(ctx context.Context, cfg *config.Config, log *logger.Logger) (storage.UploaderInterface, error) {
	var (
		next storage.UploaderInterface
		err  error
	)
	switch cfg.StorageBackend {
	case "s3":
		next, err = storage.NewS3Uploader(ctx, storage.S3Config{
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			Endpoint:        cfg.S3Endpoint,
			ForcePathStyle:  cfg.S3PathStyle,
			PublicBaseURL:   cfg.PublicBaseURL,
		})
	case "gcs":
		var gcs *storage.GCSUploader
		gcs, err = storage.NewGCSUploader(ctx, cfg.GCSBucket, cfg.PublicBaseURL)
		if err == nil {
			a.closers = append(a.closers, gcs)
			next = gcs
		}
	case "local":
		next, err = storage.NewLocalUploader(cfg.LocalStorageDir, cfg.PublicBaseURL, log)
	default:
		log.Info("⏭️ No storage backend configured, uploads disabled")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", cfg.StorageBackend, err)
	}

	log.Info("✓ Storage backend ready", "backend", cfg.StorageBackend)
	return storage.NewBreakerUploader(cfg.StorageBackend, next, storage.DefaultBreakerSettings(), log), nil
}
