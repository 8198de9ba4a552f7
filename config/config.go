package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"soundprint-mockup/utils"
)

// Config holds every runtime setting of the mockup service.
type Config struct {
	Env     string
	Port    string
	LogMode string

	// Template metadata and layer assets
	TemplateSource string // "file" or "postgres"
	TemplateDir    string
	AssetSource    string // "file" or "drive"
	AssetRoot      string
	DriveCredsPath string

	// Caches
	LayerCacheBytes    int64
	RenderCacheBytes   int64
	RenderCacheEntries int
	RedisAddr          string
	RedisTTL           time.Duration

	// Pools and budgets
	RenderWorkers  int
	IOWorkers      int
	UploadWorkers  int
	BatchTimeout   time.Duration
	LoadTimeout    time.Duration
	RenderTimeout  time.Duration
	RenderRetries  int
	MaxDesignBytes int64

	// Export
	StorageBackend  string // "s3", "gcs", "local" or "none"
	PublicBaseURL   string
	LocalStorageDir string
	S3Endpoint      string
	S3Region        string
	S3Bucket        string
	S3AccessKeyID   string
	S3SecretKey     string
	S3PathStyle     bool
	GCSBucket       string
	KeyPrefix       string

	// Tracing
	TracingEnabled   bool
	TraceSampleRatio float64
	OTLPEndpoint     string // empty exports spans to stdout
	OTLPInsecure     bool
	ServiceVersion   string
}

// Load reads the configuration from environment variables, applying defaults.
func Load() (*Config, error) {
	cpus := runtime.NumCPU()

	port := utils.GetEnv("PORT", "8080")
	// PORT from some platforms carries a leading colon
	port = strings.TrimPrefix(port, ":")

	cfg := &Config{
		Env:     utils.GetEnv("ENV", "development"),
		Port:    port,
		LogMode: utils.GetEnv("LOG_MODE", utils.GetEnv("ENV", "development")),

		TemplateSource: strings.ToLower(utils.GetEnv("TEMPLATE_SOURCE", "file")),
		TemplateDir:    utils.GetEnv("TEMPLATE_DIR", "templates/mockups"),
		AssetSource:    strings.ToLower(utils.GetEnv("ASSET_SOURCE", "file")),
		AssetRoot:      utils.GetEnv("ASSET_ROOT", "templates/mockups"),
		DriveCredsPath: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),

		LayerCacheBytes:    utils.GetEnvInt64("LAYER_CACHE_BYTES", 512<<20),
		RenderCacheBytes:   utils.GetEnvInt64("RENDER_CACHE_BYTES", 256<<20),
		RenderCacheEntries: utils.GetEnvInt("RENDER_CACHE_ENTRIES", 2000),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisTTL:           utils.GetEnvDuration("REDIS_TTL", 24*time.Hour),

		RenderWorkers:  utils.GetEnvInt("RENDER_WORKERS", cpus),
		IOWorkers:      utils.GetEnvInt("IO_WORKERS", 4*cpus),
		UploadWorkers:  utils.GetEnvInt("UPLOAD_WORKERS", 8),
		BatchTimeout:   utils.GetEnvDuration("BATCH_TIMEOUT", 60*time.Second),
		LoadTimeout:    utils.GetEnvDuration("LAYER_LOAD_TIMEOUT", 2*time.Minute),
		RenderTimeout:  utils.GetEnvDuration("RENDER_TIMEOUT", 2*time.Minute),
		RenderRetries:  utils.GetEnvInt("RENDER_RETRIES", 1),
		MaxDesignBytes: utils.GetEnvInt64("MAX_DESIGN_BYTES", 20<<20),

		StorageBackend:  strings.ToLower(utils.GetEnv("STORAGE_BACKEND", "none")),
		PublicBaseURL:   strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),
		LocalStorageDir: utils.GetEnv("LOCAL_STORAGE_DIR", "cache/mockups"),
		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3Region:        utils.GetEnv("S3_REGION", "us-east-1"),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3AccessKeyID:   os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretKey:     os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3PathStyle:     utils.GetEnvBool("S3_PATH_STYLE", false),
		GCSBucket:       os.Getenv("GCS_BUCKET"),
		KeyPrefix:       utils.GetEnv("STORAGE_KEY_PREFIX", "mockups"),

		TracingEnabled:   utils.GetEnvBool("OTEL_ENABLED", false),
		TraceSampleRatio: utils.GetEnvFloat("OTEL_SAMPLER_RATIO", 0.1),
		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure:     utils.GetEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		ServiceVersion:   utils.GetEnv("SERVICE_VERSION", "dev"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints and clamps pool sizes to at least one.
func (c *Config) Validate() error {
	if c.RenderWorkers < 1 {
		c.RenderWorkers = 1
	}
	if c.IOWorkers < 1 {
		c.IOWorkers = 1
	}
	if c.UploadWorkers < 1 {
		c.UploadWorkers = 1
	}
	if c.RenderRetries < 0 {
		c.RenderRetries = 0
	}
	if c.TraceSampleRatio < 0 {
		c.TraceSampleRatio = 0
	}
	if c.TraceSampleRatio > 1 {
		c.TraceSampleRatio = 1
	}

	switch c.TemplateSource {
	case "file", "postgres":
	default:
		return fmt.Errorf("invalid TEMPLATE_SOURCE %q (expected file or postgres)", c.TemplateSource)
	}

	switch c.AssetSource {
	case "file":
	case "drive":
		if c.DriveCredsPath == "" {
			return fmt.Errorf("ASSET_SOURCE=drive requires GOOGLE_APPLICATION_CREDENTIALS")
		}
	default:
		return fmt.Errorf("invalid ASSET_SOURCE %q (expected file or drive)", c.AssetSource)
	}

	switch c.StorageBackend {
	case "none", "local":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("STORAGE_BACKEND=s3 requires S3_BUCKET")
		}
	case "gcs":
		if c.GCSBucket == "" {
			return fmt.Errorf("STORAGE_BACKEND=gcs requires GCS_BUCKET")
		}
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q", c.StorageBackend)
	}
	return nil
}
