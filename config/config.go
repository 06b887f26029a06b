package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultPhotosSubDir = "photos"
	DefaultMediaURL     = "/media/"
)

const (
	MediaBackendLocal = "local"
	MediaBackendS3    = "s3"
)

type S3Config struct {
	Bucket    string `env:"BUCKET"`
	Region    string `env:"REGION" envDefault:"us-east-1"`
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	// base URL photos are served from, e.g. https://bucket.s3.amazonaws.com
	PublicURL string `env:"PUBLIC_URL"`
}

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`
	// mount point for every route, empty means "/"
	URLPrefix string `env:"URL_PREFIX"`

	// database path (sqlite DSN)
	DatabasePath string `env:"DATABASE_PATH" envDefault:"contacts.db"`

	// media storage configuration
	MediaBackend     string `env:"MEDIA_BACKEND" envDefault:"local"`
	MediaStoragePath string `env:"MEDIA_STORAGE_PATH" envDefault:"./media_storage"` // root for uploaded photos
	PhotosSubDir     string `env:"PHOTOS_SUBDIR" envDefault:"photos"`
	PhotosPath       string // full-calculated path for photos
	MediaURL         string `env:"MEDIA_URL" envDefault:"/media/"`

	// photo processing
	PhotoMaxSize   int   `env:"PHOTO_MAX_SIZE" envDefault:"600"`
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	DevMode  bool   `env:"DEV_MODE" envDefault:"false"`

	S3 S3Config `envPrefix:"S3_"`
}

// LoadConfig reads the environment into a Config and resolves derived paths.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	absMediaStorage, err := filepath.Abs(cfg.MediaStoragePath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for media storage '%s': %w", cfg.MediaStoragePath, err)
	}
	cfg.MediaStoragePath = absMediaStorage

	if cfg.PhotosSubDir == "" {
		cfg.PhotosSubDir = DefaultPhotosSubDir
	}
	cfg.PhotosPath = filepath.Join(absMediaStorage, cfg.PhotosSubDir)

	cfg.MediaURL = normalizeMediaURL(cfg.MediaURL)
	cfg.URLPrefix = strings.TrimRight(cfg.URLPrefix, "/")
	if cfg.URLPrefix != "" && !strings.HasPrefix(cfg.URLPrefix, "/") {
		cfg.URLPrefix = "/" + cfg.URLPrefix
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if cfg.PhotoMaxSize <= 0 {
		return Config{}, fmt.Errorf("PHOTO_MAX_SIZE must be positive, got %d", cfg.PhotoMaxSize)
	}
	if cfg.MaxUploadBytes <= 0 {
		return Config{}, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", cfg.MaxUploadBytes)
	}

	switch cfg.MediaBackend {
	case MediaBackendLocal:
	case MediaBackendS3:
		if cfg.S3.Bucket == "" {
			return Config{}, fmt.Errorf("S3_BUCKET is required when MEDIA_BACKEND=s3")
		}
	default:
		return Config{}, fmt.Errorf("unknown MEDIA_BACKEND '%s' (expected %s or %s)", cfg.MediaBackend, MediaBackendLocal, MediaBackendS3)
	}

	return cfg, nil
}

// normalizeMediaURL makes sure the prefix starts and ends with a slash unless
// it is an absolute URL, which only gets the trailing slash.
func normalizeMediaURL(u string) string {
	if u == "" {
		return DefaultMediaURL
	}
	if !strings.HasPrefix(u, "/") && !strings.Contains(u, "://") {
		u = "/" + u
	}
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}
