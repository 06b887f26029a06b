package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/camden-git/contactbook/config"
	"github.com/camden-git/contactbook/database"
	"github.com/camden-git/contactbook/handlers"
	"github.com/camden-git/contactbook/media"
	"github.com/camden-git/contactbook/repository"
)

func main() {
	bootLog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		bootLog.Info().Err(err).Msg("no .env file found or error loading it")
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := newLogger(cfg)
	zerolog.DefaultContextLogger = &log

	storagePaths := []string{filepath.Dir(cfg.DatabasePath)}
	if cfg.MediaBackend == config.MediaBackendLocal {
		storagePaths = append(storagePaths, cfg.PhotosPath)
	}
	for _, p := range storagePaths {
		log.Debug().Str("path", p).Msg("ensuring storage directory exists")
		if err := os.MkdirAll(p, 0755); err != nil {
			log.Fatal().Err(err).Str("path", p).Msg("failed to create storage directory")
		}
	}

	db, err := database.InitGormDB(cfg.DatabasePath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer database.Close(db)

	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	mediaSubDirs := map[media.AssetType]string{
		media.AssetTypePhoto: cfg.PhotosSubDir,
	}
	var (
		mediaStore media.Store
		assets     http.Handler
	)
	switch cfg.MediaBackend {
	case config.MediaBackendS3:
		mediaStore, err = media.NewS3Storage(media.S3Options{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			PublicURL: cfg.S3.PublicURL,
		}, mediaSubDirs, log)
	default:
		var local *media.LocalStorage
		local, err = media.NewLocalStorage(cfg.MediaStoragePath, mediaSubDirs, cfg.URLPrefix+cfg.MediaURL, log)
		if err == nil {
			mediaStore = local
			assets = handlers.AssetServer(local)
		}
	}
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.MediaBackend).Msg("failed to initialize media store")
	}
	photos := media.NewProcessor(mediaStore, media.PhotoOptions{MaxSize: cfg.PhotoMaxSize}, log)

	contactRepo := repository.NewContactRepository(db)

	router := handlers.NewRouter(cfg, handlers.RouterDeps{
		Contacts: handlers.NewContactHandler(contactRepo, photos, cfg),
		API: &handlers.ContactsAPI{
			Repo: contactRepo,
			Ping: pinger(db),
		},
		Assets: assets,
	}, log)

	log.Info().
		Str("database", cfg.DatabasePath).
		Str("media_backend", cfg.MediaBackend).
		Str("url_prefix", cfg.URLPrefix).
		Int("photo_max_size", cfg.PhotoMaxSize).
		Msg("configuration loaded")

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", server.Addr).Msgf("server starting on http://localhost:%s%s/", cfg.Port, cfg.URLPrefix)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.DevMode {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Str("service", "contactbook").Logger()
}

func pinger(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return database.Ping(ctx, db)
	}
}
