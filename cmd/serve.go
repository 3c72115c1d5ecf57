package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/krishkalaria12/snapvault/analysis"
	"github.com/krishkalaria12/snapvault/auth"
	"github.com/krishkalaria12/snapvault/config"
	"github.com/krishkalaria12/snapvault/database"
	handler "github.com/krishkalaria12/snapvault/handlers"
	"github.com/krishkalaria12/snapvault/logging"
	"github.com/krishkalaria12/snapvault/registry"
	"github.com/krishkalaria12/snapvault/router"
	"github.com/krishkalaria12/snapvault/storage"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/logger"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		skipMigrate, err := cmd.Flags().GetBool("skip-migrate")
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, !skipMigrate)
	},
}

func init() {
	serveCmd.Flags().Bool("skip-migrate", false, "do not run auto migration on startup")
}

func serve(ctx context.Context, cfg config.Config, migrate bool) error {
	db, err := database.Connect(cfg.DatabaseURL, gormLogLevel())
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	if migrate {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	backend, closeBackend, err := newBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	lookupOpts := []analysis.Option{}
	if cfg.RedisAddr != "" {
		rdb, err := analysis.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer func(rdb *redis.Client) {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close redis", "error", err)
			}
		}(rdb)
		lookupOpts = append(lookupOpts, analysis.WithCache(analysis.NewRedisCache(rdb, cfg.AnalysisCacheTTL)))
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenIssuer, cfg.AccessTokenTTL)
	authService := auth.NewService(db, auth.NewHasher(bcrypt.DefaultCost), tokens)

	h := handler.New(
		authService,
		registry.New(db, backend),
		backend,
		analysis.NewLookup(db, lookupOpts...),
		handler.Options{
			SignedURLTTL:      cfg.SignedURLTTL,
			PresignedMaxBytes: cfg.PresignedMaxBytes,
		},
	)

	app := router.NewApp(cfg.MaxUploadBytes)
	router.SetupRoutes(app, h)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server is listening", "port", cfg.Port, "mode", cfg.Mode)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

// newBackend picks the storage backend for the configured mode. The object
// store keeps a local fallback so records written before the switch still resolve.
func newBackend(ctx context.Context, cfg config.Config) (storage.Backend, func(), error) {
	local := storage.NewLocalFilesystemBackend(cfg.UploadDir)
	if !cfg.UseObjectStorage() {
		slog.Info("storing images on local disk", "dir", cfg.UploadDir)
		return local, func() {}, nil
	}

	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	backend := storage.NewGCSBackend(client, storage.GCSOptions{
		Bucket:         cfg.GCSBucket,
		Prefix:         cfg.GCSUploadPrefix,
		GoogleAccessID: cfg.GCSSigningEmail,
		PrivateKey:     cfg.GCSSigningPrivateKey,
		TicketTTL:      cfg.PresignedTTL,
	}, local)

	slog.Info("storing images in bucket", "bucket", cfg.GCSBucket)
	return backend, func() {
		if err := client.Close(); err != nil {
			slog.Error("failed to close storage client", "error", err)
		}
	}, nil
}

func gormLogLevel() logger.LogLevel {
	if logging.LevelFromEnv() == slog.LevelDebug {
		return logger.Info
	}
	return logger.Warn
}
