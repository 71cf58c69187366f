package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"rigcheck/pkg/bus"
	"rigcheck/pkg/db"
	"rigcheck/pkg/render"
	gos3 "rigcheck/pkg/s3"
	"rigcheck/pkg/telemetry"
	"rigcheck/services/api"
	"rigcheck/services/archive"
	"rigcheck/services/artifacts"
	"rigcheck/services/checklist"
	"rigcheck/services/exporter"
	"rigcheck/services/mailer"
	"rigcheck/services/report"
)

const serviceName = "rigcheckd"

type config struct {
	Addr           string   `env:"ADDR,default=:8080"`
	DBDSN          string   `env:"DB_DSN,required"`
	S3Bucket       string   `env:"S3_BUCKET,required"`
	NATSURL        string   `env:"NATS_URL"`
	InspectorsFile string   `env:"INSPECTORS_FILE"`
	AssetsDir      string   `env:"ASSETS_DIR"`
	SweepToken     string   `env:"SWEEP_TOKEN"`
	DeleteUser     string   `env:"DELETE_USER"`
	DeletePass     string   `env:"DELETE_PASS"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`
	OTLPEndpoint   string   `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().Str("service", serviceName).Logger()

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	middleware := func(next http.Handler) http.Handler { return next }
	if cfg.OTLPEndpoint != "" {
		shutdownTelemetry, traced, err := telemetry.Init(ctx, serviceName, logger)
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		middleware = traced
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("telemetry shutdown")
			}
		}()
	}

	pool, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	orm, err := gorm.Open(gormpg.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("open gorm: %w", err)
	}

	s3Client, err := gos3.NewClientFromEnv()
	if err != nil {
		return fmt.Errorf("init s3 client: %w", err)
	}

	var eventBus *bus.Bus
	if cfg.NATSURL != "" {
		eventBus, err = bus.New(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer eventBus.Close()
	}

	inspectors, err := checklist.LoadInspectors(cfg.InspectorsFile)
	if err != nil {
		return fmt.Errorf("load inspectors: %w", err)
	}

	records, err := artifacts.NewGormRecords(orm)
	if err != nil {
		return err
	}
	blobs, err := artifacts.NewS3Blobs(s3Client, cfg.S3Bucket)
	if err != nil {
		return err
	}
	store, err := artifacts.New(artifacts.Config{
		Records: records,
		Blobs:   blobs,
		Bus:     eventBus,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("init artifact store: %w", err)
	}

	signer, err := archive.NewSignerFromEnv()
	if err != nil {
		return fmt.Errorf("init manifest signer: %w", err)
	}

	renderer := report.New(report.Config{
		Inspectors: inspectors,
		Assets:     assetsFS(cfg.AssetsDir),
		Logger:     logger,
	})

	pipeline, err := exporter.New(exporter.Config{
		Renderer: renderer,
		Store:    store,
		Signer:   signer,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("init export pipeline: %w", err)
	}

	if eventBus != nil {
		engine, err := render.New()
		if err != nil {
			return fmt.Errorf("init render engine: %w", err)
		}
		consumer, err := mailer.New(mailer.Config{
			Bus:        eventBus,
			Linker:     store,
			Sender:     mailer.LogSender{Logger: logger},
			Inspectors: inspectors,
			Render:     engine,
			Logger:     logger,
		})
		if err != nil {
			return fmt.Errorf("init mailer: %w", err)
		}
		sub, err := consumer.Run(ctx)
		if err != nil {
			return fmt.Errorf("start mailer: %w", err)
		}
		defer sub.Close()
	}

	a, err := api.New(
		&api.Store{DB: pool, ORM: orm, S3: s3Client, Bus: eventBus},
		pipeline,
		store,
		api.Config{
			SweepToken:     cfg.SweepToken,
			DeleteUser:     cfg.DeleteUser,
			DeletePass:     cfg.DeletePass,
			AllowedOrigins: cfg.AllowedOrigins,
		},
		logger,
	)
	if err != nil {
		return fmt.Errorf("init api: %w", err)
	}

	routes, err := a.Routes()
	if err != nil {
		return fmt.Errorf("build routes: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           middleware(routes),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server shutdown")
		}
	}()

	logger.Info().Str("addr", cfg.Addr).Msg("listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func assetsFS(dir string) fs.FS {
	if dir == "" {
		return nil
	}
	return os.DirFS(dir)
}
