// @title Indisense Sentiment Gateway API
// @version 1.0
// @description Emotion scoring, key themes and transcription for text, audio and video.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"google.golang.org/grpc"

	"indisense/sentiment-gateway/config"
	_ "indisense/sentiment-gateway/docs"
	"indisense/sentiment-gateway/handlers"
	"indisense/sentiment-gateway/internal/analysis"
	"indisense/sentiment-gateway/internal/archive"
	"indisense/sentiment-gateway/internal/db"
	"indisense/sentiment-gateway/internal/gateway"
	"indisense/sentiment-gateway/internal/rpc"
	"indisense/sentiment-gateway/internal/worker"
	"indisense/sentiment-gateway/middleware"
)

var build = "develop"

func main() {
	cfg, err := config.LoadSettings(build, "indisense sentiment gateway")
	if err != nil {
		if errors.Is(err, config.ErrHelpWanted) {
			return
		}
		config.InitLogger("info")
		config.Log.Fatalf("Failed to load configuration: %v", err)
	}

	config.InitLogger(cfg.Log.Level)
	log := config.Log
	log.WithField("config", cfg.String()).Info("Starting sentiment gateway")

	if err := run(cfg); err != nil {
		log.Fatalf("Gateway stopped with error: %v", err)
	}
}

func run(cfg *config.Settings) error {
	log := config.Log

	// Analysis
	model := gateway.NewClient(gateway.Config{
		APIKey:  cfg.Gateway.APIKey,
		BaseURL: cfg.Gateway.BaseURL,
		Model:   cfg.Gateway.Model,
		Timeout: cfg.Gateway.Timeout,
	})
	if !model.Configured() {
		log.Warn("LOVABLE_API_KEY is not set; analysis requests will fail with 'AI service not configured'")
	}
	analyzer := analysis.NewAnalyzer(model, log)

	// Archival
	var (
		archiver   handlers.Archiver
		dispatcher *worker.Dispatcher
	)
	if cfg.ArchiveEnabled() {
		if err := config.InitSupabase(cfg); err != nil {
			return err
		}
		rest, err := db.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
		if err != nil {
			return err
		}
		dispatcher = worker.NewDispatcher(cfg.Archive.Workers, cfg.Archive.QueueSize, log)
		dispatcher.JobTimeout = cfg.Archive.JobTimeout
		dispatcher.Run()

		archiver = archive.NewService(
			archive.NewSupabaseStore(config.SupabaseClient, cfg.Archive.Bucket),
			archive.NewSupabaseIdentity(config.SupabaseClient),
			db.NewMediaUploads(rest, cfg.Archive.Table),
			dispatcher,
			log,
		)
	} else {
		log.Warn("Supabase credentials not set; media archival is disabled")
	}

	// HTTP
	app := fiber.New(fiber.Config{
		AppName:      "indisense-gateway",
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		BodyLimit:    cfg.Web.BodyLimitMB * 1024 * 1024,
	})
	app.Use(handlers.CORS(cfg.Web.CORSOrigins))
	app.Use(middleware.RequestLogger(log))

	h := handlers.NewApplicationHandler(analyzer, archiver, log)
	h.RegisterRoutes(app)
	app.Get("/swagger/*", fiberSwagger.WrapHandler)

	serverErrors := make(chan error, 2)
	go func() {
		log.Infof("Starting HTTP API on %s", cfg.Web.Address)
		serverErrors <- app.Listen(cfg.Web.Address)
	}()

	// gRPC
	grpcServer, healthServer := rpc.NewServer(analyzer, log, grpc.MaxRecvMsgSize(cfg.Web.BodyLimitMB<<20))
	if cfg.GRPC.Enabled {
		lis, err := net.Listen("tcp", cfg.GRPC.Address)
		if err != nil {
			return err
		}
		go func() {
			log.Infof("Starting gRPC API on %s", cfg.GRPC.Address)
			serverErrors <- grpcServer.Serve(lis)
		}()
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return err
	case sig := <-shutdown:
		log.WithField("signal", sig.String()).Info("Shutdown started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
	defer cancel()

	healthServer.Shutdown()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.WithError(err).Error("HTTP shutdown did not complete")
	}
	stopGRPC(ctx, grpcServer.GracefulStop, grpcServer.Stop)
	if dispatcher != nil {
		if err := dispatcher.Stop(ctx); err != nil {
			log.WithError(err).Error("Archive queue did not drain before shutdown")
		}
	}
	log.Info("Shutdown complete")
	return nil
}

// stopGRPC waits for in-flight RPCs until ctx expires, then forces the stop.
func stopGRPC(ctx context.Context, graceful, force func()) {
	done := make(chan struct{})
	go func() {
		graceful()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		force()
		<-done
	}
}
