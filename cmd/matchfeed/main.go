// Main package for the matchfeed overlay feed client: connects to a
// tournament telemetry feed and turns it into paced UI-mutation updates.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/overlaykit/matchfeed/pkg/connection"
	"github.com/overlaykit/matchfeed/pkg/pipeline"
)

func main() {
	godotenv.Load()

	logger := zap.Must(zap.NewProduction())
	if os.Getenv("APP_ENV") != "production" {
		logger = zap.Must(zap.NewDevelopment())
	}
	defer logger.Sync()

	feedUrl := flag.String("url", os.Getenv("MATCHFEED_URL"), "WebSocket endpoint of the telemetry feed")
	token := flag.String("token", os.Getenv("MATCHFEED_TOKEN"), "Credential sent on connect")
	flag.Parse()

	if *feedUrl == "" {
		logger.Fatal("No feed URL configured (use -url or MATCHFEED_URL)")
	}

	manager, err := connection.CreateManager(connection.ManagerParams{
		Url:    *feedUrl,
		Token:  *token,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("Failed to create connection manager", zap.Error(err))
	}

	feed, err := pipeline.CreatePipeline(pipeline.PipelineParams{
		Manager: manager,
		Sink:    &loggingSink{log: logger.With(zap.String("component", "RendererSink"))},
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("Failed to create pipeline", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		if err := feed.Close(); err != nil {
			logger.Warn("Error during shutdown", zap.Error(err))
		}
	}()

	if err := feed.Run(ctx); err != nil {
		logger.Error("Pipeline exited with error", zap.Error(err))
	}

	logger.Info("Exiting gracefully")
}
