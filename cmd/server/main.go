package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/fruit-scanner-be/internal/classifier"
	"github.com/hongminglow/fruit-scanner-be/internal/config"
	"github.com/hongminglow/fruit-scanner-be/internal/detection"
	"github.com/hongminglow/fruit-scanner-be/internal/logging"
	"github.com/hongminglow/fruit-scanner-be/internal/nutrition"
	"github.com/hongminglow/fruit-scanner-be/internal/server"
	"github.com/hongminglow/fruit-scanner-be/internal/uploads"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.LogLevel, cfg.Production())
	if envErr != nil {
		log.Debug("no .env file found; relying on existing environment")
	}

	ctx := context.Background()
	userStore, err := openUserStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("init database")
	}
	defer userStore.Close()

	pipeline, err := buildPipeline(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("init detection pipeline")
	}

	srv := server.New(cfg, userStore, pipeline, log)

	go func() {
		log.WithFields(logrus.Fields{
			"addr":       srv.Addr(),
			"classifier": cfg.Classifier,
			"uploads":    cfg.UploadBackend,
		}).Info("fruit scanner backend listening")
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Warn("graceful shutdown error")
	}
}

func buildPipeline(ctx context.Context, cfg config.Config, log *logrus.Logger) (*detection.Pipeline, error) {
	provider := nutrition.NewUSDAClient(nutrition.USDAConfig{
		BaseURL:    cfg.USDABaseURL,
		APIKey:     cfg.USDAAPIKey,
		Timeout:    cfg.NutritionTimeout,
		MaxRetries: cfg.NutritionRetries,
	}, log)

	opts := []detection.Option{detection.WithMinConfidence(cfg.MinConfidence)}
	archive, err := buildArchive(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if archive != nil {
		opts = append(opts, detection.WithArchive(archive))
	}

	return detection.NewPipeline(buildClassifier(cfg, log), provider, log, opts...), nil
}

func buildClassifier(cfg config.Config, log *logrus.Logger) classifier.Classifier {
	if cfg.Classifier != config.ClassifierRekognition {
		return classifier.Demo{}
	}
	lazy := classifier.NewLazy(classifier.RekognitionLoader(cfg.AWSRegion, cfg.MinConfidence))
	go func() {
		if err := lazy.Warm(context.Background()); err != nil {
			log.WithError(err).Error("warm classifier")
		}
	}()
	return lazy
}

func buildArchive(ctx context.Context, cfg config.Config) (uploads.Archive, error) {
	switch cfg.UploadBackend {
	case config.UploadsDisk:
		return uploads.NewDiskArchive(cfg.UploadDir), nil
	case config.UploadsS3:
		return uploads.NewS3Archive(ctx, uploads.S3Options{
			Region:    cfg.AWSRegion,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3BaseEndpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		return nil, nil
	}
}
