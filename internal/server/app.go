// Package server initializes and runs the application server. It wires the
// storage backends into the program service, starts the HTTP endpoint and
// handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/dmitrijs2005/audioapi/internal/awsx"
	"github.com/dmitrijs2005/audioapi/internal/dynamostore"
	"github.com/dmitrijs2005/audioapi/internal/logging"
	"github.com/dmitrijs2005/audioapi/internal/pgstore"
	"github.com/dmitrijs2005/audioapi/internal/s3store"
	"github.com/dmitrijs2005/audioapi/internal/server/config"
	"github.com/dmitrijs2005/audioapi/internal/server/httpapi"
	"github.com/dmitrijs2005/audioapi/internal/server/programs"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	service *programs.Service
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	awsCfg, err := awsx.Load(ctx, awsx.Settings{
		Region:          c.AWSRegion,
		AccessKeyID:     c.AWSAccessKeyID,
		SecretAccessKey: c.AWSSecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("aws init error: %w", err)
	}

	// In production the adapter builds canonical bucket URLs; any endpoint
	// override only applies against local infrastructure.
	urlEndpoint := ""
	if c.IsDevelopment() {
		urlEndpoint = c.AWSEndpoint
	}

	files, err := s3store.NewRepository(
		awsx.NewS3Client(awsCfg, c.AWSEndpoint), s3store.ResourceRadioPrograms, urlEndpoint, logger)
	if err != nil {
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	repo, err := newMetadataRepository(ctx, c, awsCfg, logger)
	if err != nil {
		return nil, err
	}

	service := programs.NewService(repo, files, logger)

	return &App{config: c, logger: logger, service: service}, nil
}

// newMetadataRepository selects the metadata backend from configuration.
func newMetadataRepository(ctx context.Context, c *config.Config, awsCfg aws.Config, logger logging.Logger) (programs.Repository, error) {
	switch c.MetadataBackend {
	case config.MetadataBackendDynamoDB:
		repo, err := dynamostore.NewRepository(
			awsx.NewDynamoDBClient(awsCfg, c.AWSEndpoint), dynamostore.ModelRadioPrograms, logger)
		if err != nil {
			return nil, fmt.Errorf("metadata store init error: %w", err)
		}
		return repo, nil
	case config.MetadataBackendPostgres:
		db, err := pgstore.Open(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if err := pgstore.RunMigrations(ctx, db); err != nil {
			return nil, fmt.Errorf("db migration error: %w", err)
		}
		return pgstore.NewRepository(db, logger), nil
	default:
		return nil, fmt.Errorf("unknown metadata backend: %q", c.MetadataBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	router := httpapi.NewRouter(httpapi.NewHandler(app.service, app.config.APIVersion, app.logger))
	srv := &http.Server{Addr: app.config.EndpointAddr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server...", "addr", app.config.EndpointAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
}
