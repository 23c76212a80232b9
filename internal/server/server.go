package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/storage"
	"github.com/amankumarsingh77/cloud-video-converter/internal/config"
	"github.com/amankumarsingh77/cloud-video-converter/internal/jobs"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/pebble"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const maxHeaderBytes = 1 << 20

// Clients carries the connections opened by main. Only the ones selected by
// the configured drivers need to be set.
type Clients struct {
	DB            *sqlx.DB
	RedisClient   *redis.Client
	PebbleDB      *pebble.DB
	S3Client      *s3.Client
	PreSignClient *s3.PresignClient
	GCSClient     *storage.Client
}

type Server struct {
	echo    *echo.Echo
	cfg     *config.Config
	clients Clients
	jobsUC  jobs.UseCase
	logger  logger.Logger
}

func NewServer(cfg *config.Config, clients Clients, logger logger.Logger) *Server {
	return &Server{
		echo:    echo.New(),
		cfg:     cfg,
		clients: clients,
		logger:  logger,
	}
}

func (s *Server) Run() error {
	if err := s.MapHandlers(s.echo); err != nil {
		return err
	}
	s.echo.HideBanner = true
	s.echo.Server.MaxHeaderBytes = maxHeaderBytes
	server := &http.Server{
		Addr:           s.cfg.Server.Port,
		ReadTimeout:    s.cfg.Server.ReadTimeout,
		WriteTimeout:   s.cfg.Server.WriteTimeout,
		MaxHeaderBytes: maxHeaderBytes,
	}
	go func() {
		s.logger.Infof("Server is listening on PORT: %s", s.cfg.Server.Port)
		if err := s.echo.StartServer(server); err != nil && err != http.ErrServerClosed {
			s.logger.Fatalf("Error starting Server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, os.Interrupt)
	<-quit

	ctx, shutdown := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer shutdown()
	s.logger.Infof("shutting down server")
	if err := s.echo.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Infof("waiting for running pipelines")
	return s.jobsUC.Wait(ctx)
}

func (s *Server) useCommonMiddleware(origins []string) {
	s.echo.Use(middleware.RequestID())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}
