package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/amankumarsingh77/cloud-video-converter/internal/jobs"
	jobsHttp "github.com/amankumarsingh77/cloud-video-converter/internal/jobs/delivery/http"
	jobsRepository "github.com/amankumarsingh77/cloud-video-converter/internal/jobs/repository"
	jobsUsecase "github.com/amankumarsingh77/cloud-video-converter/internal/jobs/usecase"
	"github.com/amankumarsingh77/cloud-video-converter/internal/middleware"
	"github.com/amankumarsingh77/cloud-video-converter/internal/worker"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/db/gcs"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/secrets"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/utils"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) MapHandlers(e *echo.Echo) error {
	jobRepo, err := s.jobRepository()
	if err != nil {
		return err
	}
	artifactRepo, err := s.artifactRepository()
	if err != nil {
		return err
	}
	secretCache, err := s.secretCache()
	if err != nil {
		return err
	}

	transcoder := worker.NewTranscoder(s.cfg, s.logger)
	prober := worker.NewProber(s.cfg)
	s.jobsUC = jobsUsecase.NewJobsUseCase(s.cfg, jobRepo, artifactRepo, transcoder, prober, s.logger)
	jobsHandlers := jobsHttp.NewJobsHandler(s.jobsUC, s.logger)

	mw := middleware.NewMiddlewareManager(s.cfg, secretCache, []string{"*"}, s.logger)
	s.useCommonMiddleware(mw.Origins())
	e.Use(mw.RequestLoggerMiddleware)

	v1 := e.Group("/api/v1")
	health := v1.Group("/health")
	jobsGroup := v1.Group("/jobs")

	jobsHttp.MapJobRoutes(jobsGroup, jobsHandlers, mw)
	health.GET("", func(c echo.Context) error {
		ok, usage := utils.CheckCPUUsage(s.cfg.Worker.MaxCPUUsage)
		s.logger.Infof("Health check RequestID: %s", utils.GetRequestID(c))
		status := "OK"
		if !ok {
			status = "BUSY"
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"status": status, "cpu_usage": usage})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return nil
}

func (s *Server) jobRepository() (jobs.Repository, error) {
	partition := s.cfg.Metadata.PartitionKey
	switch strings.ToLower(s.cfg.Metadata.Driver) {
	case "postgres", "":
		if s.clients.DB == nil {
			return nil, fmt.Errorf("metadata driver postgres selected but no database connection")
		}
		return jobsRepository.NewPgRepository(s.clients.DB, partition), nil
	case "redis":
		if s.clients.RedisClient == nil {
			return nil, fmt.Errorf("metadata driver redis selected but no redis client")
		}
		return jobsRepository.NewRedisRepository(s.clients.RedisClient, partition), nil
	case "pebble":
		if s.clients.PebbleDB == nil {
			return nil, fmt.Errorf("metadata driver pebble selected but no pebble store")
		}
		return jobsRepository.NewPebbleRepository(s.clients.PebbleDB, partition), nil
	default:
		return nil, fmt.Errorf("unknown metadata driver %q", s.cfg.Metadata.Driver)
	}
}

func (s *Server) artifactRepository() (jobs.ArtifactRepository, error) {
	switch strings.ToLower(s.cfg.Storage.Driver) {
	case "s3", "":
		if s.clients.S3Client == nil || s.clients.PreSignClient == nil {
			return nil, fmt.Errorf("storage driver s3 selected but no s3 client")
		}
		return jobsRepository.NewAwsRepository(s.clients.S3Client, s.clients.PreSignClient), nil
	case "gcs":
		if s.clients.GCSClient == nil {
			return nil, fmt.Errorf("storage driver gcs selected but no gcs client")
		}
		key, err := gcs.LoadPrivateKey(s.cfg.GCS.PrivateKeyFile)
		if err != nil {
			return nil, err
		}
		return jobsRepository.NewGcsRepository(s.clients.GCSClient, s.cfg.GCS.GoogleAccessID, key), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", s.cfg.Storage.Driver)
	}
}

func (s *Server) secretCache() (*secrets.Cache, error) {
	var source secrets.Source
	switch strings.ToLower(s.cfg.Auth.SecretSource) {
	case "static", "":
		source = secrets.StaticSource(s.cfg.Auth.JwtSecretKey)
	case "redis":
		if s.clients.RedisClient == nil {
			return nil, fmt.Errorf("secret source redis selected but no redis client")
		}
		source = secrets.NewRedisSource(s.clients.RedisClient, s.cfg.Auth.SecretRedisKey)
	default:
		return nil, fmt.Errorf("unknown secret source %q", s.cfg.Auth.SecretSource)
	}

	cache := secrets.NewCache(source, s.cfg.Auth.SecretTTL)
	if _, err := cache.Get(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to load jwt signing secret: %w", err)
	}
	return cache, nil
}
