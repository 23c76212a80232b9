package main

import (
	"context"
	"log"
	"strings"

	"github.com/amankumarsingh77/cloud-video-converter/internal/config"
	"github.com/amankumarsingh77/cloud-video-converter/internal/server"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/db/aws"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/db/gcs"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/db/pebble"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/db/postgres"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/db/redis"
	"github.com/amankumarsingh77/cloud-video-converter/pkg/logger"
	"github.com/joho/godotenv"
)

func main() {
	log.Println("Starting server")
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfgFile, err := config.LoadConfig(config.GetConfigPath())
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}
	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s, Metadata: %s, Storage: %s",
		cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode, cfg.Metadata.Driver, cfg.Storage.Driver)

	var clients server.Clients
	metadataDriver := strings.ToLower(cfg.Metadata.Driver)

	switch metadataDriver {
	case "postgres", "":
		clients.DB, err = postgres.NewPsqlDB(cfg)
		if err != nil {
			appLogger.Fatalf("could not connect to db: %s", err)
		}
		appLogger.Infof("db connected, status: %#v", clients.DB.Stats())
		defer clients.DB.Close()
	case "pebble":
		clients.PebbleDB, err = pebble.NewPebbleDB(cfg)
		if err != nil {
			appLogger.Fatalf("could not open pebble store: %s", err)
		}
		appLogger.Infof("pebble store opened at %s", cfg.Pebble.Dir)
		defer clients.PebbleDB.Close()
	}

	if metadataDriver == "redis" || strings.EqualFold(cfg.Auth.SecretSource, "redis") {
		clients.RedisClient, err = redis.NewRedisClient(cfg)
		if err != nil {
			appLogger.Fatalf("could not connect to redis: %s", err)
		}
		appLogger.Infof("redis connected")
		defer clients.RedisClient.Close()
	}

	if strings.EqualFold(cfg.Storage.Driver, "gcs") {
		clients.GCSClient, err = gcs.NewGCSClient(context.Background(), cfg)
		if err != nil {
			appLogger.Fatalf("could not connect to gcs: %s", err)
		}
		defer clients.GCSClient.Close()
	} else {
		clients.S3Client, clients.PreSignClient, err = aws.NewAWSClient(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey)
		if err != nil {
			appLogger.Fatalf("could not connect to s3: %s", err)
		}
	}

	s := server.NewServer(cfg, clients, appLogger)
	if err = s.Run(); err != nil {
		appLogger.Errorf("server stopped: %s", err)
	}
}
