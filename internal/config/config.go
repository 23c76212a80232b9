package config

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/viper"
)

const defaultConfigPath = "config.yml"

type Config struct {
	Server     ServerConfig
	Auth       AuthConfig
	Metadata   MetadataConfig
	Postgres   DBConfig
	Redis      RedisConfig
	Pebble     PebbleConfig
	Storage    StorageConfig
	S3         S3Config
	GCS        GCSConfig
	Transcoder TranscoderConfig
	Worker     WorkerConfig
	Logger     Logger
}

type ServerConfig struct {
	AppVersion      string
	Port            string
	Mode            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type AuthConfig struct {
	JwtSecretKey   string
	SecretSource   string
	SecretRedisKey string
	SecretTTL      time.Duration
	CookieName     string
}

// MetadataConfig selects the job record store. PartitionKey is the single
// tenant value every record is stored under.
type MetadataConfig struct {
	Driver       string
	PartitionKey string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	PgDriver string
}

type RedisConfig struct {
	RedisAddr     string
	RedisPassword string
	DB            int
	MinIdleConns  int
	PoolSize      int
	PoolTimeout   int
	UseTLS        bool
}

type PebbleConfig struct {
	Dir string
}

type StorageConfig struct {
	Driver        string
	InputBucket   string
	OutputBucket  string
	OutputPrefix  string
	PresignExpire time.Duration
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

type GCSConfig struct {
	CredentialsFile string
	GoogleAccessID  string
	PrivateKeyFile  string
}

type TranscoderConfig struct {
	FFmpegPath  string
	FFprobePath string
	ScratchDir  string
}

type WorkerConfig struct {
	MaxCPUUsage float64
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string
	Level             string
}

// GetConfigPath returns CONFIG_PATH when set, otherwise config.yml.
func GetConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return defaultConfigPath
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", ":5000")
	v.SetDefault("Server.Mode", "Development")
	v.SetDefault("Server.ReadTimeout", 10*time.Second)
	v.SetDefault("Server.WriteTimeout", 0)
	v.SetDefault("Server.ShutdownTimeout", 30*time.Second)
	v.SetDefault("Auth.SecretSource", "static")
	v.SetDefault("Auth.SecretTTL", 5*time.Minute)
	v.SetDefault("Auth.CookieName", "jwt-token")
	v.SetDefault("Metadata.Driver", "postgres")
	v.SetDefault("Metadata.PartitionKey", "video-converter")
	v.SetDefault("Postgres.SSLMode", "require")
	v.SetDefault("Pebble.Dir", "data/jobs")
	v.SetDefault("Storage.Driver", "s3")
	v.SetDefault("Storage.OutputPrefix", "converted")
	v.SetDefault("Storage.PresignExpire", 15*time.Minute)
	v.SetDefault("Transcoder.FFmpegPath", "ffmpeg")
	v.SetDefault("Transcoder.FFprobePath", "ffprobe")
	v.SetDefault("Transcoder.ScratchDir", os.TempDir())
	v.SetDefault("Logger.Encoding", "json")
	v.SetDefault("Logger.Level", "info")
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if c.Metadata.PartitionKey == "" {
		return nil, errors.New("metadata partition key must not be empty")
	}
	return &c, nil
}
