package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Storage    StorageConfig
	Transcoder TranscoderConfig
	Logging    LoggingConfig
	Tracing    TracingConfig
	RateLimit  RateLimitConfig
	Webhooks   []WebhookEndpoint
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxUploadSize   int64
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	ListTTL  time.Duration
}

// StorageConfig holds local file storage configuration
type StorageConfig struct {
	UploadDir string
	OutputDir string
	PublicURL string // URL prefix under which OutputDir is served
}

// TranscoderConfig holds transcoding configuration
type TranscoderConfig struct {
	FFmpegPath  string
	FFprobePath string
	SegmentTime int // HLS segment duration in seconds
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// TracingConfig holds Jaeger tracing configuration
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
}

// RateLimitConfig holds API rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// WebhookEndpoint is a target for job lifecycle notifications
type WebhookEndpoint struct {
	URL    string
	Secret string
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.readTimeout", "30s")
	viper.SetDefault("server.writeTimeout", "30s")
	viper.SetDefault("server.shutdownTimeout", "10s")
	viper.SetDefault("server.maxUploadSize", 4*1024*1024*1024) // 4GB

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "hlspress")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxConns", 25)
	viper.SetDefault("database.minConns", 5)

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.listTTL", "30s")

	// Storage defaults
	viper.SetDefault("storage.uploadDir", "uploads")
	viper.SetDefault("storage.outputDir", "outputs")
	viper.SetDefault("storage.publicURL", "/outputs")

	// Transcoder defaults
	viper.SetDefault("transcoder.ffmpegPath", "ffmpeg")
	viper.SetDefault("transcoder.ffprobePath", "ffprobe")
	viper.SetDefault("transcoder.segmentTime", 10)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")

	// Tracing defaults
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.serviceName", "hlspress")
	viper.SetDefault("tracing.endpoint", "http://localhost:14268/api/traces")

	// Rate limit defaults
	viper.SetDefault("ratelimit.requestsPerSecond", 5)
	viper.SetDefault("ratelimit.burst", 10)
}
