package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Storage  StorageConfig  `yaml:"storage"`
	Settings SettingsConfig `yaml:"settings"`
	Import   ImportConfig   `yaml:"import"`
	Deletion DeletionConfig `yaml:"deletion"`
	Vendors  VendorsConfig  `yaml:"vendors"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address     string   `yaml:"address"`
	SwaggerDir  string   `yaml:"swagger_dir"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "memory".
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	EventsTopic        string   `yaml:"events_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type StorageConfig struct {
	// Driver is "local" or "s3".
	Driver      string   `yaml:"driver"`
	LocalDir    string   `yaml:"local_dir"`
	S3          S3Config `yaml:"s3"`
	MaxDocument int64    `yaml:"max_document_bytes"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

type SettingsConfig struct {
	Path   string `yaml:"path"`
	Locale string `yaml:"locale"`
}

type ImportConfig struct {
	SessionTTLMinutes     int `yaml:"session_ttl_minutes"`
	GroupsCacheTTLSeconds int `yaml:"groups_cache_ttl_seconds"`
}

type DeletionConfig struct {
	ConfirmationTTLMinutes int `yaml:"confirmation_ttl_minutes"`
}

type VendorsConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	DBEndpoint     string `yaml:"db_endpoint"`
	SNCFEndpoint   string `yaml:"sncf_endpoint"`
}

type WorkerConfig struct {
	ExpirationSweepMinutes int `yaml:"expiration_sweep_minutes"`
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Import.SessionTTLMinutes) * time.Minute
}

func (c *Config) GroupsCacheTTL() time.Duration {
	return time.Duration(c.Import.GroupsCacheTTLSeconds) * time.Second
}

func (c *Config) ConfirmationTTL() time.Duration {
	return time.Duration(c.Deletion.ConfirmationTTLMinutes) * time.Minute
}

func (c *Config) VendorTimeout() time.Duration {
	return time.Duration(c.Vendors.TimeoutSeconds) * time.Second
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Worker.ExpirationSweepMinutes) * time.Minute
}

// LoadConfig reads the YAML file at path. Values from the environment (and a .env file, if present) override it.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		HTTP:     HTTPConfig{Address: ":8080"},
		GRPC:     GRPCConfig{Address: ":9090"},
		Log:      LogConfig{Level: "info", Format: "json"},
		Database: DatabaseConfig{Driver: "postgres", Port: 5432, SSLMode: "disable"},
		Kafka: KafkaConfig{
			EventsTopic:        "itinerary.events",
			NotificationsTopic: "itinerary.notifications",
			GroupID:            "itinerary-worker",
		},
		Storage:  StorageConfig{Driver: "local", LocalDir: "data/documents", MaxDocument: 10 << 20},
		Settings: SettingsConfig{Path: "data/settings.db", Locale: "en_US"},
		Import:   ImportConfig{SessionTTLMinutes: 30, GroupsCacheTTLSeconds: 60},
		Deletion: DeletionConfig{ConfirmationTTLMinutes: 10},
		Vendors:  VendorsConfig{TimeoutSeconds: 30},
		Worker:   WorkerConfig{ExpirationSweepMinutes: 1},
	}
}

func (c *Config) applyEnv() {
	c.Database.Host = getEnv("DATABASE_HOST", c.Database.Host)
	c.Database.Password = getEnv("DATABASE_PASSWORD", c.Database.Password)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Kafka.Brokers = getEnvAsSlice("KAFKA_BROKERS", c.Kafka.Brokers)
	c.Storage.S3.AccessKey = getEnv("S3_ACCESS_KEY", c.Storage.S3.AccessKey)
	c.Storage.S3.SecretKey = getEnv("S3_SECRET_KEY", c.Storage.S3.SecretKey)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Worker.ExpirationSweepMinutes = getEnvAsInt("WORKER_SWEEP_MINUTES", c.Worker.ExpirationSweepMinutes)
}

func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address is required")
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Name == "" {
			return errors.New("database.name is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "local", "s3":
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Worker.ExpirationSweepMinutes <= 0 {
		return errors.New("worker.expiration_sweep_minutes must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
