package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	LogLevel           string
	AppURL             string
	CORSOrigins        []string
	Auth0Domain        string
	Auth0Audience      string
	StorageRoot        string
	AWSRegion          string
	AWSS3Bucket        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSS3Endpoint      string
	AWSS3PublicURL     string
	Legacy             LegacyImagesConfig
	ReportMaxRows      int
	KafkaBrokers       []string
	KafkaTopic         string
}

// LegacyImagesConfig controls surfacing of photos that exist on disk without an order_images row.
// It is opt-in and always scoped, either by an explicit allow-list or by an id ceiling.
type LegacyImagesConfig struct {
	Enabled    bool
	OrderIDs   []uint
	MaxOrderID uint
	Dir        string
	Limit      int
}

var appConfig *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			// Environment variables set directly by the platform
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	orderIDs, err := parseIDList(getEnv("LEGACY_IMAGES_ORDER_IDS", ""))
	if err != nil {
		return nil, fmt.Errorf("LEGACY_IMAGES_ORDER_IDS: %w", err)
	}

	config := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Port:               getEnv("PORT", "8080"),
		GoEnv:              getEnv("GO_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		AppURL:             strings.TrimRight(getEnv("APP_URL", ""), "/"),
		CORSOrigins:        splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		Auth0Domain:        getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:      getEnv("AUTH0_AUDIENCE", ""),
		StorageRoot:        getEnv("STORAGE_ROOT", "./storage/app/public"),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSS3Endpoint:      getEnv("AWS_S3_ENDPOINT", ""),
		AWSS3PublicURL:     strings.TrimRight(getEnv("AWS_S3_PUBLIC_URL", ""), "/"),
		Legacy: LegacyImagesConfig{
			Enabled:    getEnvBool("LEGACY_IMAGES_ENABLED", false),
			OrderIDs:   orderIDs,
			MaxOrderID: uint(getEnvInt("LEGACY_IMAGES_MAX_ORDER_ID", 0)),
			Dir:        getEnv("LEGACY_IMAGES_DIR", "uploads/orders"),
			Limit:      getEnvInt("LEGACY_IMAGES_LIMIT", 10),
		},
		ReportMaxRows: getEnvInt("REPORT_MAX_ROWS", 5000),
		KafkaBrokers:  splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:    getEnv("KAFKA_TOPIC_ORDER_EVENTS", "order-events"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.ReportMaxRows <= 0 {
		return fmt.Errorf("REPORT_MAX_ROWS must be positive")
	}
	if c.Legacy.Limit < 0 {
		return fmt.Errorf("LEGACY_IMAGES_LIMIT must not be negative")
	}
	return nil
}

// UsesRemoteStorage reports whether uploaded images go to S3 instead of STORAGE_ROOT.
// Decided once from credential presence; callers never choose per request.
func (c *Config) UsesRemoteStorage() bool {
	return c.AWSS3Bucket != "" && c.AWSAccessKeyID != ""
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// GetConfig returns the configuration loaded by Load
func GetConfig() *Config {
	return appConfig
}

// SetConfig replaces the process configuration (primarily for testing)
func SetConfig(cfg *Config) {
	appConfig = cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIDList(raw string) ([]uint, error) {
	var ids []uint
	for _, part := range splitList(raw) {
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid order id %q", part)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
