package config

import (
	"fmt"
	"os"
	"strconv"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StorageBadger   = "badger"
	StorageDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	EventBusName  string
	EventSource   string

	// Storage
	StorageBackend string
	BadgerPath     string

	// Lambda configuration
	IsLambda bool

	// Logging
	LogLevel string

	// Authentication
	JWTSecret string
	JWTIssuer string

	// Board content
	BoardWidth         float64
	BoardHeight        float64
	EffectNodesPerEdge int
	BranchSections     int
	DefinitionPath     string
	CatalogPath        string
	WatchContent       bool
	BoardCacheSize     int

	// Gameplay
	StartingPoints  int
	UnlimitedPoints bool
	MaxPages        int
	MinAffixes      int
	MaxAffixes      int
	RandomSeed      int64

	// Rate limiting
	RateLimitPerMinute int

	// Feature flags
	EnableMetrics  bool
	EnableTracing  bool
	EnableCORS     bool
	EnableEvents   bool
	TracingAddress string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "warrantboard")),
		EventBusName:  getEnv("EVENT_BUS_NAME", "warrantboard-events"),
		EventSource:   getEnv("EVENT_SOURCE", "warrantboard.session"),

		StorageBackend: getEnv("STORAGE_BACKEND", StorageMemory),
		BadgerPath:     getEnv("BADGER_PATH", "./data/badger"),

		IsLambda: getEnvBool("IS_LAMBDA", false),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "warrantboard"),

		BoardWidth:         getEnvFloat("BOARD_WIDTH", 800),
		BoardHeight:        getEnvFloat("BOARD_HEIGHT", 600),
		EffectNodesPerEdge: getEnvInt("EFFECT_NODES_PER_EDGE", 2),
		BranchSections:     getEnvInt("BRANCH_SECTIONS", 2),
		DefinitionPath:     getEnv("BOARD_DEFINITION_PATH", ""),
		CatalogPath:        getEnv("AFFIX_CATALOG_PATH", ""),
		WatchContent:       getEnvBool("WATCH_CONTENT", false),
		BoardCacheSize:     getEnvInt("BOARD_CACHE_SIZE", 16),

		StartingPoints:  getEnvInt("STARTING_POINTS", 20),
		UnlimitedPoints: getEnvBool("UNLIMITED_POINTS", false),
		MaxPages:        getEnvInt("MAX_PAGES", 5),
		MinAffixes:      getEnvInt("MIN_AFFIXES", 1),
		MaxAffixes:      getEnvInt("MAX_AFFIXES", 3),
		RandomSeed:      int64(getEnvInt("RANDOM_SEED", 0)),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		EnableMetrics:  getEnvBool("ENABLE_METRICS", true),
		EnableTracing:  getEnvBool("ENABLE_TRACING", false),
		EnableCORS:     getEnvBool("ENABLE_CORS", true),
		EnableEvents:   getEnvBool("ENABLE_EVENTS", false),
		TracingAddress: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageMemory, StorageBadger, StorageDynamoDB:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.StorageBackend == StorageBadger && c.BadgerPath == "" {
		return fmt.Errorf("BADGER_PATH is required for the badger backend")
	}
	if c.StorageBackend == StorageDynamoDB && c.DynamoDBTable == "" {
		return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb backend")
	}
	if c.MinAffixes < 0 || c.MaxAffixes < c.MinAffixes {
		return fmt.Errorf("invalid affix bounds %d..%d", c.MinAffixes, c.MaxAffixes)
	}
	if c.BoardCacheSize <= 0 {
		return fmt.Errorf("BOARD_CACHE_SIZE must be positive")
	}

	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.UnlimitedPoints {
			return fmt.Errorf("UNLIMITED_POINTS cannot be enabled in production")
		}
		if c.EnableEvents && c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
