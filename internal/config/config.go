package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Engine   EngineConfig
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Port int
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds the Redis configuration (submission rate limiter)
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// AuthConfig holds the authentication configuration
type AuthConfig struct {
	JWTSecret string
}

// EngineConfig holds the idea engine policy knobs. All limits are enforced
// by the engine; none are hard-coded in the business logic.
type EngineConfig struct {
	TitleMaxLen       int
	DescriptionMaxLen int
	ContentMaxLen     int

	// DailyVoteQuota is the maximum total vote weight a user may spend per
	// UTC calendar day.
	DailyVoteQuota int

	// SubmissionLimit ideas per SubmissionWindow per author.
	SubmissionLimit  int
	SubmissionWindow time.Duration

	// ReconcileInterval is how often the vote-count audit runs. Zero
	// disables the reconciler.
	ReconcileInterval time.Duration

	// ProjectServiceURL is the base URL of the project-creation service an
	// adopted idea is handed off to.
	ProjectServiceURL     string
	ProjectServiceTimeout time.Duration
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.DBName, c.SSLMode,
	)
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Username: getEnv("DB_USERNAME", "postgres"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "ideahub"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "your-secret-key-here"),
		},
		Engine: EngineConfig{
			TitleMaxLen:           getEnvAsInt("IDEA_TITLE_MAX_LEN", 200),
			DescriptionMaxLen:     getEnvAsInt("IDEA_DESCRIPTION_MAX_LEN", 1000),
			ContentMaxLen:         getEnvAsInt("IDEA_CONTENT_MAX_LEN", 10000),
			DailyVoteQuota:        getEnvAsInt("DAILY_VOTE_QUOTA", 10),
			SubmissionLimit:       getEnvAsInt("SUBMISSION_LIMIT", 5),
			SubmissionWindow:      getEnvAsDuration("SUBMISSION_WINDOW", time.Hour),
			ReconcileInterval:     getEnvAsDuration("RECONCILE_INTERVAL", 15*time.Minute),
			ProjectServiceURL:     getEnv("PROJECT_SERVICE_URL", "http://localhost:8081"),
			ProjectServiceTimeout: getEnvAsDuration("PROJECT_SERVICE_TIMEOUT", 10*time.Second),
		},
	}
}

// Helper functions to read environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
