package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Redis     RedisConfig
	Chain     ChainConfig
	S3        S3Config
	Sync      SyncConfig
	RateLimit RateLimitConfig
	Rewards   RewardsConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
	LogFormat   string
	TLSDomains  []string // served over ACME certificates when set
	TLSCacheDir string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
	NonceExpiry       time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// ChainConfig describes the LocalBasePayment deployment on Base Sepolia.
type ChainConfig struct {
	UseRealContract bool
	ContractAddress string
	RPCURL          string
	ChainID         int64
	OperatorKey     string // hex private key used to relay writes; empty disables relaying
	CallTimeout     time.Duration
	ReceiptTimeout  time.Duration
	MockLatency     time.Duration
	ViewRetries     int
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type SyncConfig struct {
	Schedule      string // cron expression for the chain reconciliation job
	CacheTTL      time.Duration
	PendingMaxAge time.Duration
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type RewardsConfig struct {
	Cooldown time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogFormat:   getEnv("LOG_FORMAT", "console"),
			TLSDomains:  parseSlice(getEnv("TLS_DOMAINS", "")),
			TLSCacheDir: getEnv("TLS_CACHE_DIR", "certs"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "localbase"),
			Password: getEnv("DB_PASSWORD", "localbase"),
			DBName:   getEnv("DB_NAME", "localbase"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry: parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "24h"), 24*time.Hour),
			NonceExpiry:       parseDuration(getEnv("AUTH_NONCE_EXPIRY", "5m"), 5*time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Redis: RedisConfig{
			Enabled:  parseBool(getEnv("REDIS_ENABLED", "true")),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		Chain: ChainConfig{
			UseRealContract: parseBool(getEnv("CHAIN_USE_REAL_CONTRACT", "false")),
			ContractAddress: getEnv("CHAIN_CONTRACT_ADDRESS", "0xf80B102B28D174b1B90B15a8c496903Aa589e181"),
			RPCURL:          getEnv("CHAIN_RPC_URL", "https://sepolia.base.org"),
			ChainID:         int64(parseInt(getEnv("CHAIN_ID", "84532"), 84532)),
			OperatorKey:     getEnv("CHAIN_OPERATOR_KEY", ""),
			CallTimeout:     parseDuration(getEnv("CHAIN_CALL_TIMEOUT", "10s"), 10*time.Second),
			ReceiptTimeout:  parseDuration(getEnv("CHAIN_RECEIPT_TIMEOUT", "2m"), 2*time.Minute),
			MockLatency:     parseDuration(getEnv("CHAIN_MOCK_LATENCY", "2s"), 2*time.Second),
			ViewRetries:     parseInt(getEnv("CHAIN_VIEW_RETRIES", "3"), 3),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", "localbase-uploads"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Sync: SyncConfig{
			Schedule:      getEnv("SYNC_SCHEDULE", "@every 30s"),
			CacheTTL:      parseDuration(getEnv("SYNC_CACHE_TTL", "30s"), 30*time.Second),
			PendingMaxAge: parseDuration(getEnv("SYNC_PENDING_MAX_AGE", "30m"), 30*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: parseFloat(getEnv("RATE_LIMIT_RPS", "5"), 5),
			Burst:             parseInt(getEnv("RATE_LIMIT_BURST", "20"), 20),
		},
		Rewards: RewardsConfig{
			Cooldown: parseDuration(getEnv("REWARD_COOLDOWN", "24h"), 24*time.Hour),
		},
	}

	if config.Chain.ChainID <= 0 {
		return nil, fmt.Errorf("invalid CHAIN_ID %d", config.Chain.ChainID)
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return v
}

func parseFloat(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		log.Printf("Invalid number %s, using default %v", s, fallback)
		return fallback
	}
	return v
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return v
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
