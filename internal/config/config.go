package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Broker    BrokerConfig
	Simulator SimulatorConfig
	Log       LogConfig
	Auth      AuthConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds the quote cache configuration. An empty Addr
// disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	QuoteTTL int // seconds
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers    []string
	TradeTopic string
	EventTopic string
	GroupID    string
}

// BrokerConfig holds the live broker API configuration plus the seed
// credentials handed to the secret provider at startup.
type BrokerConfig struct {
	BaseURL    string
	APIKey     string
	ClientCode string
	MPin       string
	TotpSecret string
}

// SimulatorConfig holds the synthetic price tape configuration.
type SimulatorConfig struct {
	TickSchedule string // cron spec for the price tick job
	MinPctBps    int    // minimum tick magnitude, basis points
	MaxPctBps    int    // maximum tick magnitude, basis points
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Pretty bool
}

// AuthConfig holds the identity and cron-job secrets.
type AuthConfig struct {
	CronSecret string
	DevMode    bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "propdesk"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			QuoteTTL: getEnvInt("REDIS_QUOTE_TTL_SECONDS", 5),
		},
		Kafka: KafkaConfig{
			Brokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TradeTopic: getEnv("KAFKA_TRADE_TOPIC", "trade-events"),
			EventTopic: getEnv("KAFKA_EVENT_TOPIC", "challenge-events"),
			GroupID:    getEnv("KAFKA_GROUP_ID", "propdesk-summary"),
		},
		Broker: BrokerConfig{
			BaseURL:    getEnv("BROKER_BASE_URL", "https://apiconnect.angelone.in"),
			APIKey:     getEnv("BROKER_API_KEY", ""),
			ClientCode: getEnv("BROKER_CLIENT_CODE", ""),
			MPin:       getEnv("BROKER_MPIN", ""),
			TotpSecret: getEnv("BROKER_TOTP_SECRET", ""),
		},
		Simulator: SimulatorConfig{
			TickSchedule: getEnv("SIM_TICK_SCHEDULE", "@every 1m"),
			MinPctBps:    getEnvInt("SIM_MIN_PCT_BPS", 50),
			MaxPctBps:    getEnvInt("SIM_MAX_PCT_BPS", 200),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvBool("LOG_PRETTY", false),
		},
		Auth: AuthConfig{
			CronSecret: getEnv("CRON_SECRET", ""),
			DevMode:    getEnvBool("DEV_MODE", false),
		},
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
