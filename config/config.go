package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Slow consumer policies for live subscriptions.
const (
	PolicyDropOldest = "drop-oldest"
	PolicyDropNewest = "drop-newest"
	PolicyDisconnect = "disconnect"
)

// Broker kinds used to relay bus events between nodes.
const (
	BrokerNone  = "none"
	BrokerRedis = "redis"
	BrokerNATS  = "nats"
)

// Push senders.
const (
	PushSenderLog   = "log"
	PushSenderKafka = "kafka"
)

type Config struct {
	AppPort    string
	AppMode    string
	LogMode    string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	JWTSecret  string

	NotificationPageSize int
	NotificationMaxPage  int
	MessagePageSize      int
	FollowerLimit        int

	Bus    BusConfig
	Broker BrokerConfig
	Push   PushConfig
}

type BusConfig struct {
	BufferSize       int
	SlowConsumerMode string
}

type BrokerConfig struct {
	Kind          string
	Subject       string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	NATSURL       string
}

type PushConfig struct {
	Sender       string
	Workers      int
	QueueSize    int
	KafkaBrokers []string
	KafkaTopic   string
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),
		AppMode:    getEnv("APP_MODE", "debug"),
		LogMode:    getEnv("LOG_MODE", "development"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "chitchat"),
		DBPort:     getEnv("DB_PORT", "5432"),
		JWTSecret:  getEnv("JWT_SECRET", "change-me"),

		NotificationPageSize: getEnvAsInt("NOTIFICATION_PAGE_SIZE", 15),
		NotificationMaxPage:  getEnvAsInt("NOTIFICATION_MAX_PAGE", 1000),
		MessagePageSize:      getEnvAsInt("MESSAGE_PAGE_SIZE", 30),
		FollowerLimit:        getEnvAsInt("FOLLOWER_LIMIT", 100),

		Bus: BusConfig{
			BufferSize:       getEnvAsInt("BUS_BUFFER_SIZE", 64),
			SlowConsumerMode: getEnv("BUS_SLOW_CONSUMER_POLICY", PolicyDropOldest),
		},
		Broker: BrokerConfig{
			Kind:          getEnv("BROKER", BrokerNone),
			Subject:       getEnv("BROKER_SUBJECT", "chitchat.events"),
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			NATSURL:       getEnv("NATS_URL", "nats://127.0.0.1:4222"),
		},
		Push: PushConfig{
			Sender:       getEnv("PUSH_SENDER", PushSenderLog),
			Workers:      getEnvAsInt("PUSH_WORKERS", 2),
			QueueSize:    getEnvAsInt("PUSH_QUEUE_SIZE", 256),
			KafkaBrokers: getEnvAsList("KAFKA_BROKERS", "localhost:9092"),
			KafkaTopic:   getEnv("KAFKA_PUSH_TOPIC", "chitchat.push"),
		},
	}
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	switch c.Bus.SlowConsumerMode {
	case PolicyDropOldest, PolicyDropNewest, PolicyDisconnect:
	default:
		return fmt.Errorf("unknown BUS_SLOW_CONSUMER_POLICY %q", c.Bus.SlowConsumerMode)
	}
	switch c.Broker.Kind {
	case BrokerNone, BrokerRedis, BrokerNATS:
	default:
		return fmt.Errorf("unknown BROKER %q", c.Broker.Kind)
	}
	switch c.Push.Sender {
	case PushSenderLog, PushSenderKafka:
	default:
		return fmt.Errorf("unknown PUSH_SENDER %q", c.Push.Sender)
	}
	if c.Bus.BufferSize < 1 {
		return fmt.Errorf("BUS_BUFFER_SIZE must be positive, got %d", c.Bus.BufferSize)
	}
	if c.NotificationPageSize < 1 || c.MessagePageSize < 1 {
		return fmt.Errorf("page sizes must be positive")
	}
	return nil
}

// DSN returns the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// MigrationURL returns the postgres URL form used by the migrator.
func (c *Config) MigrationURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key, fallback string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, fallback), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
