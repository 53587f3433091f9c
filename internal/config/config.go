package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Kafka    KafkaConfig
	Order    OrderConfig
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type KafkaConfig struct {
	Brokers      []string
	InboundTopic string
	GroupID      string
}

// Enabled is false when no brokers are configured; the service then runs
// without the inbound consumer and publishes nowhere.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type OrderConfig struct {
	MaxRetryAttempts   int
	RetryBaseBackoff   time.Duration
	TransactionTimeout time.Duration
}

// Load reads configuration from the environment. When CONFIG_FILE points to
// a YAML file its keys (same names as the env vars, lower-cased) are read
// first and environment variables take precedence.
func Load() (*Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "orders")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "orders")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_INBOUND_TOPIC", "order.queue")
	v.SetDefault("KAFKA_GROUP_ID", "order-pipeline")
	v.SetDefault("ORDER_MAX_RETRY_ATTEMPTS", 3)
	v.SetDefault("ORDER_RETRY_BASE_BACKOFF", "1s")
	v.SetDefault("ORDER_TX_TIMEOUT", "10s")

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	durations := map[string]time.Duration{}
	for _, key := range []string{
		"SERVER_READ_TIMEOUT",
		"SERVER_WRITE_TIMEOUT",
		"SERVER_SHUTDOWN_TIMEOUT",
		"DB_CONN_MAX_LIFETIME",
		"ORDER_RETRY_BASE_BACKOFF",
		"ORDER_TX_TIMEOUT",
	} {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		durations[key] = d
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("SERVER_PORT"),
			ReadTimeout:     durations["SERVER_READ_TIMEOUT"],
			WriteTimeout:    durations["SERVER_WRITE_TIMEOUT"],
			ShutdownTimeout: durations["SERVER_SHUTDOWN_TIMEOUT"],
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: durations["DB_CONN_MAX_LIFETIME"],
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Kafka: KafkaConfig{
			Brokers:      splitBrokers(v.GetString("KAFKA_BROKERS")),
			InboundTopic: v.GetString("KAFKA_INBOUND_TOPIC"),
			GroupID:      v.GetString("KAFKA_GROUP_ID"),
		},
		Order: OrderConfig{
			MaxRetryAttempts:   v.GetInt("ORDER_MAX_RETRY_ATTEMPTS"),
			RetryBaseBackoff:   durations["ORDER_RETRY_BASE_BACKOFF"],
			TransactionTimeout: durations["ORDER_TX_TIMEOUT"],
		},
	}

	return cfg, nil
}

func splitBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
