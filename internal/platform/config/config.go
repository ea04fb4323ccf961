// Package config builds runtime configuration from the environment so
// main stays lean.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string `env:"CEDENT_ADDR" envDefault:":8080"`
	JWTSigningKey string `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`

	// PostgresDSN selects the persistent stores; empty means in-memory.
	PostgresDSN string `env:"CEDENT_POSTGRES_DSN"`

	Redis RedisConfig      `envPrefix:"CEDENT_REDIS_"`
	Kafka KafkaConfig      `envPrefix:"CEDENT_KAFKA_"`
	Audit AuditConfig      `envPrefix:"CEDENT_AUDIT_"`
	HTTP  HTTPServerConfig `envPrefix:"CEDENT_HTTP_"`
}

// RedisConfig configures the optional treaty cache.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
	TreatyTTL    time.Duration `env:"TREATY_TTL" envDefault:"5m"`
}

// KafkaConfig configures the optional audit event sink.
type KafkaConfig struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"audit.events"`
}

// AuditConfig tunes audit delivery.
type AuditConfig struct {
	AsyncBuffer int `env:"ASYNC_BUFFER" envDefault:"256"`
}

// HTTPServerConfig tunes request handling limits.
type HTTPServerConfig struct {
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" envDefault:"1m"`
}

// FromEnv parses configuration from environment variables.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, err
	}
	return cfg, nil
}
