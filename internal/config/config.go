package config

import "time"

type Config struct {
	Service  *ServiceConfig
	Postgres *PostgresConfig
	Redis    *RedisConfig
	Auth     *AuthConfig
	Chat     *ChatConfig
	Logger   *LoggerConfig
	Tracer   *TracerConfig
}

type ServiceConfig struct {
	Name string
	Env  string
	Addr string
	// RateLimit is requests per second allowed per client, RateBurst the bucket size.
	RateLimit float64
	RateBurst int
}

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	PingTimeout  time.Duration
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type ChatConfig struct {
	// MaxMessageLength bounds message content in runes.
	MaxMessageLength int
	// PreviewLength bounds the cached last-message preview in runes.
	PreviewLength int
	// PresenceTTL is how long the volatile online marker survives without a refresh.
	PresenceTTL time.Duration
	// HeartbeatInterval is how often a live connection refreshes its marker.
	HeartbeatInterval time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

type TracerConfig struct {
	Enabled bool
	Address string
}
