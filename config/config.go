package config

import (
	"time"

	"github.com/caarlos0/env/v9"
)

// Config is the full service configuration, populated from environment variables.
type Config struct {
	Server     ServerConfig
	Logger     LoggerConfig
	WebSocket  WebSocketConfig
	Postgres   PostgresConfig
	Simulation SimulationConfig
}

// ServerConfig is the configuration for the HTTP/WebSocket server.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"8080"`
	Mode string `env:"SERVER_MODE" envDefault:"release"`
}

// LoggerConfig is the configuration for the logger.
type LoggerConfig struct {
	Level        string `env:"LOGGER_LEVEL" envDefault:"info"`
	Mode         string `env:"LOGGER_MODE" envDefault:"production"`
	Encoding     string `env:"LOGGER_ENCODING" envDefault:"json"`
	ColorEnabled bool   `env:"LOGGER_COLOR_ENABLED" envDefault:"false"`
}

// WebSocketConfig is the configuration for WebSocket connections.
type WebSocketConfig struct {
	PingInterval    time.Duration `env:"WS_PING_INTERVAL" envDefault:"30s"`
	PongWait        time.Duration `env:"WS_PONG_WAIT" envDefault:"60s"`
	WriteWait       time.Duration `env:"WS_WRITE_WAIT" envDefault:"10s"`
	MaxMessageSize  int64         `env:"WS_MAX_MESSAGE_SIZE" envDefault:"512"`
	ReadBufferSize  int           `env:"WS_READ_BUFFER_SIZE" envDefault:"1024"`
	WriteBufferSize int           `env:"WS_WRITE_BUFFER_SIZE" envDefault:"1024"`
	SendBufferSize  int           `env:"WS_SEND_BUFFER_SIZE" envDefault:"256"`
}

// PostgresConfig is the configuration for PostgreSQL. When URL is empty the
// service falls back to the in-memory store with demo data.
type PostgresConfig struct {
	URL             string        `env:"DATABASE_URL"`
	ConnectTimeout  time.Duration `env:"DATABASE_CONNECT_TIMEOUT" envDefault:"5s"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"25"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"100"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// SimulationConfig is the configuration for the event simulation scheduler.
type SimulationConfig struct {
	FastInterval   time.Duration `env:"SIM_FAST_INTERVAL" envDefault:"5s"`
	SlowInterval   time.Duration `env:"SIM_SLOW_INTERVAL" envDefault:"10s"`
	DemoDisasterID int           `env:"SIM_DEMO_DISASTER_ID" envDefault:"1"`
	AutoStart      bool          `env:"SIM_AUTO_START" envDefault:"true"`
}

// Load loads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
