package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	GatewayBaseURL   string  `env:"GATEWAY_BASE_URL" envDefault:"http://mock-gateway:8081"`
	GatewayTimeoutMS int     `env:"GATEWAY_TIMEOUT_MS" envDefault:"5000"`
	ServiceFeePct    float64 `env:"SERVICE_FEE_PCT" envDefault:"0.05"`

	ReminderLeadM      int `env:"REMINDER_LEAD_M" envDefault:"60"`
	DispatchIntervalMS int `env:"DISPATCH_INTERVAL_MS" envDefault:"1000"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.GatewayTimeoutMS) * time.Millisecond
}

func (c *Config) ReminderLead() time.Duration {
	return time.Duration(c.ReminderLeadM) * time.Minute
}

func (c *Config) DispatchInterval() time.Duration {
	return time.Duration(c.DispatchIntervalMS) * time.Millisecond
}
