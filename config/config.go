package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Events   EventsConfig
	Orders   OrdersConfig
	Log      LogConfig

	RateLimitRPS float64
	Seed         bool
}

type ServerConfig struct {
	Port       string
	GinMode    string
	CORSOrigin string
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	JWTSecret string
	JWTTTL    time.Duration
}

type EventsConfig struct {
	RedisURL     string
	RedisChannel string
	KafkaBrokers string
	KafkaTopic   string
}

type OrdersConfig struct {
	StockTrackedCategory string
	StrictTransitions    bool
	TxTimeout            time.Duration
	// LedgerAuditInterval of 0 disables the background ledger audit.
	LedgerAuditInterval  time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("CORS_ORIGIN", "*")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_DSN", "root:@tcp(127.0.0.1:3306)/cafe_pos?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "8h")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_CHANNEL", "cafe:events")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "cafe.events")
	v.SetDefault("STOCK_TRACKED_CATEGORY", "Bebidas")
	v.SetDefault("ORDER_STRICT_TRANSITIONS", true)
	v.SetDefault("TX_TIMEOUT", "5s")
	v.SetDefault("LEDGER_AUDIT_INTERVAL", "5m")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("SEED", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	connMaxLifetime, err := time.ParseDuration(v.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, fmt.Errorf("DB_CONN_MAX_LIFETIME: %w", err)
	}
	jwtTTL, err := time.ParseDuration(v.GetString("JWT_TTL"))
	if err != nil {
		return nil, fmt.Errorf("JWT_TTL: %w", err)
	}
	txTimeout, err := time.ParseDuration(v.GetString("TX_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("TX_TIMEOUT: %w", err)
	}

	auditInterval, err := time.ParseDuration(v.GetString("LEDGER_AUDIT_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("LEDGER_AUDIT_INTERVAL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:       v.GetString("PORT"),
			GinMode:    v.GetString("GIN_MODE"),
			CORSOrigin: v.GetString("CORS_ORIGIN"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			JWTTTL:    jwtTTL,
		},
		Events: EventsConfig{
			RedisURL:     v.GetString("REDIS_URL"),
			RedisChannel: v.GetString("REDIS_CHANNEL"),
			KafkaBrokers: v.GetString("KAFKA_BROKERS"),
			KafkaTopic:   v.GetString("KAFKA_TOPIC"),
		},
		Orders: OrdersConfig{
			StockTrackedCategory: v.GetString("STOCK_TRACKED_CATEGORY"),
			StrictTransitions:    v.GetBool("ORDER_STRICT_TRANSITIONS"),
			TxTimeout:            txTimeout,
			LedgerAuditInterval:  auditInterval,
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		RateLimitRPS: v.GetFloat64("RATE_LIMIT_RPS"),
		Seed:         v.GetBool("SEED"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if c.Orders.TxTimeout <= 0 {
		return fmt.Errorf("TX_TIMEOUT must be positive")
	}
	if c.Server.GinMode == "release" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in release mode")
	}
	return nil
}
