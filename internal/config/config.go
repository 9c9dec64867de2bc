package config

import (
	"os"
	"strconv"
)

type GameServiceConfig struct {
	Port        string
	StorageMode string // "postgres" or "memory"
	LockMode    string // "local" or "redis"
	PostgresCfg PostgresConfig
	RedisCfg    RedisConfig
	RabbitMQCfg RabbitMQConfig
	EconomyCfg  EconomyConfig
	LogDir      string
}

type PostgresConfig struct {
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
}

type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	LockTTLSeconds int
}

type RabbitMQConfig struct {
	Enabled  bool
	Host     string
	Username string
	Password string
	Port     string
}

type EconomyConfig struct {
	StartingGold         int64
	StartingGems         int64
	SpeedUpGemsPerMinute int64
	AggregateMaxRetries  int
}

const (
	StorageModePostgres = "postgres"
	StorageModeMemory   = "memory"
	LockModeLocal       = "local"
	LockModeRedis       = "redis"
)

func New() *GameServiceConfig {
	return &GameServiceConfig{
		Port:        getEnvOrDefault("GAME_SERVICE_PORT", "8090"),
		StorageMode: getEnvOrDefault("STORAGE_MODE", StorageModePostgres),
		LockMode:    getEnvOrDefault("LOCK_MODE", LockModeLocal),
		LogDir:      getEnvOrDefault("LOG_DIR", "/game/log/game_service"),
		PostgresCfg: PostgresConfig{
			DBname:   getEnvOrDefault("POSTGRES_DB", "game_service"),
			Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		},
		RedisCfg: RedisConfig{
			Host:           getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:           getEnvOrDefault("REDIS_PORT", "6379"),
			Password:       getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:             getEnvAsIntOrDefault("REDIS_DB", 0),
			LockTTLSeconds: getEnvAsIntOrDefault("LOCK_TTL_SECONDS", 10),
		},
		RabbitMQCfg: RabbitMQConfig{
			Enabled:  getEnvOrDefault("RABBITMQ_ENABLED", "false") == "true",
			Host:     getEnvOrDefault("RABBITMQ_HOST", "rabbitmq"),
			Username: getEnvOrDefault("RABBITMQ_USER", "admin"),
			Password: getEnvOrDefault("RABBITMQ_PWD", "admin"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
		},
		EconomyCfg: EconomyConfig{
			StartingGold:         int64(getEnvAsIntOrDefault("STARTING_GOLD", 2000)),
			StartingGems:         int64(getEnvAsIntOrDefault("STARTING_GEMS", 50)),
			SpeedUpGemsPerMinute: int64(getEnvAsIntOrDefault("SPEEDUP_GEMS_PER_MINUTE", 2)),
			AggregateMaxRetries:  getEnvAsIntOrDefault("AGGREGATE_MAX_RETRIES", 3),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
