package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type key string

const (
	KeyUUID    = key("uuid")
	KeyLogger  = key("logger")
	KeyMetrics = key("metrics")
)

type Config struct {
	Service  Service
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Profile  Profile
	Realtime Realtime
	Metrics  Metrics
	Logger   Logger
	Platform Platform
}

type Service struct {
	Name      string `env:"CHAT_SERVICE_NAME" env-default:"chat-service"`
	Port      string `env:"CHAT_SERVICE_PORT" env-required:"true"`
	JWTSecret string `env:"CHAT_SERVICE_JWT_SECRET" env-required:"true"`
}

type Postgres struct {
	User     string `env:"CHAT_SERVICE_POSTGRES_USER" env-required:"true"`
	Password string `env:"CHAT_SERVICE_POSTGRES_PASSWORD" env-required:"true"`
	Database string `env:"CHAT_SERVICE_POSTGRES_DB" env-required:"true"`
	Host     string `env:"CHAT_SERVICE_POSTGRES_HOST" env-required:"true"`
	Port     string `env:"CHAT_SERVICE_POSTGRES_PORT" env-required:"true"`
}

type Redis struct {
	Host     string `env:"CHAT_SERVICE_REDIS_HOST" env-required:"true"`
	Port     string `env:"CHAT_SERVICE_REDIS_PORT" env-required:"true"`
	Password string `env:"CHAT_SERVICE_REDIS_PASSWORD"`
	DB       int    `env:"CHAT_SERVICE_REDIS_DB" env-default:"0"`
}

type Kafka struct {
	Host         string `env:"KAFKA_HOST" env-required:"true"`
	Port         string `env:"KAFKA_PORT" env-required:"true"`
	ProfileTopic string `env:"KAFKA_PROFILE_TOPIC" env-default:"profile_updated"`
}

type Profile struct {
	BaseURL string        `env:"PROFILE_SERVICE_BASE_URL" env-required:"true"`
	Timeout time.Duration `env:"PROFILE_SERVICE_TIMEOUT" env-default:"5s"`
}

type Realtime struct {
	JWTSecret string        `env:"CHAT_SERVICE_REALTIME_JWT_SECRET" env-required:"true"`
	TokenTTL  time.Duration `env:"CHAT_SERVICE_REALTIME_TOKEN_TTL" env-default:"30m"`
}

type Metrics struct {
	Host string `env:"GRAFANA_HOST"`
	Port int    `env:"GRAFANA_PORT"`
}

type Logger struct {
	Host string `env:"LOGGER_SERVICE_HOST"`
	Port string `env:"LOGGER_SERVICE_PORT"`
}

type Platform struct {
	Env string `env:"ENV" env-default:"dev"`
}

func MustLoad() *Config {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		log.Fatalf("failed to read env variables: %v", err)
	}
	return cfg
}
