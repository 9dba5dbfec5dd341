// Package config предоставляет структуры и функцию для парсинга и загрузки конфига.
// Секреты (JWT, ключи шлюза, вебхук-секреты) берутся из переменных окружения,
// остальное — из YAML-файла по пути CONFIG_PATH.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек приложения.
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Gateway                 `yaml:"gateway"`
	Webhooks                `yaml:"webhooks"`
	SMTP                    `yaml:"smtp"`
	RabbitMQ                `yaml:"rabbitmq"`
	Admin                   `yaml:"admin"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес означает, что общее хранилище не сконфигурировано:
// кеш и лимитер в этом случае работают в режиме fail-open.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// JWTToken структура для работы с jwt-токеном.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET"`
	UserTokenTTL time.Duration `yaml:"user_token_ttl" env-default:"168h"`
	AdminTTL     time.Duration `yaml:"admin_token_ttl" env-default:"24h"`
}

// Gateway настройки платёжного шлюза Cobrafácil.
type Gateway struct {
	GatewayBaseURL string `yaml:"gateway_base_url" env-default:"https://api.cobrafacil.com.br/v3"`
	GatewayAPIKey  string `yaml:"gateway_api_key" env:"GATEWAY_API_KEY"`
	WebhookToken   string `yaml:"gateway_webhook_token" env:"GATEWAY_WEBHOOK_TOKEN"`
}

// Webhooks секреты для проверки подписей вебхуков партнёров фулфилмента.
type Webhooks struct {
	PrintifySecret string `yaml:"printify_secret" env:"PRINTIFY_WEBHOOK_SECRET"`
	ProdigiSecret  string `yaml:"prodigi_secret" env:"PRODIGI_WEBHOOK_SECRET"`
	PrintifyAPIKey string `yaml:"printify_api_key" env:"PRINTIFY_API_KEY"`
	PrintifyShopID string `yaml:"printify_shop_id" env:"PRINTIFY_SHOP_ID"`
}

// SMTP настройки почтового транспорта для исходящих уведомлений.
type SMTP struct {
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort string `yaml:"smtp_port" env-default:"587"`
	SMTPUser string `yaml:"smtp_user" env:"SMTP_USER"`
	SMTPPass string `yaml:"smtp_pass" env:"SMTP_PASS"`
}

// RabbitMQ настройки подключения к брокеру уведомлений.
type RabbitMQ struct {
	RabbitURL        string        `yaml:"rabbit_url" env:"RABBIT_URL"`
	RabbitMaxRetries int           `yaml:"rabbit_max_retries" env-default:"5"`
	RabbitRetryDelay time.Duration `yaml:"rabbit_retry_delay" env-default:"3s"`
}

// Admin настройки административных операций.
type Admin struct {
	FlushSecret string `yaml:"flush_secret" env:"ADMIN_FLUSH_SECRET"`
}

// MustLoad загружает конфиг по пути CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
