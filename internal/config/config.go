// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv), в том числе из файла .env.
type Config struct {
	Env           string              `yaml:"env" env:"ENV" env-default:"local"`
	Debug         bool                `yaml:"debug" env:"DEBUG" env-default:"false"`
	HTTP          HTTPConfig          `yaml:"http"`
	Auth          AuthConfig          `yaml:"auth"`
	DB            DBConfig            `yaml:"db"`
	Redis         RedisConfig         `yaml:"redis"`
	Subscriptions SubscriptionsConfig `yaml:"subscriptions"`
	WS            WSConfig            `yaml:"ws"`
	Timeouts      TimeoutConfig       `yaml:"timeouts"`
}

// HTTPConfig — сетевые настройки HTTP-сервера (GraphQL + WebSocket).
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8000"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// AuthConfig содержит параметры выпуска и проверки токенов сессии.
//
// TokenTTL == 0 означает токен без срока действия: сессия живёт,
// пока не будет сменён token_id пользователя (logout).
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret" env:"JWT_SECRET_KEY" env-required:"true"`
	TokenTTL   time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"0s"`
	BcryptCost int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
}

// DBConfig — настройки подключения к базе данных.
// Схема URL выбирает драйвер: postgres:// | postgresql:// | sqlite://.
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
	// Настройки пула PostgreSQL; 0 — значение pgxpool по умолчанию.
	MaxConns        int           `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"0"`
	MinConns        int           `yaml:"min_conns" env:"DB_MIN_CONNS" env-default:"0"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" env-default:"0s"`
}

// RedisConfig — кэш token_id пользователей. Пустой URL отключает кэш.
type RedisConfig struct {
	RedisURL string        `yaml:"redis_url" env:"REDIS_URL"`
	Prefix   string        `yaml:"prefix" env:"REDIS_PREFIX" env-default:"posts:tid:"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_TTL" env-default:"10m"`
}

// SubscriptionsConfig — параметры подписок GraphQL.
type SubscriptionsConfig struct {
	CountInterval time.Duration `yaml:"count_interval" env:"COUNT_INTERVAL" env-default:"1s"`
	Buffer        int           `yaml:"buffer" env:"SUBSCRIPTION_BUFFER" env-default:"16"`
}

// WSConfig — параметры WebSocket-транспорта.
type WSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"WS_ALLOWED_ORIGINS"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Request time.Duration `yaml:"request" env:"REQUEST_TIMEOUT" env-default:"5s"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// Перед чтением ENV подгружается ./.env (уже выставленные переменные не перетираются).
// После чтения файла ENV-переменные накладываются поверх значений из YAML.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	var cfg Config

	read := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	if path != "" {
		return read(path)
	}

	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return read(envPath)
	}

	if _, err := os.Stat("local.yaml"); err == nil {
		return read("local.yaml")
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv подгружает переменные из .env, если файл существует.
func loadDotEnv(p string) error {
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("dotenv %q stat failed: %w", p, err)
	}

	if err := godotenv.Load(p); err != nil {
		return fmt.Errorf("failed to load %s: %w", p, err)
	}

	return nil
}
