package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	DefaultPath = "config.yml"
	EnvPrefix   = "TASKMANAGER"

	RepositoryPostgres = "postgres"
	RepositoryMongo    = "mongo"
	RepositoryInMemory = "inmemory"
)

type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Database   DatabaseConfig   `yaml:"database" mapstructure:"database"`
	Mongo      MongoConfig      `yaml:"mongo" mapstructure:"mongo"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
	Repository RepositoryConfig `yaml:"repository" mapstructure:"repository"`
	Auth       AuthConfig       `yaml:"auth" mapstructure:"auth"`
	CORS       CORSConfig       `yaml:"cors" mapstructure:"cors"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" mapstructure:"rate_limit"`
	Pagination PaginationConfig `yaml:"pagination" mapstructure:"pagination"`
}

type ServerConfig struct {
	Port            string        `yaml:"port" mapstructure:"port" validate:"required,numeric"`
	Host            string        `yaml:"host" mapstructure:"host"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gt=0"`
	RequestTimeout  time.Duration `yaml:"request_timeout" mapstructure:"request_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"gt=0"`
	// TrustProxy включать только за своим обратным прокси: адрес клиента
	// тогда берётся из X-Forwarded-For / X-Real-IP
	TrustProxy bool `yaml:"trust_proxy" mapstructure:"trust_proxy"`
}

type DatabaseConfig struct {
	URL            string        `yaml:"url" mapstructure:"url"`
	MaxConnections int32         `yaml:"max_connections" mapstructure:"max_connections" validate:"gte=1"`
	MinConnections int32         `yaml:"min_connections" mapstructure:"min_connections" validate:"gte=0,ltefield=MaxConnections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	Migrate        bool          `yaml:"migrate" mapstructure:"migrate"`
}

type MongoConfig struct {
	URI      string `yaml:"uri" mapstructure:"uri"`
	Database string `yaml:"database" mapstructure:"database"`
}

type LoggingConfig struct {
	Development bool `yaml:"development" mapstructure:"development"`
}

type RepositoryConfig struct {
	Type string `yaml:"type" mapstructure:"type" validate:"oneof=postgres mongo inmemory"` // "postgres", "mongo" или "inmemory"
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret" mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenTTL   time.Duration `yaml:"token_ttl" mapstructure:"token_ttl" validate:"gt=0"`
	BcryptCost int           `yaml:"bcrypt_cost" mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests" mapstructure:"requests" validate:"gte=1"`
	Window   time.Duration `yaml:"window" mapstructure:"window" validate:"gt=0"`
}

type PaginationConfig struct {
	DefaultLimit int `yaml:"default_limit" mapstructure:"default_limit" validate:"gte=1,ltefield=MaxLimit"`
	MaxLimit     int `yaml:"max_limit" mapstructure:"max_limit" validate:"gte=1"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.host", "")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.trust_proxy", false)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)
	v.SetDefault("database.migrate", true)

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "task_manager")

	v.SetDefault("logging.development", false)
	v.SetDefault("repository.type", RepositoryInMemory)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 12)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("rate_limit.requests", 200)
	v.SetDefault("rate_limit.window", 15*time.Minute)

	v.SetDefault("pagination.default_limit", 10)
	v.SetDefault("pagination.max_limit", 100)
}

// Load читает YAML-файл и накладывает переменные окружения
// вида TASKMANAGER_SERVER_PORT. Отсутствующий файл не ошибка.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("неверная конфигурация: %w", err)
	}

	switch c.Repository.Type {
	case RepositoryPostgres:
		if c.Database.URL == "" {
			return errors.New("неверная конфигурация: database.url обязателен для postgres")
		}
	case RepositoryMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return errors.New("неверная конфигурация: mongo.uri и mongo.database обязательны для mongo")
		}
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}
