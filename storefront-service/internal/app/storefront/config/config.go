package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config содержит все настройки Storefront Service
// Значения читаются из переменных окружения, для каждой задан дефолт
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	Catalog  CatalogConfig
	Log      LogConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Host string
	Port string
}

// DatabaseConfig - настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrateOnStart bool // Применять миграции при старте сервиса
}

// RedisConfig - настройки Redis, используемого как кеш дерева категорий
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	CacheTTL time.Duration // Правки дерева становятся видны не позже чем через TTL
}

// KafkaConfig - настройки Kafka
type KafkaConfig struct {
	Brokers        []string
	CatalogTopic   string // События CATEGORY_*/ITEM_* от сервиса управления каталогом
	IntegrityTopic string // Предупреждения о циклах и висячих ссылках
	GroupID        string
}

// JWTConfig - секрет для проверки токенов администратора
type JWTConfig struct {
	Secret string
}

// CatalogConfig - настройки сервиса каталога
type CatalogConfig struct {
	StoreTimeout           time.Duration // Таймаут на каждый запрос к хранилищу
	IntegrityAuditSchedule string        // cron выражение для фоновой проверки целостности
}

type LogConfig struct {
	Level        string
	LogstashAddr string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	// Парсим Redis DB как число
	redisDB, err := strconv.Atoi(v.GetString("REDIS_DB"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB value: %w", err)
	}

	cacheTTL, err := parseDuration(v, "CACHE_TTL")
	if err != nil {
		return nil, err
	}

	storeTimeout, err := parseDuration(v, "STORE_TIMEOUT")
	if err != nil {
		return nil, err
	}
	if storeTimeout <= 0 {
		return nil, fmt.Errorf("STORE_TIMEOUT must be positive, got %s", storeTimeout)
	}

	return &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetString("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:           v.GetString("DB_HOST"),
			Port:           v.GetString("DB_PORT"),
			User:           v.GetString("DB_USER"),
			Password:       v.GetString("DB_PASSWORD"),
			DBName:         v.GetString("DB_NAME"),
			SSLMode:        v.GetString("DB_SSLMODE"),
			MigrateOnStart: v.GetBool("DB_MIGRATE_ON_START"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       redisDB,
			CacheTTL: cacheTTL,
		},
		Kafka: KafkaConfig{
			Brokers:        splitList(v.GetString("KAFKA_BROKERS")),
			CatalogTopic:   v.GetString("KAFKA_CATALOG_TOPIC"),
			IntegrityTopic: v.GetString("KAFKA_INTEGRITY_TOPIC"),
			GroupID:        v.GetString("KAFKA_GROUP_ID"),
		},
		JWT: JWTConfig{
			// Должен совпадать с секретом сервиса аутентификации
			Secret: v.GetString("JWT_SECRET"),
		},
		Catalog: CatalogConfig{
			StoreTimeout:           storeTimeout,
			IntegrityAuditSchedule: v.GetString("INTEGRITY_AUDIT_SCHEDULE"),
		},
		Log: LogConfig{
			Level:        v.GetString("LOG_LEVEL"),
			LogstashAddr: v.GetString("LOGSTASH_ADDR"),
		},
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8085")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "storefront")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MIGRATE_ON_START", false)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", "0")
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_CATALOG_TOPIC", "catalog_events")
	v.SetDefault("KAFKA_INTEGRITY_TOPIC", "catalog_integrity")
	v.SetDefault("KAFKA_GROUP_ID", "storefront-service")

	v.SetDefault("JWT_SECRET", "your-secret-key-change-this-in-production")

	v.SetDefault("STORE_TIMEOUT", "3s")
	v.SetDefault("INTEGRITY_AUDIT_SCHEDULE", "@every 1h")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOGSTASH_ADDR", "")
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL возвращает строку подключения в формате postgres:// для pgxpool
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Address возвращает адрес сервера в формате host:port
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}
