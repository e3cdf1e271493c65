// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env"`
	HTTPServer      `yaml:"http_server"`
	RecordStore     `yaml:"record_store"`
	GreenAPI        `yaml:"green_api"`
	RedisConnection `yaml:"redis_connection"`
	RabbitMQ        `yaml:"rabbitmq"`
	JWTToken        `yaml:"jwttoken"`
	Business        `yaml:"business"`
	Scheduler       `yaml:"scheduler"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// RecordStore настройки подключения к внешнему табличному хранилищу.
type RecordStore struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key" env:"RECORD_STORE_API_KEY"`
	Timeout    time.Duration `yaml:"timeout"`
	GetRetries int           `yaml:"get_retries"`
}

// GreenAPI настройки шлюза WhatsApp-сообщений.
type GreenAPI struct {
	BaseURL  string        `yaml:"base_url"`
	Instance string        `yaml:"instance"`
	Token    string        `yaml:"token" env:"GREEN_API_TOKEN"`
	Timeout  time.Duration `yaml:"timeout"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// RabbitMQ настройки подключения к брокеру очередей уведомлений.
type RabbitMQ struct {
	URL        string        `yaml:"url"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// Business бизнес-константы мойки.
type Business struct {
	// UnitPrice цена одной мойки без абонемента, используется как
	// оценка по умолчанию в диалоге ручной оплаты.
	UnitPrice float64 `yaml:"unit_price"`
}

// Scheduler настройки цикла планировщика напоминаний.
type Scheduler struct {
	Interval time.Duration `yaml:"interval"`
}

// MustLoad функция для загрузки конфига, путь берётся из CONFIG_PATH
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
	if cfg.Business.UnitPrice == 0 {
		cfg.Business.UnitPrice = 25
	}
	if cfg.Scheduler.Interval == 0 {
		cfg.Scheduler.Interval = time.Hour
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"RecordStore:\n"+
			"  BaseURL: %s\n"+
			"  Timeout: %s\n"+
			"  GetRetries: %d\n"+
			"GreenAPI:\n"+
			"  BaseURL: %s\n"+
			"  Instance: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ:\n"+
			"  URL: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"Business:\n"+
			"  UnitPrice: %.2f\n",
		c.Env,
		c.RecordStore.BaseURL,
		c.RecordStore.Timeout,
		c.RecordStore.GetRetries,
		c.GreenAPI.BaseURL,
		c.GreenAPI.Instance,
		c.AddressRedis,
		c.DB,
		c.RabbitMQ.URL,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.TokenTTL,
		c.Business.UnitPrice,
	)
}
