package config

import (
	"log"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	TZ     string `envconfig:"TZ" default:"Europe/Moscow"`
	Port   int    `envconfig:"PORT" default:"8080"`

	MetricsPort int `envconfig:"METRICS_PORT" default:"9090"`

	VK struct {
		Token        string `envconfig:"VK_TOKEN"`
		GroupID      int64  `envconfig:"VK_GROUP_ID"`
		Confirmation string `envconfig:"VK_CONFIRMATION_TOKEN"`
		Secret       string `envconfig:"VK_SECRET"`
		APIVersion   string `envconfig:"VK_API_VERSION" default:"5.131"`
	} `envconfig:""`

	Calendar struct {
		ID     string `envconfig:"CALENDAR_ID"`
		APIKey string `envconfig:"CALENDAR_API_KEY"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	Queue struct {
		Driver    string `envconfig:"QUEUE_DRIVER" default:"redis"`
		Broadcast string `envconfig:"BROADCAST_QUEUE_KEY" default:"broadcast_jobs"`
		AMQPURL   string `envconfig:"AMQP_URL"`
	} `envconfig:""`

	Limits struct {
		SendChunk      int `envconfig:"SEND_CHUNK_SIZE" default:"50"`
		SendDelayMS    int `envconfig:"SEND_CHUNK_DELAY_MS" default:"1000"`
		ClickRetention int `envconfig:"CLICK_RETENTION_DAYS" default:"90"`
	} `envconfig:""`

	Schedule struct {
		DigestCron string `envconfig:"DIGEST_CRON" default:"0 10 * * *"`
		RollupCron string `envconfig:"ROLLUP_CRON" default:"5 0 * * *"`
		ExpiryCron string `envconfig:"DRAWING_EXPIRY_CRON" default:"0 * * * *"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
