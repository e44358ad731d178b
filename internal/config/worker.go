package config

import (
	"fmt"
	"log"

	"github.com/ilyakaznacheev/cleanenv"
)

// WorkerConfig configures cmd/mailworker.
type WorkerConfig struct {
	RabbitMQ          RabbitMQConfig `yaml:"rabbitmq"`
	SMTP              SMTPConfig     `yaml:"smtp"`
	Log               LogConfig      `yaml:"log"`
	MailQueueName     string         `yaml:"mail_queue_name" env:"MAIL_QUEUE_NAME" env-default:"mail_outbox"`
	WorkerConcurrency int            `yaml:"worker_concurrency" env:"WORKER_CONCURRENCY" env-default:"4"`
	HealthCheckPort   string         `yaml:"health_check_port" env:"HEALTH_CHECK_PORT" env-default:"8089"`
	SecretsDir        string         `yaml:"secrets_dir" env:"SECRETS_DIR" env-default:"/run/secrets"`
}

type RabbitMQConfig struct {
	URI string `yaml:"uri" env:"RABBITMQ_URL" env-required:"true"`
}

type SMTPConfig struct {
	Host     string `yaml:"host" env:"SMTP_HOST" env-required:"true"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"MAIL_FROM" env-required:"true"`
	TLS      bool   `yaml:"tls" env:"SMTP_TLS" env-default:"true"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Encoding string `yaml:"encoding" env:"LOG_ENCODING" env-default:"json"`
}

// LoadWorkerConfig читает yaml файл, а при его отсутствии только переменные окружения.
func LoadWorkerConfig(configPath string) (*WorkerConfig, error) {
	var cfg WorkerConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Printf("Warning: could not read config file '%s': %v. Falling back to environment.", configPath, err)
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to load worker configuration: %w", err)
		}
	}
	if cfg.WorkerConcurrency < 1 {
		return nil, fmt.Errorf("worker_concurrency must be positive, got %d", cfg.WorkerConcurrency)
	}
	return &cfg, nil
}
