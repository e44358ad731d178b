package config

import (
	"errors"
	"fmt"
	"log"
	"net/mail"
	"net/url"
	"os"
	"strings"
	"time"

	"blog-server/pkg/utils"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Mail delivery modes.
const (
	MailModeDirect = "direct"
	MailModeQueue  = "queue"
)

// Config holds the blog server configuration.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"debug"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"8080"`
	SecretsDir  string `envconfig:"SECRETS_DIR" default:"/run/secrets"`

	// Database
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_IDLE_TIMEOUT" default:"5m"`
	// Секрет, без envconfig тега
	DBPassword string `ignored:"true"`

	// Redis
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPassword string `ignored:"true"`

	// JWT
	JWTSecret       string        `ignored:"true"`
	PasswordPepper  string        `ignored:"true"`
	AccessTokenTTL  time.Duration `envconfig:"JWT_ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTokenTTL time.Duration `envconfig:"JWT_REFRESH_TOKEN_TTL" default:"168h"`

	PasswordResetTTL time.Duration `envconfig:"PASSWORD_RESET_TTL" default:"1h"`
	RateLimitPerMin  int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"10"`

	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// Public URL of the site, used to build password reset links.
	SiteURL          string `envconfig:"SITE_URL" default:"http://localhost:8080"`
	DefaultPostImage string `envconfig:"DEFAULT_POST_IMAGE" default:"/static/assets/img/post-bg.jpg"`

	// Mail
	MailMode         string `envconfig:"MAIL_MODE" default:"direct"`
	MailFrom         string `envconfig:"MAIL_FROM" required:"true"`
	ContactRecipient string `envconfig:"CONTACT_RECIPIENT" required:"true"`
	SMTPHost         string `envconfig:"SMTP_HOST"`
	SMTPPort         int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername     string `envconfig:"SMTP_USERNAME"`
	SMTPTLS          bool   `envconfig:"SMTP_TLS" default:"true"`
	SMTPPassword     string `ignored:"true"`
	RabbitMQURL      string `envconfig:"RABBITMQ_URL"`
	MailQueueName    string `envconfig:"MAIL_QUEUE_NAME" default:"mail_outbox"`

	SiteConfig
}

// SiteConfig is the public site metadata.
type SiteConfig struct {
	CareerStartYear int    `envconfig:"CAREER_START_YEAR" default:"2020"`
	WhatsAppURL     string `envconfig:"SITE_WHATSAPP_URL"`
	GitHubURL       string `envconfig:"SITE_GITHUB_URL"`
	LinkedInURL     string `envconfig:"SITE_LINKEDIN_URL"`
	YouTubeURL      string `envconfig:"SITE_YOUTUBE_URL"`
	TikTokURL       string `envconfig:"SITE_TIKTOK_URL"`
	PortfolioURL    string `envconfig:"SITE_PORTFOLIO_URL"`
}

// Links returns the configured social links keyed by network. Empty ones are omitted.
func (s SiteConfig) Links() map[string]string {
	all := map[string]string{
		"whatsapp":  s.WhatsAppURL,
		"github":    s.GitHubURL,
		"linkedin":  s.LinkedInURL,
		"youtube":   s.YouTubeURL,
		"tiktok":    s.TikTokURL,
		"portfolio": s.PortfolioURL,
	}
	links := make(map[string]string, len(all))
	for k, v := range all {
		if v != "" {
			links[k] = v
		}
	}
	return links
}

// GetAllowedOrigins splits CORSAllowedOrigins by comma.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// DSN returns the Postgres connection string.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.DBSSLMode),
	}
	return u.String()
}

// Validate checks everything envconfig tags cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is empty"))
	}
	if c.PasswordPepper == "" {
		errs = append(errs, errors.New("password pepper is empty"))
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.RefreshTokenTTL < c.AccessTokenTTL {
		errs = append(errs, errors.New("JWT_REFRESH_TOKEN_TTL must not be shorter than JWT_ACCESS_TOKEN_TTL"))
	}
	if c.PasswordResetTTL <= 0 {
		errs = append(errs, errors.New("PASSWORD_RESET_TTL must be positive"))
	}
	if c.RateLimitPerMin <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
	}
	if _, err := mail.ParseAddress(c.MailFrom); err != nil {
		errs = append(errs, fmt.Errorf("MAIL_FROM is not a valid address: %w", err))
	}
	if _, err := mail.ParseAddress(c.ContactRecipient); err != nil {
		errs = append(errs, fmt.Errorf("CONTACT_RECIPIENT is not a valid address: %w", err))
	}
	switch c.MailMode {
	case MailModeDirect:
		if c.SMTPHost == "" {
			errs = append(errs, errors.New("SMTP_HOST is required when MAIL_MODE=direct"))
		}
	case MailModeQueue:
		if c.RabbitMQURL == "" {
			errs = append(errs, errors.New("RABBITMQ_URL is required when MAIL_MODE=queue"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_MODE %q", c.MailMode))
	}
	if u, err := url.Parse(c.SiteURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("SITE_URL must be an absolute URL, got %q", c.SiteURL))
	}
	if c.CareerStartYear > time.Now().Year() {
		errs = append(errs, errors.New("CAREER_START_YEAR is in the future"))
	}
	return errors.Join(errs...)
}

// LoadConfig loads .env (if present), environment variables and secrets, then validates.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
			} else {
				log.Printf("Loaded configuration from %s", envFilePath)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}
	if err := cfg.loadSecrets(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) loadSecrets() error {
	var err error
	// Обязательные секреты
	if c.DBPassword, err = utils.ReadSecret(c.SecretsDir, "db_password"); err != nil {
		return err
	}
	if c.JWTSecret, err = utils.ReadSecret(c.SecretsDir, "jwt_secret"); err != nil {
		return err
	}
	if c.PasswordPepper, err = utils.ReadSecret(c.SecretsDir, "password_pepper"); err != nil {
		return err
	}
	// Необязательные
	if c.RedisPassword, err = utils.ReadOptionalSecret(c.SecretsDir, "redis_password"); err != nil {
		return err
	}
	if c.SMTPPassword, err = utils.ReadOptionalSecret(c.SecretsDir, "smtp_password"); err != nil {
		return err
	}
	return nil
}
