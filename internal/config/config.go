package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/tumbleweedd/two_services_system/registration_service/pkg/databases/postgres"
)

type Config struct {
	Env         string            `yaml:"env" env:"ENV" env-default:"local"`
	HTTP        HTTPConfig        `yaml:"http"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Pricing     PricingConfig     `yaml:"pricing"`
	Gateway     GatewayConfig     `yaml:"gateway"`
	Webhook     WebhookConfig     `yaml:"webhook"`
	SMS         SMSConfig         `yaml:"sms"`
	Notifier    NotifierConfig    `yaml:"notifier"`
	StatusCache StatusCacheConfig `yaml:"status_cache"`
	Sweep       SweepConfig       `yaml:"sweep"`
}

type HTTPConfig struct {
	Port           int           `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env-default:"15s"`
	RequestTimeout time.Duration `yaml:"request_timeout" env-default:"20s"`
}

type PostgresConfig struct {
	Port    string `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	Host    string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	DbName  string `yaml:"db_name" env:"POSTGRES_DB"`
	User    string `yaml:"user" env:"POSTGRES_USER"`
	Pwd     string `yaml:"password" env:"POSTGRES_PASSWORD"`
	SslMode string `yaml:"sslmode" env-default:"disable"`

	MaxOpenConns    int           `yaml:"max_open_conns" env-default:"20"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env-default:"5"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" env-default:"5m"`
	PingTimeout     time.Duration `yaml:"ping_timeout" env-default:"2s"`
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s dbname=%s password=%s sslmode=%s",
		p.Host, p.Port, p.User, p.DbName, p.Pwd, p.SslMode)
}

func (p PostgresConfig) Pool() postgres.Pool {
	return postgres.Pool{
		MaxOpenConns:    p.MaxOpenConns,
		MaxIdleConns:    p.MaxIdleConns,
		ConnMaxIdleTime: p.ConnMaxIdleTime,
		PingTimeout:     p.PingTimeout,
	}
}

// URL is the form golang-migrate expects.
func (p PostgresConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		p.User, p.Pwd, p.Host, p.Port, p.DbName, p.SslMode)
}

type KafkaConfig struct {
	Enabled     bool     `yaml:"enabled" env:"KAFKA_ENABLED"`
	BrokerList  []string `yaml:"broker_list" env:"KAFKA_BROKERS" env-separator:","`
	ReportTopic string   `yaml:"report_topic" env-default:"registration.reports"`
}

type RateLimitConfig struct {
	Disabled bool          `yaml:"disabled" env:"RATE_LIMIT_DISABLED"`
	Limit    int           `yaml:"limit" env-default:"10"`
	Window   time.Duration `yaml:"window" env-default:"10m"`
	Timeout  time.Duration `yaml:"timeout" env-default:"300ms"`
}

type PricingConfig struct {
	Amount   int64  `yaml:"amount" env-default:"100"`
	Currency string `yaml:"currency" env-default:"INR"`
}

type GatewayConfig struct {
	BaseURL      string        `yaml:"base_url" env:"GATEWAY_BASE_URL"`
	ClientID     string        `yaml:"client_id" env:"GATEWAY_CLIENT_ID"`
	ClientSecret string        `yaml:"client_secret" env:"GATEWAY_CLIENT_SECRET"`
	APIVersion   string        `yaml:"api_version" env-default:"2023-08-01"`
	ReturnURL    string        `yaml:"return_url"`
	NotifyURL    string        `yaml:"notify_url"`
	Timeout      time.Duration `yaml:"timeout" env-default:"8s"`
}

type WebhookConfig struct {
	Secret          string `yaml:"secret" env:"WEBHOOK_SECRET"`
	SignatureHeader string `yaml:"signature_header" env-default:"X-Webhook-Signature"`
	MaxBodyBytes    int64  `yaml:"max_body_bytes" env-default:"1048576"`
}

type SMSConfig struct {
	Enabled  bool          `yaml:"enabled" env:"SMS_ENABLED"`
	BaseURL  string        `yaml:"base_url" env:"SMS_BASE_URL"`
	APIKey   string        `yaml:"api_key" env:"SMS_API_KEY"`
	Sender   string        `yaml:"sender" env-default:"TALENT"`
	Template string        `yaml:"template" env-default:"Hi {{.ParticipantName}}, your registration {{.OrderID}} is confirmed. Ticket: {{.TicketCode}}"`
	Timeout  time.Duration `yaml:"timeout" env-default:"5s"`
}

type NotifierConfig struct {
	Lease   time.Duration `yaml:"lease" env-default:"2m"`
	Timeout time.Duration `yaml:"timeout" env-default:"5s"`
}

type StatusCacheConfig struct {
	Size int           `yaml:"size" env-default:"1024"`
	TTL  time.Duration `yaml:"ttl" env-default:"10m"`
}

type SweepConfig struct {
	BatchSize   int `yaml:"batch_size" env-default:"100"`
	Concurrency int `yaml:"concurrency" env-default:"4"`
}

func InitConfig() Config {
	configPath := getConfigPath()

	if configPath == "" {
		panic("config path is not set")
	}

	cfg, err := Load(configPath)
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

// Load reads the YAML file at path and applies environment overrides.
func Load(path string) (Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Webhook.Secret == "" {
		return fmt.Errorf("webhook.secret must be set")
	}
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway.base_url must be set")
	}
	if c.Pricing.Amount <= 0 {
		return fmt.Errorf("pricing.amount must be positive")
	}
	if len(c.Pricing.Currency) != 3 {
		return fmt.Errorf("pricing.currency must be a 3-letter code")
	}
	if c.Kafka.Enabled && len(c.Kafka.BrokerList) == 0 {
		return fmt.Errorf("kafka.broker_list must be set when kafka is enabled")
	}
	return nil
}

func getConfigPath() string {
	var path string

	flag.StringVar(&path, "config", "", "path to config file")
	flag.Parse()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	return path
}
