package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Abraxas-365/cae/pkg/errx"
	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration of the server and the workers.
// Environment variables win over the YAML file named by CAE_CONFIG.
type Config struct {
	Env  string `yaml:"env"`
	Port string `yaml:"port"`

	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Log      LogConfig      `yaml:"log"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN builds a lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StorageConfig struct {
	Region string `yaml:"region"`
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
	Issuer         string        `yaml:"issuer"`
}

type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Enabled reports whether audit events should go to Kafka
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type WorkerConfig struct {
	Count            int           `yaml:"count"`
	MaxRetries       int           `yaml:"max_retries"`
	ExpirySweepEvery time.Duration `yaml:"expiry_sweep_every"`
}

const devJWTSecret = "super-secret-key-please-change-me-in-production"

// Default returns the local development configuration
func Default() *Config {
	return &Config{
		Env:  "development",
		Port: "8080",
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "cae",
			SSLMode: "disable",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Storage: StorageConfig{
			Region: "eu-west-1",
			Prefix: "uploads",
		},
		Auth: AuthConfig{
			JWTSecret:      devJWTSecret,
			AccessTokenTTL: 8 * time.Hour,
			Issuer:         "cae",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Worker: WorkerConfig{
			Count:            3,
			MaxRetries:       3,
			ExpirySweepEvery: time.Hour,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file and
// the environment, in that order.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CAE_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errx.Wrap(err, "failed to read config file", errx.TypeInternal).
			WithDetail("path", path)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errx.Wrap(err, "failed to parse config file", errx.TypeValidation).
			WithDetail("path", path)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}

	str("APP_ENV", &c.Env)
	str("PORT", &c.Port)

	str("DB_HOST", &c.Database.Host)
	str("DB_PORT", &c.Database.Port)
	str("DB_USER", &c.Database.User)
	str("DB_PASS", &c.Database.Password)
	str("DB_NAME", &c.Database.Name)
	str("DB_SSLMODE", &c.Database.SSLMode)

	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASS", &c.Redis.Password)
	num("REDIS_DB", &c.Redis.DB)

	str("AWS_REGION", &c.Storage.Region)
	str("AWS_BUCKET", &c.Storage.Bucket)

	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("OPENAI_API_KEY", &c.OpenAI.APIKey)
	str("OPENAI_MODEL", &c.OpenAI.Model)

	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = splitList(v)
	}
	str("KAFKA_TOPIC", &c.Kafka.Topic)

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	num("WORKER_COUNT", &c.Worker.Count)
	num("WORKER_MAX_RETRIES", &c.Worker.MaxRetries)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate reports values that must be set before serving real traffic
func (c *Config) Validate() error {
	problems := map[string]any{}

	if c.Port == "" {
		problems["port"] = "required"
	}
	if c.Worker.Count < 1 {
		problems["worker.count"] = "must be at least 1"
	}
	if c.IsProduction() {
		if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == devJWTSecret {
			problems["auth.jwt_secret"] = "must be set in production"
		}
		if c.Storage.Bucket == "" {
			problems["storage.bucket"] = "required in production"
		}
		if c.OpenAI.APIKey == "" {
			problems["openai.api_key"] = "required in production"
		}
		if c.Database.Password == "" {
			problems["database.password"] = "required in production"
		}
	}

	if len(problems) > 0 {
		return errx.New("invalid configuration", errx.TypeValidation).WithDetails(problems)
	}
	return nil
}
