package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer HTTPServer `yaml:"http_server"`
	CORS       CORS       `yaml:"cors"`
	Postgres   Postgres   `yaml:"postgres"`
	Redis      Redis      `yaml:"redis"`
	JWT        JWT        `yaml:"jwt"`
	MagicLink  MagicLink  `yaml:"magic_link"`
	Mail       Mail       `yaml:"mail"`
	ES         ES         `yaml:"elasticsearch"`
	Minio      Minio      `yaml:"minio"`
	Analytics  Analytics  `yaml:"analytics"`
	Progress   Progress   `yaml:"progress"`
	Demo       Demo       `yaml:"demo"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8081"`
	Timeout     time.Duration `yaml:"timeout" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type CORS struct {
	AllowOrigins []string `yaml:"allow_origins" env:"CORS_ALLOW_ORIGINS" env-default:"http://localhost:3000"`
}

// Postgres is optional. Without a host the server runs on the demo fixture
// or without a backend at all.
type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST"`
	Port     string `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB"`
	SSLMode  string `yaml:"sslmode" env:"POSTGRES_SSLMODE" env-default:"disable"`
	MaxConns int32  `yaml:"max_conns" env-default:"10"`
	Migrate  bool   `yaml:"migrate" env:"POSTGRES_MIGRATE"`
}

func (p Postgres) Enabled() bool {
	return p.Host != ""
}

type Redis struct {
	URL string `yaml:"url" env:"REDIS_URL"`
}

type JWT struct {
	SecretKey  string        `yaml:"secret_key" env:"JWT_SECRET_KEY"`
	Issuer     string        `yaml:"issuer" env-default:"zuluskills"`
	AccessTTL  time.Duration `yaml:"access_token_ttl" env-default:"15m"`
	RefreshTTL time.Duration `yaml:"refresh_token_ttl" env-default:"720h"`
}

type MagicLink struct {
	TTL         time.Duration `yaml:"ttl" env-default:"15m"`
	RedirectURL string        `yaml:"redirect_url" env:"MAGIC_LINK_REDIRECT_URL" env-default:"http://localhost:3000/auth/callback"`
}

const (
	MailSendgrid = "sendgrid"
	MailConsole  = "console"
)

type Mail struct {
	Provider       string `yaml:"provider" env:"MAIL_PROVIDER" env-default:"console"`
	SendgridAPIKey string `yaml:"sendgrid_api_key" env:"SENDGRID_API_KEY"`
	FromName       string `yaml:"from_name" env-default:"ZuluSkills"`
	FromAddress    string `yaml:"from_address" env:"MAIL_FROM_ADDRESS" env-default:"no-reply@zuluskills.local"`
	SubjectPrefix  string `yaml:"subject_prefix"`
}

type ES struct {
	Hosts    []string `yaml:"hosts" env:"ELASTICSEARCH_HOSTS"`
	Index    string   `yaml:"index" env-default:"courses"`
	Password string   `yaml:"password" env:"ELASTICSEARCH_PASSWORD"`
}

type Minio struct {
	Endpoint  string                  `yaml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKey string                  `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey string                  `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	UseSSL    bool                    `yaml:"use_ssl"`
	Buckets   map[string]BucketConfig `yaml:"buckets"`
}

type BucketConfig struct {
	Name       string        `yaml:"name"`
	PresignTTL time.Duration `yaml:"presign_ttl"`
}

const AvatarsBucket = "avatars"

// Avatars returns the avatar bucket settings, defaulting the bucket name.
func (m Minio) Avatars() BucketConfig {
	b := m.Buckets[AvatarsBucket]
	if b.Name == "" {
		b.Name = "student-avatars"
	}
	return b
}

type Analytics struct {
	TopCourses int `yaml:"top_courses" env-default:"5"`
	WindowDays int `yaml:"window_days" env-default:"7"`
}

type Progress struct {
	StatusPolicy string `yaml:"status_policy" env:"PROGRESS_STATUS_POLICY" env-default:"in-progress"`
}

type Demo struct {
	FixturePath string `yaml:"fixture_path" env:"DEMO_FIXTURE_PATH"`
}

// Load reads the YAML file at path and applies environment overrides.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("can not read config file: %w", err)
	}
	if cfg.JWT.SecretKey == "" {
		return nil, fmt.Errorf("jwt.secret_key is required")
	}
	return &cfg, nil
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}
