package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Storage  StorageConfig  `yaml:"storage"`
	Redis    RedisConfig    `yaml:"redis"`
	Google   GoogleConfig   `yaml:"google"`
	Sweep    SweepConfig    `yaml:"sweep"`
	Login    LoginConfig    `yaml:"login"`
}

type AppConfig struct {
	Port          string `yaml:"port"`
	LogLevel      string `yaml:"log_level"`
	CORSOrigins   string `yaml:"cors_origins"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // postgres, mysql, sqlite
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpiresMin int    `yaml:"expires_min"`
}

type StorageConfig struct {
	Driver      string      `yaml:"driver"` // local, minio
	UploadDir   string      `yaml:"upload_dir"`
	MaxUploadMB int         `yaml:"max_upload_mb"`
	MinIO       MinIOConfig `yaml:"minio"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
	Bucket    string `yaml:"bucket"`
}

// RedisConfig backs the notification relay and the sweep lock. Without it
// notifications stay inside one process.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RedirectURL != ""
}

type SweepConfig struct {
	Spec  string        `yaml:"spec"`
	Grace time.Duration `yaml:"grace"`
}

type LoginConfig struct {
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

func Default() Config {
	return Config{
		App: AppConfig{
			Port:        "8080",
			LogLevel:    "info",
			CORSOrigins: "http://127.0.0.1:3000, http://localhost:3000",
		},
		Database: DatabaseConfig{
			Driver: "postgres",
		},
		JWT: JWTConfig{
			ExpiresMin: 10080,
		},
		Storage: StorageConfig{
			Driver:      "local",
			UploadDir:   "./www/uploads",
			MaxUploadMB: 25,
			MinIO: MinIOConfig{
				Endpoint: "localhost:9000",
				Region:   "us-east-1",
				Bucket:   "artifacts",
			},
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Sweep: SweepConfig{
			Spec:  "@every 1h",
			Grace: time.Hour,
		},
		Login: LoginConfig{
			RatePerSecond: 1,
			Burst:         5,
		},
	}
}

// Load reads CONFIG_FILE (optional) and the environment. It panics when the
// result is unusable, same as a missing required env var.
func Load() Config {
	cfg, err := LoadFile(get("CONFIG_FILE", ""))
	if err != nil {
		panic("config: " + err.Error())
	}
	return cfg
}

// LoadFile starts from Default, overlays the YAML file at path when it exists,
// then applies environment overrides and validates.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := cfg.overrideFromEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) overrideFromEnv() error {
	setString(&c.App.Port, "APP_PORT")
	setString(&c.App.LogLevel, "LOG_LEVEL")
	setString(&c.App.CORSOrigins, "CORS_ORIGINS")
	setString(&c.App.PublicBaseURL, "APP_BASE_URL")

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.DSN, "DB_DSN")

	setString(&c.JWT.Secret, "JWT_SECRET")

	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Storage.UploadDir, "UPLOAD_DIR")
	setString(&c.Storage.MinIO.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Storage.MinIO.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Storage.MinIO.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Storage.MinIO.Region, "MINIO_REGION")
	setString(&c.Storage.MinIO.Bucket, "MINIO_BUCKET")

	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")

	setString(&c.Google.ClientID, "GOOGLE_CLIENT_ID")
	setString(&c.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&c.Google.RedirectURL, "GOOGLE_REDIRECT_URL")

	setString(&c.Sweep.Spec, "ORPHAN_SWEEP_SPEC")

	return errors.Join(
		setInt(&c.JWT.ExpiresMin, "JWT_EXPIRES_MIN"),
		setInt(&c.Storage.MaxUploadMB, "MAX_UPLOAD_MB"),
		setBool(&c.Storage.MinIO.UseSSL, "MINIO_USE_SSL"),
		setBool(&c.Redis.Enabled, "REDIS_ENABLED"),
		setInt(&c.Redis.DB, "REDIS_DB"),
		setDuration(&c.Sweep.Grace, "ORPHAN_GRACE"),
		setFloat(&c.Login.RatePerSecond, "LOGIN_RATE_RPS"),
		setInt(&c.Login.Burst, "LOGIN_RATE_BURST"),
	)
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("missing env: JWT_SECRET")
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("missing env: DB_DSN")
	}
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %q", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "local":
		if strings.TrimSpace(c.Storage.UploadDir) == "" {
			return errors.New("UPLOAD_DIR is required for local storage")
		}
	case "minio":
		if strings.Contains(c.Storage.MinIO.Endpoint, "://") {
			return fmt.Errorf("MINIO_ENDPOINT must not include scheme: %q", c.Storage.MinIO.Endpoint)
		}
		if c.Storage.MinIO.AccessKey == "" || c.Storage.MinIO.SecretKey == "" {
			return errors.New("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required")
		}
		if c.Storage.MinIO.Bucket == "" {
			return errors.New("MINIO_BUCKET is required")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER: %q", c.Storage.Driver)
	}
	if c.Storage.MaxUploadMB <= 0 {
		return errors.New("MAX_UPLOAD_MB must be positive")
	}
	if c.JWT.ExpiresMin <= 0 {
		return errors.New("JWT_EXPIRES_MIN must be positive")
	}
	if c.Sweep.Grace < 0 {
		return errors.New("ORPHAN_GRACE must be >= 0")
	}
	return nil
}

func (c Config) MaxUploadBytes() int64 {
	return int64(c.Storage.MaxUploadMB) * 1024 * 1024
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func setString(dst *string, k string) {
	if v := os.Getenv(k); v != "" {
		*dst = v
	}
}

func setInt(dst *int, k string) error {
	v := os.Getenv(k)
	if v == "" {
		return nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", k, err)
	}
	*dst = i
	return nil
}

func setBool(dst *bool, k string) error {
	v := os.Getenv(k)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", k, err)
	}
	*dst = b
	return nil
}

func setFloat(dst *float64, k string) error {
	v := os.Getenv(k)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", k, err)
	}
	*dst = f
	return nil
}

func setDuration(dst *time.Duration, k string) error {
	v := os.Getenv(k)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", k, err)
	}
	*dst = d
	return nil
}
