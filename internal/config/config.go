package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"reviewhub_backend/pkg/apperrors"
)

const (
	defaultAvatarMaxBytes = 5 * 1024 * 1024
	defaultAvatarFolder   = "review-app/avatars"
)

// Config is built once at startup and passed explicitly to every component.
type Config struct {
	Server struct {
		Host          string   `yaml:"host"`
		Port          int      `yaml:"port"`
		Env           string   `yaml:"env"`
		PublicBaseURL string   `yaml:"public_base_url"`
		CORSOrigins   []string `yaml:"cors_origins"`
	} `yaml:"server"`

	Database struct {
		DSN     string `yaml:"url"`
		MaxOpen int    `yaml:"max_open"`
		MaxIdle int    `yaml:"max_idle"`
	} `yaml:"database"`

	Auth struct {
		SessionSecret     string `yaml:"session_secret"`
		AdminEmail        string `yaml:"admin_email"`
		AdminPasswordHash string `yaml:"admin_password_hash"`
		SessionTTLHours   int    `yaml:"session_ttl_hours"`
		CookieName        string `yaml:"cookie_name"`
	} `yaml:"auth"`

	Media struct {
		Provider      string `yaml:"provider"` // cloudinary, r2
		CloudName     string `yaml:"cloud_name"`
		APIKey        string `yaml:"api_key"`
		APISecret     string `yaml:"api_secret"`
		Folder        string `yaml:"folder"`
		Bucket        string `yaml:"bucket"`
		Endpoint      string `yaml:"endpoint"`
		AccessKey     string `yaml:"access_key"`
		SecretKey     string `yaml:"secret_key"`
		PublicBaseURL string `yaml:"public_base_url"`
		MaxBytes      int64  `yaml:"max_bytes"`
		TimeoutSec    int    `yaml:"timeout_sec"`
	} `yaml:"media"`

	Catalog struct {
		BaseURL    string `yaml:"base_url"`
		APIKey     string `yaml:"api_key"`
		TimeoutSec int    `yaml:"timeout_sec"`
	} `yaml:"catalog"`

	Chat struct {
		APIURL      string `yaml:"api_url"`
		Backend     string `yaml:"backend"`
		FeedbackURL string `yaml:"feedback_url"`
		TimeoutSec  int    `yaml:"timeout_sec"`
	} `yaml:"chat"`

	Cron struct {
		Secret string `yaml:"secret"`
	} `yaml:"cron"`

	Redis struct {
		URL             string `yaml:"url"`
		PublicPostLimit int    `yaml:"public_post_limit"`
		WindowSec       int    `yaml:"window_sec"`
	} `yaml:"redis"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		NotifyTo     string `yaml:"notify_to"`
	} `yaml:"email"`

	Telemetry struct {
		ServiceName    string  `yaml:"service_name"`
		OTelEnabled    bool    `yaml:"otel_enabled"`
		Exporter       string  `yaml:"exporter"` // stdout, otlp
		Endpoint       string  `yaml:"endpoint"`
		SampleRatio    float64 `yaml:"sample_ratio"`
		MetricsEnabled bool    `yaml:"metrics_enabled"`
	} `yaml:"telemetry"`
}

// Load reads .env (if present), then the YAML file at CONFIG_PATH (optional,
// default config/config.yaml), then applies environment overrides and defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	explicit := configPath != ""
	if !explicit {
		configPath = "config/config.yaml"
	}
	if err := loadFile(&cfg, configPath); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad is Load for entry points that cannot continue without configuration.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func loadFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Host, "SERVER_HOST")
	setInt(&cfg.Server.Port, "PORT", "SERVER_PORT")
	setString(&cfg.Server.Env, "SERVER_ENV", "APP_ENV")
	setString(&cfg.Server.PublicBaseURL, "PUBLIC_BASE_URL")
	if v := firstEnv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}

	setString(&cfg.Database.DSN, "DATABASE_URL")

	setString(&cfg.Auth.SessionSecret, "SESSION_SECRET", "ADMIN_JWT_SECRET", "JWT_SECRET")
	setString(&cfg.Auth.AdminEmail, "ADMIN_EMAIL")
	setString(&cfg.Auth.AdminPasswordHash, "ADMIN_PASSWORD_HASH")
	setInt(&cfg.Auth.SessionTTLHours, "SESSION_TTL_HOURS")

	setString(&cfg.Media.Provider, "MEDIA_PROVIDER")
	setString(&cfg.Media.CloudName, "CLOUDINARY_CLOUD_NAME")
	setString(&cfg.Media.APIKey, "CLOUDINARY_API_KEY")
	setString(&cfg.Media.APISecret, "CLOUDINARY_API_SECRET")
	setString(&cfg.Media.Folder, "MEDIA_FOLDER")
	setString(&cfg.Media.Bucket, "R2_BUCKET")
	setString(&cfg.Media.Endpoint, "R2_ENDPOINT")
	setString(&cfg.Media.AccessKey, "R2_ACCESS_KEY")
	setString(&cfg.Media.SecretKey, "R2_SECRET_KEY")
	setString(&cfg.Media.PublicBaseURL, "R2_PUBLIC_BASE_URL")

	setString(&cfg.Catalog.BaseURL, "AI_BASE_URL")
	setString(&cfg.Catalog.APIKey, "AI_API_KEY")

	setString(&cfg.Chat.APIURL, "CHATBOT_V2_API_URL")
	setString(&cfg.Chat.FeedbackURL, "FEEDBACK_API_URL")

	setString(&cfg.Cron.Secret, "CRON_SECRET")

	setString(&cfg.Redis.URL, "REDIS_URL")
	setInt(&cfg.Redis.PublicPostLimit, "RATE_LIMIT_PUBLIC_POST")

	setString(&cfg.Email.SMTPHost, "SMTP_HOST")
	setInt(&cfg.Email.SMTPPort, "SMTP_PORT")
	setString(&cfg.Email.SMTPUsername, "SMTP_USER")
	setString(&cfg.Email.SMTPPassword, "SMTP_PASSWORD")
	setString(&cfg.Email.FromEmail, "SMTP_FROM")
	setString(&cfg.Email.NotifyTo, "NOTIFY_EMAIL")

	setString(&cfg.Telemetry.ServiceName, "OTEL_SERVICE_NAME")
	setBool(&cfg.Telemetry.OTelEnabled, "OTEL_ENABLED")
	setString(&cfg.Telemetry.Exporter, "OTEL_EXPORTER")
	setString(&cfg.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.Telemetry.MetricsEnabled, "METRICS_ENABLED")
	if v := firstEnv("OTEL_SAMPLE_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Telemetry.SampleRatio = f
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Auth.SessionTTLHours <= 0 {
		cfg.Auth.SessionTTLHours = 8
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "admin_token"
	}
	cfg.Auth.AdminEmail = strings.ToLower(strings.TrimSpace(cfg.Auth.AdminEmail))
	if cfg.Media.Provider == "" {
		cfg.Media.Provider = "cloudinary"
	}
	if cfg.Media.Folder == "" {
		cfg.Media.Folder = defaultAvatarFolder
	}
	if cfg.Media.MaxBytes <= 0 {
		cfg.Media.MaxBytes = defaultAvatarMaxBytes
	}
	if cfg.Media.TimeoutSec <= 0 {
		cfg.Media.TimeoutSec = 30
	}
	if cfg.Catalog.TimeoutSec <= 0 {
		cfg.Catalog.TimeoutSec = 20
	}
	if cfg.Chat.Backend == "" {
		cfg.Chat.Backend = "langchain"
	}
	if cfg.Chat.TimeoutSec <= 0 {
		cfg.Chat.TimeoutSec = 60
	}
	if cfg.Redis.PublicPostLimit <= 0 {
		cfg.Redis.PublicPostLimit = 20
	}
	if cfg.Redis.WindowSec <= 0 {
		cfg.Redis.WindowSec = 60
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = 587
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "reviewhub-backend"
	}
	if cfg.Telemetry.Exporter == "" {
		cfg.Telemetry.Exporter = "stdout"
	}
	if cfg.Telemetry.SampleRatio <= 0 || cfg.Telemetry.SampleRatio > 1 {
		cfg.Telemetry.SampleRatio = 1
	}
}

// Validate checks the settings the process cannot start without.
// Feature-specific settings are checked lazily by the Require* helpers.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if strings.TrimSpace(c.Auth.SessionSecret) == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	} else if len(c.Auth.SessionSecret) < 16 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 16 characters"))
	}
	switch c.Media.Provider {
	case "cloudinary", "r2":
	default:
		errs = append(errs, fmt.Errorf("MEDIA_PROVIDER %q is not supported (cloudinary, r2)", c.Media.Provider))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Auth.SessionTTLHours) * time.Hour
}

func (c *Config) RequireAdminLogin() error {
	if c.Auth.AdminEmail == "" || c.Auth.AdminPasswordHash == "" {
		return apperrors.ConfigError("admin login", "ADMIN_EMAIL and ADMIN_PASSWORD_HASH must be set")
	}
	return nil
}

func (c *Config) RequireMedia() error {
	switch c.Media.Provider {
	case "r2":
		if c.Media.Bucket == "" || c.Media.Endpoint == "" || c.Media.AccessKey == "" || c.Media.SecretKey == "" {
			return apperrors.ConfigError("avatar storage", "R2_BUCKET, R2_ENDPOINT, R2_ACCESS_KEY and R2_SECRET_KEY must be set")
		}
	default:
		if c.Media.CloudName == "" || c.Media.APIKey == "" || c.Media.APISecret == "" {
			return apperrors.ConfigError("avatar storage", "CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET must be set")
		}
	}
	return nil
}

func (c *Config) RequireCatalog() error {
	if c.Catalog.BaseURL == "" {
		return apperrors.ConfigError("course sync", "AI_BASE_URL must be set")
	}
	return nil
}

func (c *Config) RequireChat() error {
	if c.Chat.APIURL == "" {
		return apperrors.ConfigError("chat relay", "CHATBOT_V2_API_URL must be set")
	}
	return nil
}

func (c *Config) RequireCron() error {
	if c.Cron.Secret == "" {
		return apperrors.ConfigError("scheduled sync", "CRON_SECRET must be set")
	}
	return nil
}

func (c *Config) MailEnabled() bool {
	return c.Email.SMTPHost != "" && c.Email.FromEmail != "" && c.Email.NotifyTo != ""
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func setString(dst *string, keys ...string) {
	if v := firstEnv(keys...); v != "" {
		*dst = v
	}
}

func setInt(dst *int, keys ...string) {
	if v := firstEnv(keys...); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, keys ...string) {
	if v := firstEnv(keys...); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
