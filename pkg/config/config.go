package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Storage drivers supported for uploaded files.
const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

// Email providers.
const (
	EmailProviderResend  = "resend"
	EmailProviderConsole = "console"
)

type Config struct {
	Env         string
	Port        int
	APIPrefix   string
	FrontendURL string

	Database      DatabaseConfig
	Redis         RedisConfig
	Cache         CacheConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Payment       PaymentConfig
	Email         EmailConfig
	Uploads       UploadsConfig
	Gamification  GamificationConfig
	PasswordReset PasswordResetConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig toggles Redis backed read caches.
type CacheConfig struct {
	Enabled     bool
	CalendarTTL time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PaymentConfig configures the payment flows and the Khalti gateway client.
type PaymentConfig struct {
	SentinelToken  string
	DemoMode       bool
	GatewayBaseURL string
	GatewaySecret  string
	Timeout        time.Duration
	ReturnURL      string
	WebsiteURL     string
}

// EmailConfig configures outbound email delivery.
type EmailConfig struct {
	Provider     string
	ResendAPIKey string
	From         string
	Timeout      time.Duration
	Workers      int
	MaxRetries   int
	RetryDelay   time.Duration
}

// UploadsConfig controls where uploaded files go and how they are served.
type UploadsConfig struct {
	Driver           string
	Dir              string
	MaxFileSizeBytes int64
	SignedURLSecret  string
	SignedURLTTL     time.Duration
	S3               S3Config
}

// S3Config holds bucket settings for the S3 storage driver.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Timeout         time.Duration
}

// GamificationConfig tunes point accrual.
type GamificationConfig struct {
	AttendancePoints int
}

// PasswordResetConfig tunes the reset code flow.
type PasswordResetConfig struct {
	CodeTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.FrontendURL = strings.TrimRight(v.GetString("FRONTEND_URL"), "/")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled:     v.GetBool("ENABLE_CACHE"),
		CalendarTTL: parseDuration(v.GetString("CALENDAR_CACHE_TTL"), 5*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Payment = PaymentConfig{
		SentinelToken:  v.GetString("PAYMENT_SENTINEL_TOKEN"),
		DemoMode:       v.GetBool("PAYMENT_DEMO_MODE"),
		GatewayBaseURL: strings.TrimRight(v.GetString("KHALTI_BASE_URL"), "/"),
		GatewaySecret:  v.GetString("KHALTI_SECRET_KEY"),
		Timeout:        parseDuration(v.GetString("PAYMENT_TIMEOUT"), 10*time.Second),
		ReturnURL:      v.GetString("PAYMENT_RETURN_URL"),
		WebsiteURL:     v.GetString("PAYMENT_WEBSITE_URL"),
	}

	cfg.Email = EmailConfig{
		Provider:     strings.ToLower(v.GetString("EMAIL_PROVIDER")),
		ResendAPIKey: v.GetString("RESEND_API_KEY"),
		From:         v.GetString("EMAIL_FROM"),
		Timeout:      parseDuration(v.GetString("EMAIL_TIMEOUT"), 10*time.Second),
		Workers:      v.GetInt("EMAIL_WORKERS"),
		MaxRetries:   v.GetInt("EMAIL_MAX_RETRIES"),
		RetryDelay:   parseDuration(v.GetString("EMAIL_RETRY_DELAY"), 5*time.Second),
	}

	maxUpload := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		Driver:           strings.ToLower(v.GetString("STORAGE_DRIVER")),
		Dir:              v.GetString("UPLOADS_DIR"),
		MaxFileSizeBytes: maxUpload,
		SignedURLSecret:  v.GetString("UPLOADS_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("UPLOADS_SIGNED_URL_TTL"), 24*time.Hour),
		S3: S3Config{
			Bucket:          v.GetString("S3_BUCKET"),
			Region:          v.GetString("S3_REGION"),
			Endpoint:        v.GetString("S3_ENDPOINT"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			Timeout:         parseDuration(v.GetString("S3_TIMEOUT"), 30*time.Second),
		},
	}

	cfg.Gamification = GamificationConfig{AttendancePoints: v.GetInt("GAMIFICATION_ATTENDANCE_POINTS")}

	cfg.PasswordReset = PasswordResetConfig{
		CodeTTL: parseDuration(v.GetString("RESET_CODE_TTL"), time.Hour),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 5000)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "playpulse")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CALENDAR_CACHE_TTL", "5m")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "1h")
	v.SetDefault("JWT_ISSUER", "playpulse-api")

	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PAYMENT_SENTINEL_TOKEN", "fake-khalti-token")
	v.SetDefault("PAYMENT_DEMO_MODE", false)
	v.SetDefault("KHALTI_BASE_URL", "https://dev.khalti.com/api/v2")
	v.SetDefault("KHALTI_SECRET_KEY", "")
	v.SetDefault("PAYMENT_TIMEOUT", "10s")
	v.SetDefault("PAYMENT_RETURN_URL", "http://localhost:5000/api/v1/parent/payment-success")
	v.SetDefault("PAYMENT_WEBSITE_URL", "http://localhost:3000")

	v.SetDefault("EMAIL_PROVIDER", EmailProviderConsole)
	v.SetDefault("RESEND_API_KEY", "")
	v.SetDefault("EMAIL_FROM", "PlayPulse <no-reply@playpulse.local>")
	v.SetDefault("EMAIL_TIMEOUT", "10s")
	v.SetDefault("EMAIL_WORKERS", 2)
	v.SetDefault("EMAIL_MAX_RETRIES", 3)
	v.SetDefault("EMAIL_RETRY_DELAY", "5s")

	v.SetDefault("STORAGE_DRIVER", StorageDriverLocal)
	v.SetDefault("UPLOADS_DIR", "./uploads")
	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("UPLOADS_SIGNED_URL_SECRET", "dev_uploads_secret")
	v.SetDefault("UPLOADS_SIGNED_URL_TTL", "24h")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_ACCESS_KEY_ID", "")
	v.SetDefault("S3_SECRET_ACCESS_KEY", "")
	v.SetDefault("S3_TIMEOUT", "30s")

	v.SetDefault("GAMIFICATION_ATTENDANCE_POINTS", 5)
	v.SetDefault("RESET_CODE_TTL", "1h")
}

// isMissingFile reports whether viper failed only because .env does not exist.
// viper returns a plain *fs.PathError for an explicit SetConfigFile.
func isMissingFile(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
