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

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	CORS       CORSConfig
	Log        LogConfig
	Attendance AttendanceConfig
	Imports    ImportsConfig
	Reports    ReportsConfig
	Dashboard  DashboardConfig
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

type AuthConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AttendanceConfig holds the daily time-window boundaries as local
// clock values ("HH:MM") plus the IANA timezone they are evaluated in.
type AttendanceConfig struct {
	ClassStart    string
	LateThreshold string
	ClassEnd      string
	Timezone      string
}

// ImportsConfig controls roster import uploads and their artifacts.
type ImportsConfig struct {
	UploadDir        string
	QRDir            string
	ErrorLogDir      string
	MaxFileSizeBytes int64
	DefaultPeriod    int
	WorkerRetries    int
}

// ReportsConfig controls attendance report exports.
type ReportsConfig struct {
	ExportDir string
}

// DashboardConfig governs dashboard stat caching.
type DashboardConfig struct {
	CacheTTL time.Duration
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

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

	cfg.Auth = AuthConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Attendance = AttendanceConfig{
		ClassStart:    v.GetString("ATTENDANCE_CLASS_START"),
		LateThreshold: v.GetString("ATTENDANCE_LATE_THRESHOLD"),
		ClassEnd:      v.GetString("ATTENDANCE_CLASS_END"),
		Timezone:      v.GetString("ATTENDANCE_TIMEZONE"),
	}

	maxUploadSize := v.GetInt64("IMPORTS_MAX_FILE_SIZE")
	if maxUploadSize <= 0 {
		maxUploadSize = 10 * 1024 * 1024
	}
	cfg.Imports = ImportsConfig{
		UploadDir:        v.GetString("IMPORTS_UPLOAD_DIR"),
		QRDir:            v.GetString("IMPORTS_QR_DIR"),
		ErrorLogDir:      v.GetString("IMPORTS_ERROR_LOG_DIR"),
		MaxFileSizeBytes: maxUploadSize,
		DefaultPeriod:    v.GetInt("IMPORTS_DEFAULT_PERIOD"),
		WorkerRetries:    v.GetInt("IMPORTS_WORKER_RETRIES"),
	}

	cfg.Reports = ReportsConfig{
		ExportDir: v.GetString("REPORTS_EXPORT_DIR"),
	}

	cfg.Dashboard = DashboardConfig{
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "attendance")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ATTENDANCE_CLASS_START", "12:30")
	v.SetDefault("ATTENDANCE_LATE_THRESHOLD", "12:40")
	v.SetDefault("ATTENDANCE_CLASS_END", "17:30")
	v.SetDefault("ATTENDANCE_TIMEZONE", "America/Lima")

	v.SetDefault("IMPORTS_UPLOAD_DIR", "./media/uploads")
	v.SetDefault("IMPORTS_QR_DIR", "./media/qrcodes")
	v.SetDefault("IMPORTS_ERROR_LOG_DIR", "./media/import_logs")
	v.SetDefault("IMPORTS_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("IMPORTS_DEFAULT_PERIOD", 2025)
	v.SetDefault("IMPORTS_WORKER_RETRIES", 1)

	v.SetDefault("REPORTS_EXPORT_DIR", "./exports")

	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")
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
