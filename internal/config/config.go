package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=sunduqi port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Log      LogConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Seed     SeedConfig
}

type AppConfig struct {
	Name string
	Env  string // development | production
}

type HTTPConfig struct {
	Port        string
	CORSOrigins string // comma separated
	BodyLimitMB int
}

type DatabaseConfig struct {
	Driver          string // postgres | sqlite
	DSN             string
	AutoMigrate     bool
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	SlowQuery       time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr or a file path
}

// StorageConfig selects where voucher attachments are written.
type StorageConfig struct {
	Driver      string // local | s3
	LocalDir    string
	PublicPath  string // URL prefix the local directory is served under
	MaxUploadMB int
	S3          S3Config
}

type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	PublicURL    string
}

// RedisConfig is optional; an empty Addr disables the dashboard cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	StatsTTL time.Duration
}

type SeedConfig struct {
	AdminUsername string
	AdminPassword string
	DemoBranches  int
}

// Load reads configuration with the following priority (highest first):
// environment variables, .env file, config.toml, built-in defaults.
// The historical variable names (HTTP_PORT, DATABASE_DSN, JWT_SECRET,
// CORS_ALLOWED_ORIGINS) are still honoured next to the SUNDUQI_ prefix.
func Load() (*Config, error) {
	// .env opsiyonel
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file could not be read: %w", err)
		}
	}

	setDefaults(v)

	v.SetEnvPrefix("SUNDUQI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("http.port", "SUNDUQI_HTTP_PORT", "HTTP_PORT")
	_ = v.BindEnv("http.cors_origins", "SUNDUQI_HTTP_CORS_ORIGINS", "CORS_ALLOWED_ORIGINS")
	_ = v.BindEnv("database.dsn", "SUNDUQI_DATABASE_DSN", "DATABASE_DSN")
	_ = v.BindEnv("jwt.secret", "SUNDUQI_JWT_SECRET", "JWT_SECRET")

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		HTTP: HTTPConfig{
			Port:        v.GetString("http.port"),
			CORSOrigins: v.GetString("http.cors_origins"),
			BodyLimitMB: v.GetInt("http.body_limit_mb"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("database.driver")),
			DSN:             v.GetString("database.dsn"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			SlowQuery:       v.GetDuration("database.slow_query"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Expiration: v.GetDuration("jwt.expiration"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(v.GetString("storage.driver")),
			LocalDir:    v.GetString("storage.local_dir"),
			PublicPath:  v.GetString("storage.public_path"),
			MaxUploadMB: v.GetInt("storage.max_upload_mb"),
			S3: S3Config{
				Endpoint:     v.GetString("storage.s3.endpoint"),
				Region:       v.GetString("storage.s3.region"),
				Bucket:       v.GetString("storage.s3.bucket"),
				AccessKey:    v.GetString("storage.s3.access_key"),
				SecretKey:    v.GetString("storage.s3.secret_key"),
				UsePathStyle: v.GetBool("storage.s3.use_path_style"),
				PublicURL:    v.GetString("storage.s3.public_url"),
			},
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			StatsTTL: v.GetDuration("redis.stats_ttl"),
		},
		Seed: SeedConfig{
			AdminUsername: v.GetString("seed.admin_username"),
			AdminPassword: v.GetString("seed.admin_password"),
			DemoBranches:  v.GetInt("seed.demo_branches"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "sunduqi")
	v.SetDefault("app.env", "development")

	v.SetDefault("http.port", "8080")
	v.SetDefault("http.cors_origins", defaultCORSOrigins)
	v.SetDefault("http.body_limit_mb", 10)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", defaultDSN)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.slow_query", 200*time.Millisecond)

	v.SetDefault("jwt.expiration", 24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_dir", "./uploads")
	v.SetDefault("storage.public_path", "/uploads")
	v.SetDefault("storage.max_upload_mb", 5)
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.use_path_style", true)

	v.SetDefault("redis.stats_ttl", 30*time.Second)

	v.SetDefault("seed.admin_username", "admin")
	v.SetDefault("seed.demo_branches", 2)
}

// Validate rejects configurations that must never reach production.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q (postgres|sqlite)", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket is required when storage.driver is s3")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q (local|s3)", c.Storage.Driver)
	}
	return nil
}

// Warnings lists the defaults that are fine for development but not for production.
func (c *Config) Warnings() []string {
	var w []string
	if c.Database.Driver == "postgres" && c.Database.DSN == defaultDSN {
		w = append(w, "DATABASE_DSN uses the default value, set your own Postgres DSN for production")
	}
	if c.HTTP.CORSOrigins == defaultCORSOrigins {
		w = append(w, "CORS_ALLOWED_ORIGINS uses the default value, set your own domain for production")
	}
	if c.Seed.AdminPassword == "" {
		w = append(w, "seed.admin_password is empty, db:seed will not create an admin user")
	}
	return w
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
