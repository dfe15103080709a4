// internal/config/config.go
package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	URL    string `mapstructure:"url"`
	Driver string `mapstructure:"driver"` // postgres | sqlite
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type AppConfig struct {
	Name           string `mapstructure:"name"`
	ReviewLimit    int    `mapstructure:"review_limit"`
	DailyWordLimit int    `mapstructure:"daily_word_limit"`
	QuotaTimezone  string `mapstructure:"quota_timezone"`
}

type AuthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type JWTConfig struct {
	SecretKey      string        `mapstructure:"secret_key"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type QuotaConfig struct {
	Backend string `mapstructure:"backend"` // db | redis
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type ReminderConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"`
}

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	App      AppConfig      `mapstructure:"app"`
	Auth     AuthConfig     `mapstructure:"auth"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Quota    QuotaConfig    `mapstructure:"quota"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Reminder ReminderConfig `mapstructure:"reminder"`
}

var Cfg Config

// QuotaLocation は日付の区切りに使うタイムゾーンを返します。不正な値の場合は UTC です。
func (c *Config) QuotaLocation() *time.Location {
	if c.App.QuotaTimezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.App.QuotaTimezone)
	if err != nil {
		log.Printf("Invalid quota timezone %q, falling back to UTC: %v", c.App.QuotaTimezone, err)
		return time.UTC
	}
	return loc
}

func LoadConfig(path string) error {
	// .env があれば環境変数として読み込む (なくてもよい)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("APP") // 例: APP_DATABASE_URL
	viper.AutomaticEnv()
	viper.BindEnv("auth.enabled", "AUTH_ENABLED")
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("redis.url", "REDIS_URL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Warning: Config file not found. Using default settings or environment variables if available.")
		} else {
			log.Printf("Error reading config file: %s\n", err)
			return err
		}
	}

	if err := viper.Unmarshal(&Cfg); err != nil {
		log.Printf("Error unmarshalling config: %s\n", err)
		return err
	}

	applyDefaults(&Cfg)

	// Auth.Enabled は明示されていなければ有効
	if !viper.IsSet("auth.enabled") {
		log.Println("Auth enabled flag not set, defaulting to true (enabled)")
		Cfg.Auth.Enabled = true
	}

	log.Println("Config loaded successfully")
	log.Printf("Server Port: %s", Cfg.Server.Port)
	log.Printf("Daily Word Limit: %d", Cfg.App.DailyWordLimit)
	log.Printf("Quota Backend: %s", Cfg.Quota.Backend)
	log.Printf("Auth Enabled: %t", Cfg.Auth.Enabled)

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDatabaseDriver
	}
	if cfg.Database.URL == "" {
		log.Println("Warning: Database URL is not set in config.")
	}
	if cfg.App.Name == "" {
		cfg.App.Name = AppName
	}
	if cfg.App.ReviewLimit <= 0 {
		cfg.App.ReviewLimit = DefaultAppReviewLimit
	}
	if cfg.App.DailyWordLimit <= 0 {
		cfg.App.DailyWordLimit = DefaultDailyWordLimit
	}
	if cfg.App.QuotaTimezone == "" {
		cfg.App.QuotaTimezone = DefaultQuotaTimezone
	}
	if cfg.JWT.AccessTokenTTL <= 0 {
		cfg.JWT.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if cfg.JWT.SecretKey == "" {
		log.Println("Warning: JWT secret key is not set in config.")
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Quota.Backend == "" {
		cfg.Quota.Backend = QuotaBackendDB
	}
	if cfg.Reminder.Cron == "" {
		cfg.Reminder.Cron = DefaultReminderCron
	}
}
