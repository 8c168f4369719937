package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port               int      `mapstructure:"port"`
		Timezone           string   `mapstructure:"timezone"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods []string `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders []string `mapstructure:"cors_allowed_headers"`
	} `mapstructure:"server"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
		MaxConns int32  `mapstructure:"max_conns"`
	} `mapstructure:"database"`

	JWT struct {
		Secret          string `mapstructure:"secret"`
		ExpirationHours int    `mapstructure:"expiration_hours"`
		Issuer          string `mapstructure:"issuer"`
	} `mapstructure:"jwt"`

	Auth struct {
		MaxLoginAttempts int    `mapstructure:"max_login_attempts"`
		LockoutMinutes   int    `mapstructure:"lockout_minutes"`
		RateLimitPerMin  int    `mapstructure:"rate_limit_per_min"`
		RateLimitBurst   int    `mapstructure:"rate_limit_burst"`
		TOTPIssuer       string `mapstructure:"totp_issuer"`
	} `mapstructure:"auth"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Storage struct {
		Driver          string `mapstructure:"driver"` // s3, minio or local
		Endpoint        string `mapstructure:"endpoint"`
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		UseSSL          bool   `mapstructure:"use_ssl"`
		Prefix          string `mapstructure:"prefix"`
		BaseDir         string `mapstructure:"base_dir"`
		PublicPrefix    string `mapstructure:"public_prefix"`
		PresignMinutes  int    `mapstructure:"presign_minutes"`
	} `mapstructure:"storage"`

	Billing struct {
		MonthlyDues      string  `mapstructure:"monthly_dues"`
		DueDay           int     `mapstructure:"due_day"`
		PenaltyPercent   float64 `mapstructure:"penalty_percent"`
		OverdueCron      string  `mapstructure:"overdue_cron"`
		GenerateDuesCron string  `mapstructure:"generate_dues_cron"`
		Currency         string  `mapstructure:"currency"`
	} `mapstructure:"billing"`

	Razorpay struct {
		KeyID     string `mapstructure:"key_id"`
		KeySecret string `mapstructure:"key_secret"`
	} `mapstructure:"razorpay"`
}

// LockoutWindow returns the login lockout window as a duration
func (c *Config) LockoutWindow() time.Duration {
	return time.Duration(c.Auth.LockoutMinutes) * time.Minute
}

// PresignTTL returns how long presigned proof URLs stay valid
func (c *Config) PresignTTL() time.Duration {
	return time.Duration(c.Storage.PresignMinutes) * time.Minute
}

func Load() *Config {
	// Load .env file if exists (ignore error in production)
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("configs/config.yaml")

	v.AutomaticEnv()

	// Sensible defaults (binary works without config file)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timezone", "Asia/Manila")
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Authorization", "Content-Type"})
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("jwt.issuer", "hoa-backend")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "hoa_db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("auth.max_login_attempts", 5)
	v.SetDefault("auth.lockout_minutes", 15)
	v.SetDefault("auth.rate_limit_per_min", 30)
	v.SetDefault("auth.rate_limit_burst", 10)
	v.SetDefault("auth.totp_issuer", "HOA Portal")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.bucket", "hoa-proofs")
	v.SetDefault("storage.prefix", "proofs/")
	v.SetDefault("storage.base_dir", "./uploads")
	v.SetDefault("storage.public_prefix", "/files")
	v.SetDefault("storage.presign_minutes", 15)
	v.SetDefault("billing.monthly_dues", "2500")
	v.SetDefault("billing.due_day", 15)
	v.SetDefault("billing.penalty_percent", 10)
	v.SetDefault("billing.overdue_cron", "0 1 * * *")
	v.SetDefault("billing.generate_dues_cron", "0 0 1 * *")
	v.SetDefault("billing.currency", "PHP")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		logrus.Infof("[Config] No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		logrus.Fatalf("config unmarshal error: %v", err)
	}

	// Override database settings from DB_* environment variables
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Database.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.Database.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Database.Name = name
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}

	if driver := os.Getenv("STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if endpoint := os.Getenv("STORAGE_ENDPOINT"); endpoint != "" {
		cfg.Storage.Endpoint = endpoint
	}
	if key := os.Getenv("STORAGE_ACCESS_KEY_ID"); key != "" {
		cfg.Storage.AccessKeyID = key
	}
	if secret := os.Getenv("STORAGE_SECRET_ACCESS_KEY"); secret != "" {
		cfg.Storage.SecretAccessKey = secret
	}

	if cfg.JWT.Secret == "" || cfg.JWT.Secret == "${JWT_SECRET}" {
		cfg.JWT.Secret = os.Getenv("JWT_SECRET")
		if cfg.JWT.Secret == "" {
			logrus.Fatal("JWT_SECRET not found in config or environment")
		}
	}

	if keyID := os.Getenv("RAZORPAY_KEY_ID"); keyID != "" {
		cfg.Razorpay.KeyID = keyID
	}
	if keySecret := os.Getenv("RAZORPAY_KEY_SECRET"); keySecret != "" {
		cfg.Razorpay.KeySecret = keySecret
	}

	return &cfg
}
