package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "AUTHGATE"

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		Driver string
		Path   string
		DSN    string
	}
	Auth    Auth
	Storage Storage
	AWS     struct {
		Profile string
	}
	Log struct {
		Level string
	}
}

// Auth configures token signing and password hashing.
// SecretBucket/SecretKey, when set, name an S3 object holding the signing secret
// and take precedence over JWTSecret.
type Auth struct {
	JWTSecret    string
	TokenTTL     time.Duration
	Issuer       string
	BcryptCost   int
	SecretBucket string
	SecretKey    string
}

// SecretFromStorage reports whether the signing secret lives in object storage.
func (a Auth) SecretFromStorage() bool {
	return a.SecretBucket != "" || a.SecretKey != ""
}

type Storage struct {
	Region   string
	Endpoint string
}

// Load reads configuration from environment variables, an optional .env file and
// an optional config file in the working directory.
func Load() (Config, error) {
	// existing environment wins over .env
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/authgate.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttl", "24h")
	v.SetDefault("auth.issuer", "authgate")
	v.SetDefault("auth.bcryptcost", 10)
	v.SetDefault("auth.secretbucket", "")
	v.SetDefault("auth.secretkey", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("log.level", "info")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that do not depend on external systems.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if strings.TrimSpace(c.Database.Path) == "" {
			return errors.New("database.path is required for sqlite")
		}
	case "postgres":
		if strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("database.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.tokenttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Auth.SecretFromStorage() {
		if c.Auth.SecretBucket == "" || c.Auth.SecretKey == "" {
			return errors.New("auth.secretbucket and auth.secretkey must be set together")
		}
	} else if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth jwt secret is required")
	}
	return nil
}
