// Package config loads process configuration once at startup from the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"katalog/internal/database"
	"katalog/internal/storage"
	"katalog/pkg/rabbitmq"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the complete application configuration.
type Config struct {
	Port        string
	BodyLimitMB int
	CORSOrigins string

	Database database.Config
	Storage  storage.Config
	RabbitMQ rabbitmq.Config
}

// Addr is the address the HTTP server listens on.
func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// BodyLimit is the maximum request body size in bytes.
func (c *Config) BodyLimit() int {
	return c.BodyLimitMB * 1024 * 1024
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load .env file: %v", err)
	}
	return FromViper(NewViper())
}

// NewViper returns a viper instance with every default set and env binding enabled.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("PORT", "5000")
	v.SetDefault("BODY_LIMIT_MB", 10)
	v.SetDefault("CORS_ORIGINS", "*")

	v.SetDefault("DB_DRIVER", database.DriverMongo)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "katalog")
	v.SetDefault("DATABASE_DSN", "katalog.db")
	v.SetDefault("DB_CONNECT_TIMEOUT", "10s")

	v.SetDefault("STORAGE_DRIVER", storage.DriverLocal)
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("UPLOAD_PUBLIC_PATH", "/uploads")
	v.SetDefault("CLOUDINARY_URL", "")
	v.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	v.SetDefault("CLOUDINARY_API_KEY", "")
	v.SetDefault("CLOUDINARY_API_SECRET", "")
	v.SetDefault("CLOUDINARY_FOLDER", "products")

	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", rabbitmq.DefaultQueue)

	v.AutomaticEnv()
	return v
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:        v.GetString("PORT"),
		BodyLimitMB: v.GetInt("BODY_LIMIT_MB"),
		CORSOrigins: v.GetString("CORS_ORIGINS"),
		Database: database.Config{
			Driver:         strings.ToLower(v.GetString("DB_DRIVER")),
			MongoURI:       v.GetString("MONGO_URI"),
			MongoDatabase:  v.GetString("MONGO_DATABASE"),
			DSN:            v.GetString("DATABASE_DSN"),
			ConnectTimeout: v.GetDuration("DB_CONNECT_TIMEOUT"),
		},
		Storage: storage.Config{
			Driver:              strings.ToLower(v.GetString("STORAGE_DRIVER")),
			UploadDir:           v.GetString("UPLOAD_DIR"),
			PublicPath:          v.GetString("UPLOAD_PUBLIC_PATH"),
			CloudinaryURL:       v.GetString("CLOUDINARY_URL"),
			CloudinaryCloudName: v.GetString("CLOUDINARY_CLOUD_NAME"),
			CloudinaryAPIKey:    v.GetString("CLOUDINARY_API_KEY"),
			CloudinaryAPISecret: v.GetString("CLOUDINARY_API_SECRET"),
			CloudinaryFolder:    v.GetString("CLOUDINARY_FOLDER"),
		},
		RabbitMQ: rabbitmq.Config{
			URL:   v.GetString("RABBITMQ_URL"),
			Queue: v.GetString("RABBITMQ_QUEUE"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the process cannot start with.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT must be set")
	}
	if c.BodyLimitMB <= 0 {
		return fmt.Errorf("BODY_LIMIT_MB must be positive, got %d", c.BodyLimitMB)
	}

	switch c.Database.Driver {
	case database.DriverMongo:
		if c.Database.MongoURI == "" || c.Database.MongoDatabase == "" {
			return errors.New("MONGO_URI and MONGO_DATABASE are required for the mongo driver")
		}
	case database.DriverPostgres, database.DriverSQLite:
		if c.Database.DSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for the %s driver", c.Database.Driver)
		}
	case database.DriverMemory:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Storage.Driver {
	case storage.DriverLocal:
		if c.Storage.UploadDir == "" {
			return errors.New("UPLOAD_DIR is required for local storage")
		}
	case storage.DriverCloudinary:
		hasParams := c.Storage.CloudinaryCloudName != "" && c.Storage.CloudinaryAPIKey != "" && c.Storage.CloudinaryAPISecret != ""
		if c.Storage.CloudinaryURL == "" && !hasParams {
			return errors.New("CLOUDINARY_URL or CLOUDINARY_CLOUD_NAME/API_KEY/API_SECRET are required for cloudinary storage")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	return nil
}
