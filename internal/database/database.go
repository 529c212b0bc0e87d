// Package database owns the process-wide database connection: it is opened
// once at startup, handed to the repositories and closed on shutdown.
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"katalog/internal/models"
	"katalog/internal/repositories"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config describes which store to connect to.
type Config struct {
	Driver         string
	MongoURI       string
	MongoDatabase  string
	DSN            string
	ConnectTimeout time.Duration
}

// Connection is an open database session and the repositories built on it.
type Connection struct {
	Driver   string
	Products repositories.ProductRepository

	close func(ctx context.Context) error
}

// Close releases the underlying connection.
func (c *Connection) Close(ctx context.Context) error {
	if c.close == nil {
		return nil
	}
	return c.close(ctx)
}

// Open connects to the configured store and verifies it is reachable.
func Open(ctx context.Context, cfg Config) (*Connection, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch cfg.Driver {
	case DriverMongo:
		return openMongo(ctx, cfg)
	case DriverPostgres:
		return openGORM(ctx, cfg.Driver, postgres.Open(cfg.DSN))
	case DriverSQLite:
		return openGORM(ctx, cfg.Driver, sqlite.Open(cfg.DSN))
	case DriverMemory:
		log.Println("Using in-memory product store; data is lost on restart")
		return &Connection{Driver: DriverMemory, Products: repositories.NewInMemoryProductRepository()}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func openMongo(ctx context.Context, cfg Config) (*Connection, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	log.Printf("Connected to MongoDB database %s", cfg.MongoDatabase)

	return &Connection{
		Driver:   DriverMongo,
		Products: repositories.NewMongoProductRepository(client.Database(cfg.MongoDatabase)),
		close:    client.Disconnect,
	}, nil
}

func openGORM(ctx context.Context, driver string, dialector gorm.Dialector) (*Connection, error) {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get %s handle: %w", driver, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&models.Product{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate %s: %w", driver, err)
	}
	log.Printf("Connected to %s and migrated products table", driver)

	return &Connection{
		Driver:   driver,
		Products: repositories.NewGORMProductRepository(db),
		close: func(context.Context) error {
			return sqlDB.Close()
		},
	}, nil
}
