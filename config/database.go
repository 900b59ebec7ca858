package config

import (
	"context"
	"fmt"
	"time"

	"codegram-backend/internal/domain"
	"codegram-backend/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Database struct {
	PG    *gorm.DB
	Mongo *mongo.Database
}

func ConnectDB(cfg *Config, log *logger.Logger) (*Database, error) {
	// 1. PostgreSQL Connection
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		cfg.DBHost,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBPort,
		cfg.DBTimeZone,
	)
	pgDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	// 2. MongoDB Connection (replica set required for transactions)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	log.Info("Connected to PostgreSQL and MongoDB", "mongo_db", cfg.MongoDBName)

	return &Database{
		PG:    pgDB,
		Mongo: mongoClient.Database(cfg.MongoDBName),
	}, nil
}

func (d *Database) Close(ctx context.Context) {
	if d.Mongo != nil {
		_ = d.Mongo.Client().Disconnect(ctx)
	}
	if sqlDB, err := d.PG.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Account{},
	)
}

// ConnectRedis returns nil when REDIS_ADDR is not configured.
func ConnectRedis(cfg *Config) (*goredis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
