// Package repositories provides the data access layer.
// It owns the PostgreSQL connection, schema migrations, and the Redis
// cache shared by the application.
package repositories

import (
	"log"
	"os"
	"time"

	"bridgepay/internal/config"
	"bridgepay/internal/models"
	"bridgepay/internal/repositories/cache"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global database instance used across the application.
var DB *gorm.DB

// CacheService is the global Redis-backed cache.
var CacheService *cache.CacheService

// DBConfig holds database connection pool configuration
type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

var dbConfig = DBConfig{
	MaxIdleConns:    10,
	MaxOpenConns:    100,
	ConnMaxLifetime: time.Hour,
	ConnMaxIdleTime: time.Minute * 30,
}

// InitDB initializes the database connection.
// It sets up the connection pool, performs migrations, and connects
// the Redis cache service.
func InitDB() error {
	initPostgres()

	redisCfg := &cache.RedisConfig{
		Host:     config.GetEnv("REDIS_HOST", "localhost"),
		Port:     config.GetEnv("REDIS_PORT", "6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       config.GetIntEnv("REDIS_DB", 0),
	}
	redisClient := cache.NewRedisClient(redisCfg)
	CacheService = cache.NewCacheService(redisClient, 24*time.Hour)

	return DB.AutoMigrate(
		&models.User{},
		&models.Transaction{},
		&models.KYCDocument{},
		&models.ExchangeRate{},
	)
}

func initPostgres() {
	dsn := "host=" + config.GetEnv("DB_HOST", "localhost") +
		" user=" + config.GetEnv("DB_USER", "postgres") +
		" password=" + config.GetEnv("DB_PASSWORD", "postgres") +
		" dbname=" + config.GetEnv("DB_NAME", "bridgepay") +
		" port=" + config.GetEnv("DB_PORT", "5432") +
		" sslmode=" + config.GetEnv("DB_SSLMODE", "disable")

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	DB = db

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get database instance:", err)
	}

	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dbConfig.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dbConfig.ConnMaxIdleTime)

	// Only log warnings and errors; "record not found" is expected flow.
	db.Logger = logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  !config.IsProduction(),
		},
	)

	log.Println("PostgreSQL connected")
}
