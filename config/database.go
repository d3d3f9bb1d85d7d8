package config

import (
	"fmt"

	"github.com/kendall-kelly/tailorly-api/logger"
	"github.com/kendall-kelly/tailorly-api/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// ConnectDatabase establishes a connection to the PostgreSQL database.
func ConnectDatabase(databaseURL string) error {
	if databaseURL == "" {
		return fmt.Errorf("failed to connect to database: empty database URL")
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	DB = db
	logger.Log.Info("Database connection established successfully")
	return nil
}

// Migrate creates or updates every table the API owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

// GetDB returns the database instance.
func GetDB() *gorm.DB {
	return DB
}

// SetDB sets the database instance (primarily for testing).
func SetDB(db *gorm.DB) {
	DB = db
}
