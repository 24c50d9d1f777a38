package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ConnectArchive establishes a connection to the PostgreSQL archive database
// using the provided DSN.
func ConnectArchive(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("archive dsn must not be empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}
