// Package database opens the GORM connection backing the poem event
// ledger. SQLite serves single-instance deployments; PostgreSQL and
// MySQL serve shared ones.
package database

import (
	"fmt"

	"github.com/chronoverse/chronoverse/internal/models"

	"gorm.io/gorm"
)

type DB struct {
	*gorm.DB
	config     models.DatabaseConfig
	driverName string
}

func New(config models.DatabaseConfig) (*DB, error) {
	var (
		db  *DB
		err error
	)

	switch config.Type {
	case models.PostgreSQL:
		db, err = newPostgreSQL(config)
	case models.MySQL:
		db, err = newMySQL(config)
	case models.SQLite:
		db, err = newSQLite(config)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.PoemEvent{}); err != nil {
		return nil, fmt.Errorf("failed to migrate poem events schema: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (db *DB) Ping() error {
	if db.DB == nil {
		return fmt.Errorf("database not connected")
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (db *DB) DriverName() string {
	return db.driverName
}

func (db *DB) setConnectionPool() {
	if db.DB == nil {
		return
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return
	}

	if db.config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(db.config.MaxOpenConns)
	}
	if db.config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(db.config.MaxIdleConns)
	}
}
