package database

import (
	"errors"
	"fmt"

	"smartpantry/internal/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // PostgreSQL dialect
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a unique constraint
	ErrConflict = errors.New("record already exists")
)

// Open opens a database connection and migrates the schema
func Open(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	// every new connection to ":memory:" would see an empty database
	if driver == DriverSQLite {
		db.DB().SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates all tables
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.InventoryItem{},
		&models.Recipe{},
		&models.Reminder{},
	).Error
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// translateError maps driver and gorm errors onto the package sentinels
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if gorm.IsRecordNotFoundError(err) {
		return ErrNotFound
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
