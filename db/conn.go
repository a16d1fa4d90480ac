// Package db opens the relational store and creates the schema
package db

import (
	"bitwise74/otp-api/internal/model"
	"bitwise74/otp-api/pkg/util"
	"errors"
	"fmt"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const busyTimeoutMs = 30000

var (
	ErrNotMounted = errors.New("SQLite database file not mounted")

	inContainer = util.IsRunningInDocker
)

type Opts struct {
	// Driver is either "sqlite" or "postgres"
	Driver string
	// Path of the SQLite database file. Ignored for postgres
	Path string
	// DSN for postgres. Ignored for sqlite
	DSN string
}

// New opens the database described by o and creates missing tables. It's safe
// to call on an existing database.
func New(o Opts) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch o.Driver {
	case "", "sqlite":
		if o.Path == "" {
			return nil, errors.New("no SQLite database path provided")
		}

		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if inContainer() && !strings.HasPrefix(o.Path, "file:") {
			if _, err := os.Stat(o.Path); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w, please use docker volumes to mount it to %s", ErrNotMounted, o.Path)
			}
		}

		dialector = sqlite.Open(sqliteDSN(o.Path))
	case "postgres":
		if o.DSN == "" {
			return nil, errors.New("no postgres DSN provided")
		}

		dialector = postgres.Open(o.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", o.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	if o.Driver != "postgres" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle, %w", err)
		}

		// SQLite allows a single writer. One connection serializes every unit of
		// work instead of failing with "database is locked"
		sqlDB.SetMaxOpenConns(1)
	}

	err = db.AutoMigrate(model.User{}, model.OTP{})
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	return fmt.Sprintf("%s%s_busy_timeout=%d", path, sep, busyTimeoutMs)
}
