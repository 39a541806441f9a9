package db

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrNotInitialized = errors.New("database not initialized")

var (
	instance *gorm.DB
	once     sync.Once
	initErr  error
)

// Init opens (once) the SQLite database at path and migrates every model.
func Init(path string, debug bool) (*gorm.DB, error) {
	once.Do(func() {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			initErr = err
			return
		}
		instance, initErr = Open(path, debug)
	})
	return instance, initErr
}

// Open connects to dsn and migrates the schema.
func Open(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Silent
	if debug {
		level = logger.Info
	}
	d, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}
	if err := d.AutoMigrate(Models()...); err != nil {
		return nil, err
	}
	return d, nil
}

func Get() *gorm.DB {
	return instance
}

// Conn returns the shared database or ErrNotInitialized.
func Conn() (*gorm.DB, error) {
	if instance == nil {
		return nil, ErrNotInitialized
	}
	return instance, nil
}

// InitWithDB allows injecting a pre-configured *gorm.DB (useful for testing).
func InitWithDB(d *gorm.DB) {
	instance = d
}
