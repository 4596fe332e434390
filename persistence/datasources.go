package persistence

import (
	"context"
	"database/sql"
	"os"
	"strings"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/mysql"
	"github.com/sirupsen/logrus"
	otgorm "github.com/smacker/opentracing-gorm"
)

var ActiveDataSourceManager *DataSourceManager

type DatabaseConfig struct {
	DriverType string
	DriverArgs string
}

// ParseDatabaseConfigFromEnv DATABASE_URL: mysql://user:pass@(host:port)/database?args
func ParseDatabaseConfigFromEnv() (*DatabaseConfig, error) {
	databaseURL := os.ExpandEnv(os.Getenv("DATABASE_URL"))
	idx := strings.Index(databaseURL, "://")
	if idx < 0 {
		return nil, &ErrInvalidDatabaseURL{URL: databaseURL}
	}
	return &DatabaseConfig{DriverType: databaseURL[0:idx], DriverArgs: databaseURL[idx+3:]}, nil
}

type ErrInvalidDatabaseURL struct {
	URL string
}

func (e *ErrInvalidDatabaseURL) Error() string {
	return "invalid database url: '" + e.URL + "'"
}

type DataSourceManager struct {
	gormDB *gorm.DB

	DatabaseConfig *DatabaseConfig
}

func (m *DataSourceManager) Start() error {
	db, err := connect(m.DatabaseConfig)
	if err != nil {
		return err
	}
	otgorm.AddGormCallbacks(db)
	m.gormDB = db
	if os.Getenv("GIN_MODE") != "release" {
		m.gormDB.LogMode(true)
	}
	return nil
}

func (m *DataSourceManager) Stop() {
	if m.gormDB != nil {
		if err := m.gormDB.Close(); err != nil {
			logrus.Warnf("failed to close DB: %v", err)
		}
		m.gormDB = nil
	}
}

// GormDB returns a fresh DB handle bound to the tracing span of ctx.
func (m *DataSourceManager) GormDB(ctx context.Context) *gorm.DB {
	if m.gormDB == nil {
		return nil
	}
	db := m.gormDB.New()
	if ctx != nil {
		db = otgorm.SetSpanToGorm(ctx, db)
	}
	return db
}

func connect(config *DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(config.DriverType, config.DriverArgs)
	if err != nil {
		return nil, err
	}
	err = db.DB().Ping()
	if err != nil {
		return nil, err
	}
	return db, nil
}

// PrepareMysqlDatabase creates the database of driverArgs when absent.
func PrepareMysqlDatabase(driverArgs string) error {
	idxSlash := strings.Index(driverArgs, "/")
	if idxSlash < 0 {
		return &ErrInvalidDatabaseURL{URL: driverArgs}
	}
	databaseAndArgs := driverArgs[idxSlash+1:]
	databaseName := databaseAndArgs
	if idxQuestion := strings.Index(databaseAndArgs, "?"); idxQuestion >= 0 {
		databaseName = databaseAndArgs[0:idxQuestion]
	}

	db, err := sql.Open("mysql", driverArgs[0:idxSlash+1])
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logrus.Warnf("failed to close DB: %v", err)
		}
	}()

	_, err = db.Exec("CREATE DATABASE IF NOT EXISTS " + databaseName + " CHARACTER SET utf8mb4")
	return err
}
