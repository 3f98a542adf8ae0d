package common

import (
	"fmt"

	"github.com/flow-hydraulics/flow-mint-proxy/service/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	dbTypePostgresql = "psql"
	dbTypeMysql      = "mysql"
	dbTypeSqlite     = "sqlite"
)

func NewGormDB(cfg *config.Config) (*gorm.DB, error) {
	return OpenGormDB(cfg.DatabaseType, cfg.DatabaseDSN)
}

// OpenGormDB opens a database of the given type ("psql", "mysql" or "sqlite").
func OpenGormDB(dbType, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch dbType {
	default:
		return nil, fmt.Errorf("database type '%s' not supported", dbType)
	case dbTypePostgresql:
		dialector = postgres.Open(dsn)
	case dbTypeMysql:
		dialector = mysql.Open(dsn)
	case dbTypeSqlite:
		dialector = sqlite.Open(dsn)
	}

	options := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(dialector, options)
	if err != nil {
		return nil, err
	}

	if dbType == dbTypeSqlite {
		// sqlite allows a single writer
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func CloseGormDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		panic("unable to close database")
	}

	if err := sqlDB.Close(); err != nil {
		panic("unable to close database")
	}
}
