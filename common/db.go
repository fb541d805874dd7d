package common

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kbdesk/config"
)

// ConnectDb opens the configured database. SQLite connections always have
// foreign keys switched on so the cascade rules in the schema apply.
func ConnectDb(conf config.DatabaseConfig) (*gorm.DB, error) {
	gormConf := &gorm.Config{
		Logger:         getLogger(conf.LogLevel),
		TranslateError: true,
	}

	var dialector gorm.Dialector
	switch conf.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(SQLiteDSN(conf.DSN))
	case config.DriverPostgres:
		dialector = postgres.Open(conf.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", conf.Driver)
	}

	db, err := gorm.Open(dialector, gormConf)
	if err != nil {
		return nil, fmt.Errorf("opening %s db: %w", conf.Driver, err)
	}

	if conf.Driver == config.DriverSQLite {
		// One writer keeps SQLite from answering SQLITE_BUSY under concurrent requests.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Printf("opened %s db", conf.Driver)
	return db, nil
}

// SQLiteDSN appends the foreign key pragma to a SQLite path or URI.
func SQLiteDSN(path string) string {
	if strings.Contains(path, "_foreign_keys=") || strings.Contains(path, "_fk=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

func getLogger(level string) logger.Interface {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Default.LogMode(logger.Silent)
	case "error":
		return logger.Default.LogMode(logger.Error)
	case "info":
		return logger.Default.LogMode(logger.Info)
	default:
		return logger.Default.LogMode(logger.Warn)
	}
}
