// Package storage opens the relational store shared by every service and
// keeps its schema current.
package storage

import (
	"math"
	"strings"
	"time"

	"github.com/ichigozero/todokit/tagsvc"
	"github.com/ichigozero/todokit/tasksvc"
	"github.com/ichigozero/todokit/usersvc"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MaxID is the largest id the signed 64-bit id columns can hold.
const MaxID = math.MaxInt64

// Storable reports whether id fits an id column. Larger ids never name a
// row, and the drivers refuse them as query arguments.
func Storable(id uint64) bool {
	return id <= MaxID
}

// Open connects to postgres when databaseURL is set and to the sqlite file
// at sqlitePath otherwise. sqlite is opened with foreign keys enforced and
// a single connection, so writers queue instead of failing with
// "database is locked".
func Open(databaseURL, sqlitePath string) (*gorm.DB, error) {
	config := &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
	if databaseURL != "" {
		return gorm.Open(postgres.Open(databaseURL), config)
	}

	db, err := gorm.Open(sqlite.Open(SQLiteDSN(sqlitePath)), config)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// SQLiteDSN appends the pragmas the repositories rely on to path.
func SQLiteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_loc=UTC&_busy_timeout=5000"
}

// Migrate creates or alters the users, tags, tasks and task_tags tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&usersvc.User{}, &tagsvc.Tag{}, &tasksvc.Task{})
}
