// Package dbtest opens a migrated in-memory sqlite database for tests.
package dbtest

import (
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/xin-kz910/SE-project/internal/db"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	gdb, err := db.Connect("sqlite", "file:"+name+"?mode=memory&cache=shared&_foreign_keys=1")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}
