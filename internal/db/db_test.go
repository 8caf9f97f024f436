package db

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:db-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func TestInitCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "links.db")
	if err := Init(path); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := DB.DB(); err == nil {
			sqlDB.Close()
		}
		DB = nil
	})

	if !DB.Migrator().HasTable(&Link{}) {
		t.Fatal("expected links table to exist")
	}
	if !DB.Migrator().HasColumn(&Link{}, "order") {
		t.Fatal("expected links.order column to exist")
	}
}

func TestEnsureUserCreatesOnce(t *testing.T) {
	gdb := openTestDB(t)

	created, err := EnsureUser(gdb, " admin ", "s3cret")
	if err != nil {
		t.Fatalf("ensure user failed: %v", err)
	}
	if !created {
		t.Fatal("expected user to be created")
	}

	created, err = EnsureUser(gdb, "admin", "other")
	if err != nil {
		t.Fatalf("second ensure failed: %v", err)
	}
	if created {
		t.Fatal("expected existing user to be kept")
	}

	var user User
	if err := gdb.Where("username = ?", "admin").First(&user).Error; err != nil {
		t.Fatalf("load user failed: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("s3cret")); err != nil {
		t.Fatalf("expected original password hash to be kept: %v", err)
	}
}

func TestEnsureUserSkipsBlankCredentials(t *testing.T) {
	gdb := openTestDB(t)

	created, err := EnsureUser(gdb, "", "")
	if err != nil || created {
		t.Fatalf("expected no-op, got created=%v err=%v", created, err)
	}
}
