package db

import (
	"testing"
	"time"
)

type widget struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"type:varchar(32)"`
	CreatedAt time.Time
}

func TestConnect_SQLiteMigrates(t *testing.T) {
	gdb, err := Connect("sqlite", "file::memory:", &widget{})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer Close(gdb)

	if !gdb.Migrator().HasTable(&widget{}) {
		t.Fatalf("expected widgets table after migrate")
	}
}

func TestConnect_UnknownDriver(t *testing.T) {
	if _, err := Connect("oracle", "x"); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
