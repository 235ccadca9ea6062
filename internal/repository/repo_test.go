package repository

import (
	"log/slog"
	"os"
	"testing"

	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, err := Open("sqlite://:memory:", logger)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}
