package repository

import (
	"log"
	"os"
	"testing"

	"atelier/internal/config"
	"atelier/internal/database"

	"gorm.io/gorm"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("Repository tests skipped: failed to load test config: %v", err)
		os.Exit(0)
	}

	testDB, err = database.Connect(cfg)
	if err != nil {
		log.Printf("Repository tests skipped: test database unavailable: %v", err)
		os.Exit(0)
	}

	code := m.Run()

	os.Exit(code)
}

// resetTables wipes all rows between tests. The test database is a shared
// in-memory SQLite instance, so state leaks across tests without this.
func resetTables(t *testing.T) {
	t.Helper()
	for _, table := range []string{"notifications", "messages", "delivery_files", "order_files", "orders", "users"} {
		if err := testDB.Exec("DELETE FROM " + table).Error; err != nil {
			t.Fatalf("reset %s: %v", table, err)
		}
	}
}
