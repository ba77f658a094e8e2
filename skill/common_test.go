package skill

import (
	"testing"

	"gorm.io/gorm"

	"github.com/jfarcand/iphone-mirroir-mcp-sub003/logger"
	"github.com/jfarcand/iphone-mirroir-mcp-sub003/testutil"
)

// setupTestStore creates a test database and document store for testing.
func setupTestStore(t *testing.T) (*gorm.DB, Store) {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &Document{})

	log := logger.NewTestLogger()
	store := NewMySQLStore(db, log)

	return db, store
}
