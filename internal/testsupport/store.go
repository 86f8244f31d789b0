package testsupport

import (
	"testing"

	"gorm.io/gorm"

	"video-pipeline/database"
)

// DB opens an in-memory database with the schema migrated. It is closed
// when the test ends.
func DB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Open(":memory:", Logger())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}
