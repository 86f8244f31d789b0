package database

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Sweeper removes abandoned files from artifact storage.
type Sweeper interface {
	Sweep(maxAge time.Duration) int
}

func vacuumDatabase(db *gorm.DB, log *logrus.Entry) {
	if err := db.Exec("VACUUM").Error; err != nil {
		log.Errorln(err)
	}
}

// PeriodicCleanup vacuums the database and sweeps stale side files every
// interval until ctx ends.
func PeriodicCleanup(ctx context.Context, db *gorm.DB, sweeper Sweeper, interval time.Duration, logger *logrus.Logger) {
	log := logger.WithField("component", "database")
	run := func() {
		log.Debugln("periodic cleanup...")
		vacuumDatabase(db, log)
		sweeper.Sweep(interval)
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
