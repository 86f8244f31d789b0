package storage

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

const lockName = ".video-pipeline.lock"

// Lock takes an exclusive lock on the directory so a second server process
// cannot share the same artifacts and database. Per-asset serialization
// only holds within one process.
func (d *Dir) Lock() (unlock func() error, err error) {
	fl := flock.New(filepath.Join(d.root, lockName))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", d.root, err)
	}
	if !locked {
		return nil, fmt.Errorf("data dir %s is in use by another process", d.root)
	}
	return fl.Unlock, nil
}
