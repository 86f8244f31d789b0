package storage

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FreeSpace returns the bytes available to unprivileged writers on the
// filesystem holding the directory.
func (d *Dir) FreeSpace() (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(d.root, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", d.root, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// UsedSpace sums the artifacts in the directory. Scratch files, the lock
// file and subdirectories such as the database's config dir are not counted.
func (d *Dir) UsedSpace() (int64, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", d.root, err)
	}
	var size int64
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || name == lockName || isScratch(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed since ReadDir
			continue
		}
		size += info.Size()
	}
	return size, nil
}
