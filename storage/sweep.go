package storage

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	partSuffix = ".part"

	// SubtitlePrefix and SubtitleExt name subtitle side files. Uploads can
	// never carry either, so Sweep only ever matches scratch files.
	SubtitlePrefix = "sub"
	SubtitleExt    = ".srt"
)

// isScratch reports whether name is an unfinished upload or a subtitle side
// file.
func isScratch(name string) bool {
	if strings.HasSuffix(name, partSuffix) {
		return true
	}
	return strings.HasPrefix(name, SubtitlePrefix+"_") && strings.HasSuffix(name, SubtitleExt)
}

// Sweep removes scratch files older than maxAge. Those are only left behind
// when the process died mid-request.
func (d *Dir) Sweep(maxAge time.Duration) int {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		d.log.Errorf("sweep %s: %v", d.root, err)
		return 0
	}
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isScratch(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(d.root, name)
		if err := os.Remove(path); err != nil {
			d.log.Warnf("sweep remove %s: %v", path, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		d.log.Infof("swept %d stale files from %s", removed, d.root)
	}
	return removed
}
