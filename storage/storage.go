// Package storage owns the artifact directory shared by all requests.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Dir is the artifact directory. All generated names are UUIDv7 tokens so
// concurrent writers never collide.
type Dir struct {
	root string
	log  *logrus.Entry
}

func New(root string, logger *logrus.Logger) (*Dir, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", root, err)
	}
	return &Dir{
		root: root,
		log:  logger.WithField("component", "storage"),
	}, nil
}

func (d *Dir) Root() string {
	return d.root
}

// NewName returns a fresh file name of the form [prefix_]<uuidv7><ext>.
func NewName(prefix, ext string) string {
	name := uuid.Must(uuid.NewV7()).String()
	if prefix != "" {
		name = prefix + "_" + name
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return name + ext
}

// NewPath returns a fresh path inside the directory. Nothing is created.
func (d *Dir) NewPath(prefix, ext string) string {
	return filepath.Join(d.root, NewName(prefix, ext))
}

// fallbackExt replaces upload extensions that are unusable or reserved for
// scratch files.
const fallbackExt = ".bin"

// uploadExt keeps a short alphanumeric extension from the client's file name.
func uploadExt(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if len(ext) < 2 || len(ext) > 8 || ext == partSuffix || ext == SubtitleExt {
		return fallbackExt
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return fallbackExt
		}
	}
	return ext
}

// Save streams r into a new file named after the extension of originalName
// and returns its path and size. The data is written to a .part file first
// and only renamed into place once complete.
func (d *Dir) Save(r io.Reader, originalName string) (string, int64, error) {
	dst := d.NewPath("", uploadExt(originalName))
	part := dst + partSuffix

	out, err := os.OpenFile(part, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(out, r)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(part)
		return "", 0, fmt.Errorf("write upload: %w", err)
	}
	if err := os.Rename(part, dst); err != nil {
		_ = os.Remove(part)
		return "", 0, fmt.Errorf("finalize upload: %w", err)
	}
	d.log.Debugf("saved upload %s as %s (%d bytes)", originalName, filepath.Base(dst), n)
	return dst, n, nil
}

// Remove deletes path, logging rather than failing when it cannot.
func (d *Dir) Remove(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		d.log.Warnf("remove %s: %v", path, err)
	}
}

func getSize(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return -1, err
	}
	return fi.Size(), nil
}
