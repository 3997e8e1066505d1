package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrBlobNotFound is returned when a stored path no longer exists on disk.
var ErrBlobNotFound = errors.New("stored file not found")

// DiskStore keeps uploaded payloads under a root directory partitioned by
// day: <root>/<yyyy>/<MM>/<dd>/<ms>_<name>.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if root == "" {
		return nil, errors.New("filestore: empty upload root")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("filestore: create upload root %s: %w", root, err)
	}
	return &DiskStore{root: root}, nil
}

func (d *DiskStore) Root() string { return d.root }

// SaveResult describes one written payload.
type SaveResult struct {
	Path string
	Size int64
}

// Save streams r into the partition of the day of ms. The payload is written
// to a temp file first and renamed into place, so a reader never sees a
// partial file.
func (d *DiskStore) Save(r io.Reader, ms int64, originalFilename string) (*SaveResult, error) {
	dir := d.partition(time.UnixMilli(ms))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("filestore: create partition %s: %w", dir, err)
	}

	fullPath := filepath.Join(dir, StorageName(ms, originalFilename))
	tmpPath := filepath.Join(dir, ".upload-"+uuid.NewString()+".tmp")

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("filestore: create temp file: %w", err)
	}

	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("filestore: write payload: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("filestore: fsync: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("filestore: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("filestore: rename into place: %w", err)
	}

	return &SaveResult{Path: fullPath, Size: size}, nil
}

// Open returns the stored file and its size. The caller closes the file.
func (d *DiskStore) Open(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", ErrBlobNotFound, path)
		}
		return nil, 0, fmt.Errorf("filestore: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("filestore: stat %s: %w", path, err)
	}
	return f, info.Size(), nil
}

// Remove deletes a stored file; a missing file is not an error.
func (d *DiskStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("filestore: remove %s: %w", path, err)
	}
	return nil
}

func (d *DiskStore) partition(t time.Time) string {
	return filepath.Join(d.root, t.Format("2006"), t.Format("01"), t.Format("02"))
}

// StorageName is <ms>_<base name of the original file>. Directory parts of
// the client-supplied name are dropped.
func StorageName(ms int64, originalFilename string) string {
	return strconv.FormatInt(ms, 10) + "_" + BaseName(originalFilename)
}

// BaseName strips any client path, whichever separator it uses.
func BaseName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	base := filepath.Base(name)
	if base == "." || base == "/" || base == ".." || base == "" {
		return "unnamed"
	}
	return base
}
