package files

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-cemetery-registry/internal/types"
)

func TestClassify(t *testing.T) {
	tests := map[string]types.FileCategory{
		"image/png":          types.FileCategoryImage,
		"IMAGE/JPEG":         types.FileCategoryImage,
		"application/pdf":    types.FileCategoryPDF,
		"application/x-pdf":  types.FileCategoryPDF,
		"application/msword": types.FileCategoryWord,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": types.FileCategoryWord,
		"application/vnd.oasis.opendocument.text":                                 types.FileCategoryWord,
		"text/plain": types.FileCategoryUnknown,
		"":           types.FileCategoryUnknown,
	}
	for ct, want := range tests {
		assert.Equal(t, want, Classify(ct), ct)
	}
}

func TestClockStrictlyIncreasing(t *testing.T) {
	frozen := time.UnixMilli(1718000000000)
	c := NewClock(func() time.Time { return frozen })

	assert.Equal(t, int64(1718000000000), c.Next())
	assert.Equal(t, int64(1718000000001), c.Next())
	assert.Equal(t, int64(1718000000002), c.Next())
}

func TestClockConcurrentCallersNeverShareAValue(t *testing.T) {
	c := NewClock(nil)
	const workers, perWorker = 8, 500

	var (
		mu   sync.Mutex
		seen = make(map[int64]bool, workers*perWorker)
		wg   sync.WaitGroup
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perWorker)
			for range perWorker {
				local = append(local, c.Next())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, v := range local {
				seen[v] = true
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, workers*perWorker)
}

func TestDiskStoreSave(t *testing.T) {
	root := t.TempDir()
	disk, err := NewDiskStore(root)
	require.NoError(t, err)

	ms := time.Date(2024, 2, 7, 15, 4, 5, 0, time.Local).UnixMilli()
	res, err := disk.Save(strings.NewReader("hello"), ms, "photo.jpg")
	require.NoError(t, err)

	want := filepath.Join(root, "2024", "02", "07", StorageName(ms, "photo.jpg"))
	assert.Equal(t, want, res.Path)
	assert.Equal(t, int64(5), res.Size)

	entries, err := os.ReadDir(filepath.Dir(res.Path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file must not survive")

	f, size, err := disk.Open(res.Path)
	require.NoError(t, err)
	defer f.Close()
	body, _ := io.ReadAll(f)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, int64(5), size)
}

func TestDiskStoreOpenMissing(t *testing.T) {
	disk, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = disk.Open(filepath.Join(disk.Root(), "nope"))
	assert.ErrorIs(t, err, ErrBlobNotFound)
	assert.NoError(t, disk.Remove(filepath.Join(disk.Root(), "nope")))
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "a.txt", BaseName("a.txt"))
	assert.Equal(t, "c.pdf", BaseName("../../b/c.pdf"))
	assert.Equal(t, "doc.docx", BaseName(`C:\Users\x\doc.docx`))
	assert.Equal(t, "unnamed", BaseName(""))
	assert.Equal(t, "unnamed", BaseName("/"))
	assert.Equal(t, "1700000000000_x.png", StorageName(1700000000000, "dir/x.png"))
}
