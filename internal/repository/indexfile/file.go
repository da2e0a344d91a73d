package indexfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/jimlawless/whereami"
)

// Read загружает индекс с диска. Отсутствующий файл — e.ErrIndexUnavailable.
func Read(path string) (*domain.EmbeddingIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", e.ErrIndexUnavailable, path)
		}

		return nil, fmt.Errorf("%w: %v", e.ErrIndexUnavailable, err)
	}

	idx, err := Decode(data)
	if err != nil {
		return nil, e.Wrap(path, err)
	}

	return idx, nil
}

// Write атомарно записывает индекс: во временный файл рядом с целевым, затем rename.
func Write(path string, idx *domain.EmbeddingIndex) error {
	data, err := Encode(idx)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if err := tmp.Close(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Cache держит последний прочитанный снимок и перечитывает файл только при смене mtime или размера.
// Позволяет подменить индекс на диске без перезапуска сервиса.
type Cache struct {
	mu      sync.RWMutex
	path    string
	modTime time.Time
	size    int64
	index   *domain.EmbeddingIndex
}

func NewCache() *Cache {
	return &Cache{}
}

// Load совместим с search.IndexLoader.
func (c *Cache) Load(path string) (*domain.EmbeddingIndex, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", e.ErrIndexUnavailable, path)
		}

		return nil, fmt.Errorf("%w: %v", e.ErrIndexUnavailable, err)
	}

	c.mu.RLock()
	if c.index != nil && c.path == path && c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
		idx := c.index
		c.mu.RUnlock()
		return idx, nil
	}
	c.mu.RUnlock()

	idx, err := Read(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.path, c.modTime, c.size, c.index = path, info.ModTime(), info.Size(), idx
	c.mu.Unlock()

	return idx, nil
}
