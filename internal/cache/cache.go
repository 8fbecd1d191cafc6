// Package cache persists analysis results as CSV files so re-opening an
// unchanged folder does not re-run the classifier. Each cached folder gets
// one CSV plus a yaml sidecar carrying the folder fingerprint; a changed
// fingerprint invalidates the entry.
package cache

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aveslab/perchview/internal/detection"
	"github.com/aveslab/perchview/internal/errors"
	"github.com/aveslab/perchview/internal/logging"
)

// ErrCacheMiss is returned by Load when no cache entry exists for a folder.
var ErrCacheMiss = errors.NewStd("cache entry not found")

// Metadata is the yaml sidecar stored next to each cache CSV.
type Metadata struct {
	Folder      string    `yaml:"folder"`
	Fingerprint string    `yaml:"fingerprint"`
	RunID       string    `yaml:"run_id"`
	CreatedAt   time.Time `yaml:"created_at"`
	Detections  int       `yaml:"detections"`
}

// Cache stores per-folder result CSVs under a directory.
type Cache struct {
	dir    string
	logger *slog.Logger
}

// New creates a cache rooted at dir, creating the directory if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.New(err).
			Component("cache").
			Category(errors.CategoryFileIO).
			Context("path", dir).
			Build()
	}
	logger := logging.ForService("cache")
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{dir: dir, logger: logger}, nil
}

// entryBase returns the base path (without extension) for a folder's cache
// files. The folder path is hashed so any path maps to a flat file name.
func (c *Cache) entryBase(folder string) string {
	abs, err := filepath.Abs(folder)
	if err != nil {
		abs = folder
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(abs))
	name := fmt.Sprintf("%s-%016x", filepath.Base(abs), h.Sum64())
	return filepath.Join(c.dir, name)
}

// CSVPath returns the path of the cache CSV for a folder.
func (c *Cache) CSVPath(folder string) string {
	return c.entryBase(folder) + ".csv"
}

func (c *Cache) metaPath(folder string) string {
	return c.entryBase(folder) + ".meta.yaml"
}

// Load reads the cached ResultSet for a folder. It returns ErrCacheMiss when
// no entry exists and a cache-corrupt categorized error when the CSV or its
// sidecar cannot be parsed; callers fall back to recomputing on either.
func (c *Cache) Load(folder string) (*detection.ResultSet, *Metadata, error) {
	csvPath := c.CSVPath(folder)

	file, err := os.Open(csvPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrCacheMiss
		}
		return nil, nil, errors.New(err).
			Component("cache").
			Category(errors.CategoryFileIO).
			Context("path", csvPath).
			Build()
	}
	defer file.Close()

	rs, err := ReadCSV(file)
	if err != nil {
		return nil, nil, errors.New(fmt.Errorf("corrupt cache file %s: %w", csvPath, err)).
			Component("cache").
			Category(errors.CategoryCacheCorrupt).
			Context("path", csvPath).
			Build()
	}

	meta, err := c.loadMetadata(folder)
	if err != nil {
		return nil, nil, err
	}

	c.logger.Debug("Cache hit", "folder", folder, "detections", rs.Len())
	return rs, meta, nil
}

func (c *Cache) loadMetadata(folder string) (*Metadata, error) {
	metaPath := c.metaPath(folder)
	data, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			// CSV without sidecar, treat as an entry of unknown freshness
			return &Metadata{Folder: folder}, nil
		}
		return nil, errors.New(err).
			Component("cache").
			Category(errors.CategoryFileIO).
			Context("path", metaPath).
			Build()
	}

	var meta Metadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, errors.New(fmt.Errorf("corrupt cache metadata %s: %w", metaPath, err)).
			Component("cache").
			Category(errors.CategoryCacheCorrupt).
			Context("path", metaPath).
			Build()
	}
	return &meta, nil
}

// Save writes the folder's ResultSet and sidecar. Both files are written to
// a temporary file first and renamed into place so a crash mid-write cannot
// leave a truncated entry behind.
func (c *Cache) Save(folder string, rs *detection.ResultSet, meta *Metadata) error {
	csvPath := c.CSVPath(folder)

	if err := writeFileAtomic(csvPath, func(f *os.File) error {
		return WriteCSV(f, rs)
	}); err != nil {
		return errors.New(err).
			Component("cache").
			Category(errors.CategoryFileIO).
			Context("path", csvPath).
			Build()
	}

	meta.Folder = folder
	meta.CreatedAt = time.Now()
	meta.Detections = rs.Len()

	data, err := yaml.Marshal(meta)
	if err != nil {
		return errors.New(err).
			Component("cache").
			Category(errors.CategoryFileIO).
			Build()
	}

	metaPath := c.metaPath(folder)
	if err := writeFileAtomic(metaPath, func(f *os.File) error {
		_, werr := f.Write(data)
		return werr
	}); err != nil {
		return errors.New(err).
			Component("cache").
			Category(errors.CategoryFileIO).
			Context("path", metaPath).
			Build()
	}

	c.logger.Debug("Cache saved", "folder", folder, "detections", rs.Len())
	return nil
}

// Invalidate removes a folder's cache entry. A missing entry is not an error.
func (c *Cache) Invalidate(folder string) error {
	for _, path := range []string{c.CSVPath(folder), c.metaPath(folder)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.New(err).
				Component("cache").
				Category(errors.CategoryFileIO).
				Context("path", path).
				Build()
		}
	}
	return nil
}

// writeFileAtomic writes via a temp file in the target directory and renames
// it over the destination.
func writeFileAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		// No-op when the rename succeeded
		_ = os.Remove(tmp.Name())
	}()

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
