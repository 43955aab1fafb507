package cache

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// FileCache stores entries as JSON files below a directory. The CLI and a
// running server may share the directory, so every write goes to a temporary
// file that is renamed into place.
//
// Keys map to readable paths: the colon-separated segments before the last
// one become directories, and the last segment (normally a SHA-256 hex
// digest) is split into a two-character fan-out directory and a file name.
//
//	layout:3fa4…          → <dir>/layout/3f/a4….json
//	artifact:svg:91bc…    → <dir>/artifact/svg/91/bc….json
//	staging:layout:3fa4…  → <dir>/staging/layout/3f/a4….json
//
// Keys that do not fit this shape are stored under <dir>/misc by hash.
type FileCache struct {
	dir string
}

// NewFileCache creates a file cache in dir, creating dir if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache's root directory.
func (c *FileCache) Dir() string { return c.dir }

type fileEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Get implements Cache. Unreadable and expired entries are removed and
// reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var e fileEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set implements Cache.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := fileEntry{Data: data}
	if ttl > 0 {
		e.ExpiresAt = time.Now().Add(ttl)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return writeAtomic(c.path(key), raw)
}

// writeAtomic replaces path with data so readers see either the old or the
// new entry, never a partial one.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, tmpPrefix+"*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(name, 0o644)
	}
	if err == nil {
		err = os.Rename(name, path)
	}
	if err != nil {
		_ = os.Remove(name)
	}
	return err
}

// Delete implements Cache.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close implements Cache.
func (c *FileCache) Close() error { return nil }

// Clear removes the entries below the namespace given by segments, for
// example Clear("layout") or Clear("artifact", "png"); no segments clears
// everything. It returns the number of entries removed. Leftover temporary
// files are removed too but not counted.
func (c *FileCache) Clear(segments ...string) (int, error) {
	root := c.dir
	for _, s := range segments {
		if !validSegment(s) {
			return 0, &fs.PathError{Op: "clear", Path: s, Err: fs.ErrInvalid}
		}
		root = filepath.Join(root, s)
	}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return 0, nil
	}

	count := 0
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != c.dir {
				dirs = append(dirs, path)
			}
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, ".json") && !strings.HasPrefix(name, tmpPrefix) {
			return nil
		}
		if os.Remove(path) == nil && !strings.HasPrefix(name, tmpPrefix) {
			count++
		}
		return nil
	})
	// Deepest first; non-empty directories stay.
	for i := len(dirs) - 1; i >= 0; i-- {
		_ = os.Remove(dirs[i])
	}
	return count, err
}

const tmpPrefix = ".tmp-"

var (
	segmentRE = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)
	digestRE  = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

func validSegment(s string) bool {
	return segmentRE.MatchString(s) && !strings.Contains(s, "..")
}

// path maps key to its file.
func (c *FileCache) path(key string) string {
	segs := strings.Split(key, ":")
	name := segs[len(segs)-1]
	ns := segs[:len(segs)-1]

	readable := len(ns) > 0
	for _, s := range ns {
		if !validSegment(s) {
			readable = false
			break
		}
	}
	if !readable {
		ns = []string{"misc"}
		name = Hash([]byte(key))
	} else if !digestRE.MatchString(name) {
		name = Hash([]byte(key))
	}

	parts := append([]string{c.dir}, ns...)
	parts = append(parts, name[:2], name[2:]+".json")
	return filepath.Join(parts...)
}

var _ Cache = (*FileCache)(nil)
