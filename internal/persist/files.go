package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// ErrNotFound is returned when a file was never written, it wraps
// fs.ErrNotExist.
var ErrNotFound = fmt.Errorf("persist: not found: %w", fs.ErrNotExist)

const stagingDir = ".staging"

// Files reads and writes encoded records under a root directory. Between
// Begin and Commit every write lands in a staging directory so that a run
// which fails halfway leaves the previous outputs untouched.
type Files struct {
	root  string
	codec Codec

	mutex   sync.Mutex
	staging string
	removed map[string]bool
	writes  int
}

func NewFiles(root string, codec Codec) *Files {
	return &Files{root: root, codec: codec, removed: map[string]bool{}}
}

func (f *Files) Root() string {
	return f.root
}

func (f *Files) Codec() Codec {
	return f.codec
}

// Writes is the number of successful writes since creation.
func (f *Files) Writes() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.writes
}

func (f *Files) Begin(runID string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.staging != "" {
		return fmt.Errorf("run %s already in progress", filepath.Base(f.staging))
	}
	staging := filepath.Join(f.root, stagingDir, runID)
	err := os.MkdirAll(staging, 0755)
	if err != nil {
		return err
	}
	f.staging = staging
	f.removed = map[string]bool{}
	return nil
}

func clean(rel string) (string, error) {
	rel = filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(rel) || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid relative path %q", rel)
	}
	return rel, nil
}

func writeAtomic(path string, data []byte) error {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Write replaces the file at rel with the encoding of v.
func (f *Files) Write(ctx context.Context, rel string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := clean(rel)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	err = f.codec.Encode(&buf, v)
	if err != nil {
		return fmt.Errorf("%s: %w", rel, err)
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	base := f.root
	if f.staging != "" {
		base = f.staging
	}
	err = writeAtomic(filepath.Join(base, rel), buf.Bytes())
	if err != nil {
		return err
	}
	delete(f.removed, rel)
	f.writes++
	return nil
}

// locate prefers the staged copy. Remove clears the staged subtree, so a
// staged file was always written after any removal covering it.
func (f *Files) locate(rel string) (string, error) {
	if f.staging != "" {
		staged := filepath.Join(f.staging, rel)
		if _, err := os.Stat(staged); err == nil {
			return staged, nil
		}
	}
	if f.isRemoved(rel) {
		return "", fmt.Errorf("%s: %w", rel, ErrNotFound)
	}
	path := filepath.Join(f.root, rel)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", rel, ErrNotFound)
		}
		return "", err
	}
	return path, nil
}

func (f *Files) isRemoved(rel string) bool {
	for dir := rel; dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
		if f.removed[dir] {
			return true
		}
	}
	return false
}

// Read decodes the file at rel into v, a staged copy takes precedence.
func (f *Files) Read(ctx context.Context, rel string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := clean(rel)
	if err != nil {
		return err
	}

	f.mutex.Lock()
	path, err := f.locate(rel)
	f.mutex.Unlock()
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	err = f.codec.Decode(file, v)
	if err != nil {
		return fmt.Errorf("%s: %w", rel, err)
	}
	return nil
}

// List returns the sorted names of the entries in the directory rel.
func (f *Files) List(ctx context.Context, rel string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel, err := clean(rel)
	if err != nil {
		return nil, err
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	var dirs []string
	if !f.isRemoved(rel) {
		dirs = append(dirs, filepath.Join(f.root, rel))
	}
	if f.staging != "" {
		dirs = append(dirs, filepath.Join(f.staging, rel))
	}

	var names []string
	for i, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		staged := f.staging != "" && i == len(dirs)-1
		for _, entry := range entries {
			name := entry.Name()
			if strings.HasPrefix(name, ".") || (!staged && f.removed[filepath.Join(rel, name)]) {
				continue
			}
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)
	return names, nil
}

// Remove deletes the file or directory at rel. While a run is staged the
// removal is deferred until Commit.
func (f *Files) Remove(ctx context.Context, rel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, err := clean(rel)
	if err != nil {
		return err
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.staging == "" {
		return os.RemoveAll(filepath.Join(f.root, rel))
	}
	err = os.RemoveAll(filepath.Join(f.staging, rel))
	if err != nil {
		return err
	}
	f.removed[rel] = true
	return nil
}

// Commit applies the removals and moves every staged file into place.
func (f *Files) Commit() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.staging == "" {
		return nil
	}
	for rel := range f.removed {
		err := os.RemoveAll(filepath.Join(f.root, rel))
		if err != nil {
			return err
		}
	}

	err := filepath.WalkDir(f.staging, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(f.staging, path)
		if err != nil {
			return err
		}
		target := filepath.Join(f.root, rel)
		err = os.MkdirAll(filepath.Dir(target), 0755)
		if err != nil {
			return err
		}
		return os.Rename(path, target)
	})
	if err != nil {
		return fmt.Errorf("commit %s: %w", filepath.Base(f.staging), err)
	}
	return f.reset()
}

// Discard drops everything written since Begin.
func (f *Files) Discard() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.staging == "" {
		return nil
	}
	return f.reset()
}

func (f *Files) reset() error {
	err := os.RemoveAll(f.staging)
	f.staging = ""
	f.removed = map[string]bool{}
	os.Remove(filepath.Join(f.root, stagingDir))
	return err
}
