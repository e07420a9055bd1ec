package fetch

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/purell"
	"github.com/pierrec/lz4/v4"
)

const normalizeFlags = purell.FlagsSafe |
	purell.FlagsUsuallySafeNonGreedy |
	purell.FlagRemoveDirectoryIndex |
	purell.FlagRemoveFragment |
	purell.FlagSortQuery

// Key is the cache key of a URL, equivalent URLs share a key.
func Key(rawUrl string) (string, error) {
	normalized, err := purell.NormalizeURLString(rawUrl, normalizeFlags)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:]), nil
}

type diskStore struct {
	dir      string
	compress bool
}

func (s diskStore) path(key string) string {
	name := key
	if s.compress {
		name += ".lz4"
	}
	return filepath.Join(s.dir, key[:2], name)
}

func (s diskStore) fresh(key string, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	info, err := os.Stat(s.path(key))
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < maxAge
}

func (s diskStore) read(key string) ([]byte, error) {
	file, err := os.Open(s.path(key))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	if s.compress {
		r = lz4.NewReader(file)
	}
	return io.ReadAll(r)
}

func (s diskStore) write(key string, body []byte) error {
	path := s.path(key)
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), key+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if s.compress {
		zw := lz4.NewWriter(tmp)
		_, err = io.Copy(zw, bytes.NewReader(body))
		if err == nil {
			err = zw.Close()
		}
	} else {
		_, err = tmp.Write(body)
	}
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// CacheSize walks a cache directory and returns the number of cached
// responses and their total size on disk.
func CacheSize(dir string) (files int, size int64, err error) {
	err = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files++
		size += info.Size()
		return nil
	})
	if os.IsNotExist(err) {
		return 0, 0, nil
	}
	return files, size, err
}
