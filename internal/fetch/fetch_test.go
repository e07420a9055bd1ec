package fetch

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nusmods-scraper/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

type countingServer struct {
	*httptest.Server
	hits atomic.Int64
}

func newCountingServer(t *testing.T, handler http.HandlerFunc) *countingServer {
	s := &countingServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func newFetcher(t *testing.T, opts Options) *CachedFetcher {
	if opts.CacheDir == "" {
		opts.CacheDir = t.TempDir()
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = 4
	}
	f, err := New(opts, telemetry.NewRecorder())
	require.NoError(t, err)
	return f
}

func TestFetchIsIdempotentWithinRun(t *testing.T) {
	server := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>listing</html>"))
	})
	f := newFetcher(t, Options{})

	first, err := f.Fetch(context.Background(), server.URL+"/listing")
	require.NoError(t, err)
	second, err := f.Fetch(context.Background(), server.URL+"/listing")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, int64(1), server.hits.Load())
	require.Equal(t, Stats{Network: 1, MemoryHits: 1}, f.Stats())
}

func TestFetchRefreshesOnNextRun(t *testing.T) {
	var body atomic.Value
	body.Store("2016/2017")
	server := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body.Load().(string)))
	})
	f := newFetcher(t, Options{})

	first, err := f.Fetch(context.Background(), server.URL+"/venues")
	require.NoError(t, err)
	require.Equal(t, "2016/2017", string(first))

	body.Store("2017/2018")
	f.BeginRun()
	require.Equal(t, Stats{}, f.Stats())

	second, err := f.Fetch(context.Background(), server.URL+"/venues")
	require.NoError(t, err)
	require.Equal(t, "2017/2018", string(second))
	require.Equal(t, int64(2), server.hits.Load())
	require.Equal(t, Stats{Network: 1}, f.Stats())
}

func TestFetchConcurrentCallersShareRequest(t *testing.T) {
	release := make(chan struct{})
	server := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte("ok"))
	})
	f := newFetcher(t, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			body, err := f.Fetch(context.Background(), server.URL+"/page")
			require.NoError(t, err)
			require.Equal(t, "ok", string(body))
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int64(1), server.hits.Load())
}

func TestFetchBinaryRoundTripThroughDisk(t *testing.T) {
	payload := []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff, 0xfe, 0x0a, 0x0d}
	payload = append(payload, bytes.Repeat([]byte{0x00, 0x01}, 4096)...)

	server := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/pdf")
		w.Write(payload)
	})

	for _, compress := range []bool{false, true} {
		dir := t.TempDir()
		online := newFetcher(t, Options{CacheDir: dir, Compress: compress})
		body, err := online.Fetch(context.Background(), server.URL+"/exam.pdf")
		require.NoError(t, err)
		require.Equal(t, payload, body)

		// a new run against the same cache directory replays the snapshot
		offline := newFetcher(t, Options{CacheDir: dir, Compress: compress, Offline: true})
		body, err = offline.Fetch(context.Background(), server.URL+"/exam.pdf")
		require.NoError(t, err)
		require.Equal(t, payload, body)
		require.Equal(t, Stats{DiskHits: 1}, offline.Stats())
	}
	require.Equal(t, int64(2), server.hits.Load())
}

func TestFetchOfflineMiss(t *testing.T) {
	f := newFetcher(t, Options{Offline: true})
	_, err := f.Fetch(context.Background(), "http://example.invalid/missing")
	require.ErrorIs(t, err, ErrNotCached)
}

func TestFetchMaxAge(t *testing.T) {
	server := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	dir := t.TempDir()

	_, err := newFetcher(t, Options{CacheDir: dir}).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	_, err = newFetcher(t, Options{CacheDir: dir, MaxAge: time.Hour}).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	_, err = newFetcher(t, Options{CacheDir: dir}).Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	require.Equal(t, int64(2), server.hits.Load())
}

func TestFetchStatusError(t *testing.T) {
	server := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	f := newFetcher(t, Options{RetryCount: 2, RetryWait: time.Millisecond})

	_, err := f.Fetch(context.Background(), server.URL+"/missing")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusNotFound, statusErr.Status)
	// 4xx is not retried
	require.Equal(t, int64(1), server.hits.Load())
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	server := newCountingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("recovered"))
	})

	f := newFetcher(t, Options{RetryCount: 2, RetryWait: time.Millisecond})
	body, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "recovered", string(body))
	require.Equal(t, int64(2), server.hits.Load())

	calls.Store(0)
	noRetry := newFetcher(t, Options{RetryCount: 0})
	_, err = noRetry.Fetch(context.Background(), server.URL+"/other")
	require.Error(t, err)
}

func TestKeyNormalizesEquivalentUrls(t *testing.T) {
	a, err := Key("http://EXAMPLE.com/report?b=1&a=2#top")
	require.NoError(t, err)
	b, err := Key("http://example.com/report?a=2&b=1")
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := Key("http://example.com/report?a=3&b=1")
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestCacheSize(t *testing.T) {
	dir := t.TempDir()
	store := diskStore{dir: dir}
	key, err := Key("http://example.com")
	require.NoError(t, err)
	require.NoError(t, store.write(key, []byte("12345")))

	files, size, err := CacheSize(dir)
	require.NoError(t, err)
	require.Equal(t, 1, files)
	require.Equal(t, int64(5), size)

	files, _, err = CacheSize(dir + "/nope")
	require.NoError(t, err)
	require.Zero(t, files)
}
