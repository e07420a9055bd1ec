// Package fetch implements the cached HTTP layer shared by every source
// task. Each distinct URL is requested from the network at most once per
// run, and responses are kept on disk so a later run can replay them.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"nusmods-scraper/internal/components/assert"
	"nusmods-scraper/internal/components/telemetry"
	"nusmods-scraper/internal/config"
	"nusmods-scraper/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	report_fetcher_network = "fetcher.network"
	report_fetcher_disk    = "fetcher.disk"
	report_fetcher_memory  = "fetcher.memory"
	report_fetcher_store   = "fetcher.store"
)

// Fetcher is safe for concurrent use. Byte slices it returns are shared
// with its memory tier and must not be modified.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Options struct {
	CacheDir    string
	Timeout     time.Duration
	Concurrency int
	// RatePerSecond of 0 disables throttling.
	RatePerSecond float64
	RetryCount    int
	RetryWait     time.Duration
	// Offline serves every request from disk and fails on a miss.
	Offline bool
	// MaxAge lets a cached copy from a previous run be reused without a
	// network request, 0 disables reuse.
	MaxAge           time.Duration
	Compress         bool
	BypassCloudflare bool
	UserAgent        string
	MemoryEntries    int
	// TraceDir receives a dump of every network exchange when set.
	TraceDir string
}

func OptionsFromConfig(c config.Config) Options {
	return Options{
		CacheDir:         c.Fetch.CacheDir,
		Timeout:          time.Duration(c.Fetch.TimeoutSeconds) * time.Second,
		Concurrency:      c.Fetch.Concurrency,
		RatePerSecond:    c.Fetch.RatePerSecond,
		RetryCount:       c.RetryCount(),
		RetryWait:        time.Duration(c.Fetch.RetryWaitMs) * time.Millisecond,
		Offline:          c.Fetch.Offline,
		MaxAge:           time.Duration(c.Fetch.MaxAgeSeconds) * time.Second,
		Compress:         c.Fetch.Compress,
		BypassCloudflare: c.Fetch.BypassCloudflare,
		UserAgent:        c.Fetch.UserAgent,
		MemoryEntries:    c.Fetch.MemoryEntries,
		TraceDir:         c.Fetch.TraceDir,
	}
}

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.Status, http.StatusText(e.Status))
}

// ErrNotCached is returned in offline mode when a URL has no cached copy.
var ErrNotCached = errors.New("not cached")

type Stats struct {
	Network    int64
	MemoryHits int64
	DiskHits   int64
}

type CachedFetcher struct {
	opts   Options
	http   *resty.Client
	store  diskStore
	sem    *semaphore.Weighted
	group  singleflight.Group
	memory *expirable.LRU[string, []byte]
	// seen holds every key that was loaded during this run, a key in seen
	// is never requested from the network again.
	seen sync.Map
	tel  telemetry.API

	network    atomic.Int64
	memoryHits atomic.Int64
	diskHits   atomic.Int64
}

func New(opts Options, tel telemetry.API) (*CachedFetcher, error) {
	assert.NotNil(tel)
	if opts.CacheDir == "" {
		return nil, fmt.Errorf("fetch: cache directory is required")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.MemoryEntries <= 0 {
		opts.MemoryEntries = 256
	}

	tel = telemetry.NewScopedAPI("fetch", tel)

	client := resty.New()
	if opts.BypassCloudflare {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	if opts.UserAgent != "" {
		client.SetHeader("user-agent", opts.UserAgent)
	}
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	client.SetRetryCount(opts.RetryCount)
	client.SetRetryWaitTime(opts.RetryWait)
	client.SetRetryMaxWaitTime(opts.RetryWait * 4)
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		if err != nil {
			return !errors.Is(err, context.Canceled)
		}
		return res.StatusCode() >= 500
	})

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	// burst >= concurrency just means that no permitted request is dropped
	rateLimiter := rate.NewLimiter(limit, opts.Concurrency)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, tel)

	var output restyutil.InstrumentOutput
	if opts.TraceDir != "" {
		fsOutput, err := restyutil.NewFilesystemOutput(opts.TraceDir)
		if err != nil {
			return nil, fmt.Errorf("fetch: trace directory: %w", err)
		}
		output = fsOutput
	}
	restyutil.InstrumentClient(client, nil, output)

	return &CachedFetcher{
		opts:   opts,
		http:   client,
		store:  diskStore{dir: opts.CacheDir, compress: opts.Compress},
		sem:    semaphore.NewWeighted(int64(opts.Concurrency)),
		memory: expirable.NewLRU[string, []byte](opts.MemoryEntries, nil, 0),
		tel:    tel,
	}, nil
}

func (f *CachedFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	key, err := Key(url)
	if err != nil {
		return nil, err
	}

	if body, ok := f.memory.Get(key); ok {
		f.memoryHits.Add(1)
		f.tel.ReportDebug(report_fetcher_memory, url)
		return body, nil
	}

	result, err, _ := f.group.Do(key, func() (any, error) {
		return f.load(ctx, url, key)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (f *CachedFetcher) load(ctx context.Context, url, key string) ([]byte, error) {
	if body, ok := f.memory.Get(key); ok {
		f.memoryHits.Add(1)
		return body, nil
	}

	_, seen := f.seen.Load(key)
	if seen || f.opts.Offline || f.store.fresh(key, f.opts.MaxAge) {
		body, err := f.store.read(key)
		if err == nil {
			f.diskHits.Add(1)
			f.tel.ReportDebug(report_fetcher_disk, url)
			f.remember(key, body)
			return body, nil
		}
		if f.opts.Offline {
			return nil, fmt.Errorf("GET %s: %w", url, ErrNotCached)
		}
		f.tel.ReportWarning(report_fetcher_disk, url, err)
	}

	body, err := f.request(ctx, url)
	if err != nil {
		return nil, err
	}

	err = f.store.write(key, body)
	if err != nil {
		// the body is still good for this run
		f.tel.ReportWarning(report_fetcher_store, url, err)
	}
	f.remember(key, body)
	return body, nil
}

func (f *CachedFetcher) request(ctx context.Context, url string) ([]byte, error) {
	err := f.sem.Acquire(ctx, 1)
	if err != nil {
		return nil, err
	}
	defer f.sem.Release(1)

	f.network.Add(1)
	res, err := f.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	if !res.IsSuccess() {
		return nil, &StatusError{URL: url, Status: res.StatusCode()}
	}
	f.tel.ReportDebug(report_fetcher_network, url, len(res.Body()))
	return res.Body(), nil
}

func (f *CachedFetcher) remember(key string, body []byte) {
	f.seen.Store(key, struct{}{})
	f.memory.Add(key, body)
}

// BeginRun starts a new run. Keys seen by earlier runs may be requested
// from the network again and the memory tier and Stats start empty. It
// must not be called while a run is fetching.
func (f *CachedFetcher) BeginRun() {
	f.seen.Range(func(key, _ any) bool {
		f.seen.Delete(key)
		return true
	})
	f.memory.Purge()
	f.network.Store(0)
	f.memoryHits.Store(0)
	f.diskHits.Store(0)
}

func (f *CachedFetcher) Stats() Stats {
	return Stats{
		Network:    f.network.Load(),
		MemoryHits: f.memoryHits.Load(),
		DiskHits:   f.diskHits.Load(),
	}
}

// FetchJSON fetches url and decodes the body into out.
func FetchJSON(ctx context.Context, f Fetcher, url string, out any) error {
	body, err := f.Fetch(ctx, url)
	if err != nil {
		return err
	}
	err = json.Unmarshal(body, out)
	if err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
