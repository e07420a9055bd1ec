// Package testutil wires the collaborators of a source task against a
// local http server for tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"nusmods-scraper/internal/components/telemetry"
	"nusmods-scraper/internal/fetch"
	"nusmods-scraper/internal/persist"
	"nusmods-scraper/internal/sources"
)

// Routes serves fixed bodies by request path and counts the hits of each.
type Routes struct {
	Bodies map[string]string

	mutex sync.Mutex
	hits  map[string]int
}

func (r *Routes) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mutex.Lock()
	if r.hits == nil {
		r.hits = map[string]int{}
	}
	r.hits[req.URL.Path]++
	body, ok := r.Bodies[req.URL.Path]
	r.mutex.Unlock()

	if !ok {
		http.NotFound(w, req)
		return
	}
	w.Write([]byte(body))
}

// Set replaces the body served at path.
func (r *Routes) Set(path, body string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.Bodies == nil {
		r.Bodies = map[string]string{}
	}
	r.Bodies[path] = body
}

func (r *Routes) Hits(path string) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.hits[path]
}

type Service struct {
	Server   *httptest.Server
	Fetcher  *fetch.CachedFetcher
	Files    *persist.Files
	Recorder *telemetry.Recorder
	Env      sources.Env
}

// SetupSources starts handler on a local server and returns an Env with a
// fresh cache and output directory.
func SetupSources(t testing.TB, handler http.Handler) Service {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	recorder := telemetry.NewRecorder()
	fetcher, err := fetch.New(fetch.Options{
		CacheDir:    t.TempDir(),
		Concurrency: 4,
	}, recorder)
	if err != nil {
		t.Fatal(err)
	}
	files := persist.NewFiles(t.TempDir(), persist.NewJSONCodec(2))

	return Service{
		Server:   server,
		Fetcher:  fetcher,
		Files:    files,
		Recorder: recorder,
		Env: sources.Env{
			Fetcher: fetcher,
			Files:   files,
			Tel:     recorder,
		},
	}
}
