package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nusmods-scraper/internal/components/alert"
	"nusmods-scraper/internal/components/telemetry"
	"nusmods-scraper/lib/configutil"
	"nusmods-scraper/lib/sqliteutil"

	"github.com/go-playground/validator/v10"
)

const DefaultFile = "scraper.json5"

type Fetch struct {
	CacheDir         string  `json:"cache_dir" validate:"required"`
	TimeoutSeconds   int     `json:"timeout_seconds" validate:"gt=0"`
	Concurrency      int     `json:"concurrency" validate:"gt=0"`
	RatePerSecond    float64 `json:"rate_per_second" validate:"gte=0"`
	RetryCount       *int    `json:"retry_count" validate:"omitempty,gte=0"`
	RetryWaitMs      int     `json:"retry_wait_ms" validate:"gte=0"`
	Offline          bool    `json:"offline"`
	MaxAgeSeconds    int     `json:"max_age_seconds" validate:"gte=0"`
	Compress         bool    `json:"compress"`
	BypassCloudflare bool    `json:"bypass_cloudflare"`
	UserAgent        string  `json:"user_agent"`
	MemoryEntries    int     `json:"memory_entries" validate:"gte=0"`
	TraceDir         string  `json:"trace_dir"`
}

// Output is where a task writes its raw dump, DestFolder is relative to
// the data directory.
type Output struct {
	DestFolder   string `json:"dest_folder"`
	DestFileName string `json:"dest_file_name" validate:"required"`
}

type Bulletin struct {
	Output
	Url       string `json:"url" validate:"required,url"`
	ApiKey    string `json:"api_key"`
	Semesters []int  `json:"semesters" validate:"dive,gte=0,lte=4"`
}

type Cors struct {
	Output
	RegularUrl      string   `json:"regular_url" validate:"required,url"`
	SpecialUrl      string   `json:"special_url" validate:"required,url"`
	ModuleTypes     []string `json:"module_types" validate:"min=1"`
	DestLessonTypes string   `json:"dest_lesson_types" validate:"required"`
	Concurrency     int      `json:"concurrency" validate:"gt=0"`
}

type Bidding struct {
	Output
	ArchiveUrl  string `json:"archive_url" validate:"required,url"`
	Concurrency int    `json:"concurrency" validate:"gt=0"`
}

type Exams struct {
	Output
	BaseUrl string `json:"base_url" validate:"required,url"`
}

type Venues struct {
	Output
	Url string `json:"url" validate:"required,url"`
}

type Ivle struct {
	Output
	Url         string `json:"url" validate:"required,url"`
	ApiKey      string `json:"api_key"`
	Concurrency int    `json:"concurrency" validate:"gt=0"`
}

type Collate struct {
	// DestFolder holds the canonical per-year tree.
	DestFolder string `json:"dest_folder" validate:"required"`
	// CyclePolicy decides what happens to prerequisite trees that reference
	// themselves transitively: "ignore", "warn" or "reject".
	CyclePolicy string `json:"cycle_policy" validate:"oneof=ignore warn reject"`
}

type Persist struct {
	// Kind is "fs" or "sqlite".
	Kind   string            `json:"kind" validate:"oneof=fs sqlite"`
	Sqlite sqliteutil.Config `json:"sqlite"`
}

type Archive struct {
	// PostgresUrl enables the append-only bidding stats archive.
	PostgresUrl string `json:"postgres_url"`
}

type Schedule struct {
	Cron string `json:"cron"`
}

type Config struct {
	// Year is the first calendar year of the academic year to scrape, 0
	// means the current academic year.
	Year       int              `json:"year" validate:"omitempty,gte=2000"`
	DataDir    string           `json:"data_dir" validate:"required"`
	JsonIndent int              `json:"json_indent" validate:"gte=0,lte=8"`
	Fetch      Fetch            `json:"fetch"`
	Bulletin   Bulletin         `json:"bulletin"`
	Cors       Cors             `json:"cors"`
	Bidding    Bidding          `json:"bidding"`
	Exams      Exams            `json:"exams"`
	Venues     Venues           `json:"venues"`
	Ivle       Ivle             `json:"ivle"`
	Collate    Collate          `json:"collate"`
	Persist    Persist          `json:"persist"`
	Archive    Archive          `json:"archive"`
	Schedule   Schedule         `json:"schedule"`
	Telemetry  telemetry.Config `json:"telemetry"`
	Alert      alert.SmtpConfig `json:"alert"`
}

// Path joins a path relative to the data directory.
func (c Config) Path(elem ...string) string {
	return filepath.Join(append([]string{c.DataDir}, elem...)...)
}

func (c Config) RetryCount() int {
	if c.Fetch.RetryCount == nil {
		return 2
	}
	return *c.Fetch.RetryCount
}

// Read loads the json5 config at path with its `.local` overlay, applies
// defaults and validates it.
func Read(path string) (Config, error) {
	config, err := configutil.ReadConfig[Config](path)
	if os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config %s not found", path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	config.ApplyDefaults()
	err = config.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	messages := make([]string, len(verrs))
	for i, verr := range verrs {
		messages[i] = fmt.Sprintf("%s: failed '%s'", verr.Namespace(), verr.Tag())
	}
	return fmt.Errorf("invalid config: %s", strings.Join(messages, ", "))
}
