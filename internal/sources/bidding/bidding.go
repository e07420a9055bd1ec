// Package bidding scrapes the closed bidding rounds of the CORS archive.
package bidding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"nusmods-scraper/internal/config"
	"nusmods-scraper/internal/model"
	"nusmods-scraper/internal/parse/table"
	"nusmods-scraper/internal/sources"
	"nusmods-scraper/internal/task"
	"nusmods-scraper/lib/htmlutil"
)

const (
	report_no_stats    = "no-stats"
	report_orphan_row  = "page.orphan-row"
	report_invalid_row = "page.invalid-row"
)

var archiveRegex = regexp.MustCompile(`Archive/(\d{4})(\d{2})_Sem(\d)/successbid_(\d[A-F])_\d{4,8}s\d\.html`)

const (
	// parent rows carry module code and group before the stats, child rows
	// start with a filler cell
	parentWidth = 9
	childWidth  = 8
	statsWidth  = 7
)

// Archive stores closed rounds, records that already exist are left
// untouched.
type Archive interface {
	Append(ctx context.Context, stats []model.BiddingStat) (int64, error)
}

type Input struct {
	AcadYear int
	Semester int
}

type Task struct {
	env     sources.Env
	cfg     config.Bidding
	archive Archive
}

// New creates the task, archive may be nil.
func New(env sources.Env, cfg config.Bidding, archive Archive) Task {
	return Task{env: env.Scoped("corsBiddingStats"), cfg: cfg, archive: archive}
}

var _ task.Task[Input, []model.BiddingStat] = Task{}

func (t Task) Name() string {
	return "corsBiddingStats"
}

// Round is one archived page of closed bids.
type Round struct {
	Link     string
	AcadYear string
	Semester string
	Round    string
}

// matchRounds returns the archive links of the given academic year and
// semester in page order.
func matchRounds(ctx context.Context, doc *goquery.Document, base string, acadYear, semester int) []Round {
	var rounds []Round
	seen := map[string]bool{}
	for _, anchor := range htmlutil.GetAnchors(ctx, doc.Find(`a[href*="successbid"]`)) {
		match := archiveRegex.FindStringSubmatch(anchor.Href)
		if match == nil {
			continue
		}
		start, _ := strconv.Atoi(match[1])
		end, _ := strconv.Atoi(match[2])
		if start != acadYear || end != (acadYear+1)%100 || match[3] != strconv.Itoa(semester) {
			continue
		}
		link, err := htmlutil.Resolve(base, anchor.Href)
		if err != nil || seen[link] {
			continue
		}
		seen[link] = true
		rounds = append(rounds, Round{
			Link:     link,
			AcadYear: model.FormatAcadYear(start),
			Semester: match[3],
			Round:    match[4],
		})
	}
	return rounds
}

func (t Task) document(ctx context.Context, link string) (*goquery.Document, error) {
	body, err := t.env.Fetcher.Fetch(ctx, link)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// Run returns no records and writes nothing when the archive has no page
// for the semester yet.
func (t Task) Run(ctx context.Context, in Input) ([]model.BiddingStat, error) {
	index, err := t.document(ctx, t.cfg.ArchiveUrl)
	if err != nil {
		return nil, fmt.Errorf("archive index: %w", err)
	}
	rounds := matchRounds(ctx, index, t.cfg.ArchiveUrl, in.AcadYear, in.Semester)
	if len(rounds) == 0 {
		t.env.Tel.ReportWarning(report_no_stats, "no bidding stats available")
		return nil, nil
	}

	pages, err := task.ForEach(ctx, t.env.Tel, t.cfg.Concurrency, rounds, func(ctx context.Context, r Round) ([]model.BiddingStat, error) {
		doc, err := t.document(ctx, r.Link)
		if err != nil {
			return nil, err
		}
		return ParsePage(doc, r, t.env), nil
	})
	if err != nil {
		return nil, err
	}

	var stats []model.BiddingStat
	for _, page := range pages {
		stats = append(stats, page...)
	}
	t.env.Tel.ReportCount("records", int64(len(stats)))

	err = t.env.Files.Write(ctx, sources.RawPath(t.cfg.Output, in.AcadYear, in.Semester), stats)
	if err != nil {
		return nil, err
	}

	if t.archive != nil {
		inserted, err := t.archive.Append(ctx, stats)
		if err != nil {
			return nil, fmt.Errorf("archive: %w", err)
		}
		t.env.Tel.ReportCount("archived", inserted)
	}
	return stats, nil
}

// ParsePage reads the stats table of one round. Rows without a parent are
// reported and skipped.
func ParsePage(doc *goquery.Document, r Round, env sources.Env) []model.BiddingStat {
	carrier := table.NewCarrier(parentWidth)

	var stats []model.BiddingStat
	for _, row := range table.Rows(doc.Selection, "tr", "td", childWidth) {
		identity, err := carrier.Next(row.Cells)
		if errors.Is(err, table.ErrOrphanRow) {
			env.Tel.ReportBroken(report_orphan_row, fmt.Errorf("%s row %d: %w", r.Link, row.Index, err))
			continue
		}

		stat, err := parseStats(row.Cells[len(row.Cells)-statsWidth:])
		if err != nil {
			env.Tel.ReportWarning(report_invalid_row, fmt.Errorf("%s row %d: %w", r.Link, row.Index, err))
			continue
		}
		stat.AcadYear = r.AcadYear
		stat.Semester = r.Semester
		stat.Round = r.Round
		stat.ModuleCode = identity.ModuleCode
		stat.Group = identity.Group
		stats = append(stats, stat)
	}
	return stats
}

func parseStats(cells []string) (model.BiddingStat, error) {
	numbers := make([]int, 5)
	for i := range numbers {
		n, err := strconv.Atoi(cells[i])
		if err != nil {
			return model.BiddingStat{}, fmt.Errorf("column %d: %w", i, err)
		}
		numbers[i] = n
	}
	return model.BiddingStat{
		Quota:               numbers[0],
		Bidders:             numbers[1],
		LowestBid:           numbers[2],
		LowestSuccessfulBid: numbers[3],
		HighestBid:          numbers[4],
		Faculty:             cells[5],
		StudentAcctType:     cells[6],
	}, nil
}
