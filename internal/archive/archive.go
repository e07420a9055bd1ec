// Package archive keeps every closed bidding round in Postgres. Rows are
// only ever inserted, a round already archived is left untouched.
package archive

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"nusmods-scraper/internal/model"
)

//go:embed schema.sql
var schemaSql string

const insertStat = `INSERT INTO bidding_stats (
	acad_year, semester, round, module_code, "group", faculty, student_acct_type,
	quota, bidders, lowest_bid, lowest_successful_bid, highest_bid
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) ON CONFLICT DO NOTHING`

const listStats = `SELECT
	acad_year, semester, round, module_code, "group", faculty, student_acct_type,
	quota, bidders, lowest_bid, lowest_successful_bid, highest_bid
FROM bidding_stats WHERE acad_year = $1 ORDER BY semester, round, module_code, "group"`

type Postgres struct {
	Pool *pgxpool.Pool
}

// Open connects to url and creates the archive table when missing.
func Open(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect archive: %w", err)
	}
	_, err = pool.Exec(ctx, schemaSql)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return &Postgres{Pool: pool}, nil
}

func (p *Postgres) Close() {
	p.Pool.Close()
}

func statArgs(s model.BiddingStat) []any {
	return []any{
		s.AcadYear, s.Semester, s.Round, s.ModuleCode, s.Group, s.Faculty, s.StudentAcctType,
		s.Quota, s.Bidders, s.LowestBid, s.LowestSuccessfulBid, s.HighestBid,
	}
}

// Append inserts stats in one batch and returns how many were new.
func (p *Postgres) Append(ctx context.Context, stats []model.BiddingStat) (int64, error) {
	if len(stats) == 0 {
		return 0, nil
	}

	var inserted int64
	batch := pgx.Batch{}
	for _, stat := range stats {
		batch.Queue(insertStat, statArgs(stat)...).Exec(func(ct pgconn.CommandTag) error {
			inserted += ct.RowsAffected()
			return nil
		})
	}
	err := p.Pool.SendBatch(ctx, &batch).Close()
	if err != nil {
		return 0, fmt.Errorf("append bidding stats: %w", err)
	}
	return inserted, nil
}

// List returns the archived stats of an academic year, "2016/2017".
func (p *Postgres) List(ctx context.Context, acadYear string) ([]model.BiddingStat, error) {
	rows, err := p.Pool.Query(ctx, listStats, acadYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []model.BiddingStat
	for rows.Next() {
		var s model.BiddingStat
		err := rows.Scan(
			&s.AcadYear, &s.Semester, &s.Round, &s.ModuleCode, &s.Group, &s.Faculty, &s.StudentAcctType,
			&s.Quota, &s.Bidders, &s.LowestBid, &s.LowestSuccessfulBid, &s.HighestBid,
		)
		if err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
