package persist

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"nusmods-scraper/internal/model"
)

//go:embed schema.sql
var schema string

const (
	kindModuleList         = "moduleList"
	kindModuleInformation  = "moduleInformation"
	kindModule             = "module"
	kindVenues             = "venues"
	kindVenueInformation   = "venueInformation"
	kindTimetable          = "timetable"
	kindSemesterData       = "semesterData"
	kindFacultyDepartments = "facultyDepartments"
	kindAliases            = "aliases"
)

// SQLite keeps every record of one academic year as a JSON document in a
// single table. All writes of a run share one transaction that is applied
// by Commit.
type SQLite struct {
	db       *sql.DB
	acadYear string

	mutex sync.Mutex
	tx    *sql.Tx
}

func NewSQLite(ctx context.Context, db *sql.DB, acadYear int) (*SQLite, error) {
	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLite{db: db, acadYear: model.FormatAcadYear(acadYear)}, nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the open transaction, beginning one for writes. Reads
// without a transaction go straight to the db. The transaction outlives
// the context of the first write, only Commit or Discard end it.
func (s *SQLite) conn(ctx context.Context, write bool) (querier, error) {
	if s.tx != nil {
		return s.tx, nil
	}
	if !write {
		return s.db, nil
	}
	tx, err := s.db.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return nil, err
	}
	s.tx = tx
	return tx, nil
}

func (s *SQLite) put(ctx context.Context, kind string, semester int, code string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	conn, err := s.conn(ctx, true)
	if err != nil {
		return err
	}
	_, err = conn.ExecContext(
		ctx,
		`insert into documents (acad_year, kind, semester, code, body) values (?, ?, ?, ?, ?)
		on conflict (acad_year, kind, semester, code) do update set body = excluded.body`,
		s.acadYear, kind, semester, code, string(body),
	)
	if err != nil {
		return fmt.Errorf("put %s %s: %w", kind, code, err)
	}
	return nil
}

// Get decodes a stored document into v, ErrNotFound when it is missing.
func (s *SQLite) Get(ctx context.Context, kind string, semester int, code string, v any) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	conn, err := s.conn(ctx, false)
	if err != nil {
		return err
	}
	var body string
	err = conn.QueryRowContext(
		ctx,
		"select body from documents where acad_year = ? and kind = ? and semester = ? and code = ?",
		s.acadYear, kind, semester, code,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, code, ErrNotFound)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(body), v)
}

func (s *SQLite) ModuleList(ctx context.Context, modules []model.ModuleCondensed) error {
	return s.put(ctx, kindModuleList, 0, "", modules)
}

func (s *SQLite) ModuleInformation(ctx context.Context, modules []model.ModuleInformation) error {
	return s.put(ctx, kindModuleInformation, 0, "", modules)
}

func (s *SQLite) Module(ctx context.Context, code string, module model.Module) error {
	return s.put(ctx, kindModule, 0, code, module)
}

func (s *SQLite) GetModuleCodes(ctx context.Context) ([]string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	conn, err := s.conn(ctx, false)
	if err != nil {
		return nil, err
	}
	rows, err := conn.QueryContext(
		ctx,
		"select code from documents where acad_year = ? and kind = ? order by code",
		s.acadYear, kindModule,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		err = rows.Scan(&code)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (s *SQLite) DeleteModule(ctx context.Context, code string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	conn, err := s.conn(ctx, true)
	if err != nil {
		return err
	}
	_, err = conn.ExecContext(
		ctx,
		"delete from documents where acad_year = ? and code = ? and kind in (?, ?, ?)",
		s.acadYear, code, kindModule, kindTimetable, kindSemesterData,
	)
	return err
}

func (s *SQLite) VenueList(ctx context.Context, semester int, venues []string) error {
	return s.put(ctx, kindVenues, semester, "", venues)
}

func (s *SQLite) VenueInformation(ctx context.Context, semester int, info model.VenueInfo) error {
	return s.put(ctx, kindVenueInformation, semester, "", info)
}

func (s *SQLite) Timetable(ctx context.Context, semester int, code string, lessons []model.RawLesson) error {
	if lessons == nil {
		lessons = []model.RawLesson{}
	}
	return s.put(ctx, kindTimetable, semester, code, lessons)
}

func (s *SQLite) SemesterData(ctx context.Context, semester int, code string, data model.SemesterData) error {
	return s.put(ctx, kindSemesterData, semester, code, data)
}

func (s *SQLite) FacultyDepartments(ctx context.Context, directory model.FacultyDepartments) error {
	return s.put(ctx, kindFacultyDepartments, 0, "", directory)
}

func (s *SQLite) ModuleAliases(ctx context.Context, aliases model.Aliases) error {
	return s.put(ctx, kindAliases, 0, "", aliases)
}

func (s *SQLite) Commit() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	return err
}

func (s *SQLite) Discard() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	return err
}

// Close rolls back anything not committed and closes the db.
func (s *SQLite) Close() error {
	return errors.Join(s.Discard(), s.db.Close())
}
