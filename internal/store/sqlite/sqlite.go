package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"neowatch/internal/model"
	"neowatch/internal/store"
)

const defaultTable = "neows"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store persists flattened close-approach rows in a local SQLite
// file under a composite (close_approach_date, id) primary key.
type Store struct {
	db    *sql.DB
	table string
}

var _ store.Store = (*Store)(nil)

func New(path string) (*Store, error) {
	return NewWithTable(path, defaultTable)
}

func NewWithTable(path, table string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	if table == "" {
		table = defaultTable
	}
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("sqlite: invalid table name %q", table)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create warehouse dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	return &Store{db: db, table: table}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// EnsureSchema creates the table and its date index if absent. Safe
// to call on every load; existing data is never touched.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT,
			name TEXT,
			close_approach_date TEXT,
			absolute_magnitude_h REAL,
			diameter_min_km REAL,
			diameter_max_km REAL,
			is_potentially_hazardous INTEGER,
			relative_velocity_kps REAL,
			miss_distance_km REAL,
			orbiting_body TEXT,
			PRIMARY KEY (close_approach_date, id)
		);`, s.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_date ON %s (close_approach_date);`, s.table, s.table),
	}

	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("sqlite: ensure schema: %w", err)
		}
	}
	return nil
}

// DeleteRange removes rows whose close_approach_date falls inside
// [startDate, endDate], both bounds inclusive. String comparison is
// valid because the format is fixed-width and zero-padded.
func (s *Store) DeleteRange(ctx context.Context, startDate, endDate string) (int64, error) {
	query, args, err := deleteRangeSQL(s.table, startDate, endDate)
	if err != nil {
		return 0, fmt.Errorf("sqlite: build delete: %w", err)
	}
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("sqlite: delete range: %w", err)
	}
	return result.RowsAffected()
}

// LoadApproaches inserts a batch of rows, optionally deleting the
// covered date window first so reloads of the same window are
// idempotent. The delete and the insert share one transaction: a
// failed insert rolls the delete back too, and an in-batch natural
// key duplicate fails the whole call with no partial insert.
func (s *Store) LoadApproaches(ctx context.Context, rows []model.Approach, opts store.LoadOptions) (int64, error) {
	if len(rows) == 0 {
		return 0, fmt.Errorf("sqlite: no rows to load")
	}

	startDate, endDate := opts.StartDate, opts.EndDate
	if opts.DeleteFirst {
		var err error
		startDate, endDate, err = resolveWindow(rows, startDate, endDate)
		if err != nil {
			return 0, err
		}
	}

	switch opts.Mode {
	case "", store.ModeAppend:
	case store.ModeReplace:
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s;`, s.table)); err != nil {
			return 0, fmt.Errorf("sqlite: replace table: %w", err)
		}
	case store.ModeFail:
		exists, err := s.tableExists(ctx)
		if err != nil {
			return 0, err
		}
		if exists {
			return 0, fmt.Errorf("sqlite: table %s already exists", s.table)
		}
	default:
		return 0, fmt.Errorf("sqlite: unknown load mode %q", opts.Mode)
	}

	if err := s.EnsureSchema(ctx); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	if opts.DeleteFirst {
		query, args, err := deleteRangeSQL(s.table, startDate, endDate)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: build delete: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: delete range: %w", err)
		}
	}

	columns := model.Columns()
	insertSQL, _, err := sq.Insert(s.table).
		Columns(columns...).
		Values(make([]interface{}, len(columns))...).
		ToSql()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: build insert: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rowArgs(rows[i])...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (s *Store) tableExists(ctx context.Context) (bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, s.table,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: check table: %w", err)
	}
	return true, nil
}

func deleteRangeSQL(table, startDate, endDate string) (string, []interface{}, error) {
	return sq.Delete(table).
		Where(sq.GtOrEq{"close_approach_date": startDate}).
		Where(sq.LtOrEq{"close_approach_date": endDate}).
		ToSql()
}

// resolveWindow fills missing delete-window bounds from the batch's
// own min and max close_approach_date. A supplied bound is honored
// as-is; only the missing side is inferred.
func resolveWindow(rows []model.Approach, startDate, endDate string) (string, string, error) {
	if startDate != "" && endDate != "" {
		return startDate, endDate, nil
	}

	minDate, maxDate := "", ""
	for i := range rows {
		date := rows[i].CloseApproachDate
		if date == nil {
			continue
		}
		if minDate == "" || *date < minDate {
			minDate = *date
		}
		if maxDate == "" || *date > maxDate {
			maxDate = *date
		}
	}
	if minDate == "" {
		return "", "", fmt.Errorf("sqlite: rows carry no close_approach_date to infer a delete window")
	}

	if startDate == "" {
		startDate = minDate
	}
	if endDate == "" {
		endDate = maxDate
	}
	return startDate, endDate, nil
}

func rowArgs(row model.Approach) []interface{} {
	return []interface{}{
		textArg(row.ID),
		textArg(row.Name),
		textArg(row.CloseApproachDate),
		realArg(row.AbsoluteMagnitudeH),
		realArg(row.DiameterMinKm),
		realArg(row.DiameterMaxKm),
		boolArg(row.IsPotentiallyHazardous),
		row.RelativeVelocityKPS,
		row.MissDistanceKm,
		row.OrbitingBody,
	}
}

func textArg(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}

func realArg(value *float64) interface{} {
	if value == nil {
		return nil
	}
	return *value
}

func boolArg(value *bool) interface{} {
	if value == nil {
		return nil
	}
	return *value
}
