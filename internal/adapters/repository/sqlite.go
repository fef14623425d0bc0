package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/salaryd/internal/domain/history"
	"github.com/okian/salaryd/pkg/metrics"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS prediction_history (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	input_years      TEXT NOT NULL,
	converted_years  TEXT NOT NULL,
	city             TEXT,
	job_level        TEXT,
	predicted_salary TEXT NOT NULL,
	actual_salary    TEXT,
	data_count       INTEGER NOT NULL,
	model_version    TEXT NOT NULL DEFAULT '',
	created_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_created ON prediction_history(created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_history_feedback ON prediction_history(actual_salary) WHERE actual_salary IS NOT NULL;
`

const selectColumns = `id, input_years, converted_years, city, job_level, predicted_salary,
	actual_salary, data_count, model_version, created_at`

// SQLiteStore persists history in a SQLite database using the pure-Go
// modernc driver. Array columns hold JSON.
type SQLiteStore struct {
	db  *sql.DB
	cfg settings
}

// OpenSQLite opens (and migrates) the database at path.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	cfg := defaultSettings()
	for _, o := range opts {
		o(&cfg)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		path, cfg.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db, cfg: cfg}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create implements history.Store.
func (s *SQLiteStore) Create(ctx context.Context, r history.Record) (history.Record, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(storeSQLite, "create", time.Since(start).Seconds()) }()

	if err := checkShape(r); err != nil {
		return history.Record{}, err
	}
	r = r.Clone()
	r.CreatedAt = s.cfg.now()
	r.ActualSalary = nil

	input, converted, predicted := mustJSON(r.InputYears), mustJSON(r.ConvertedYears), mustJSON(r.PredictedSalary)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO prediction_history
			(input_years, converted_years, city, job_level, predicted_salary, data_count, model_version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		input, converted, nullJSON(r.City), nullJSON(r.JobLevel), predicted,
		r.DataCount, r.ModelVersion, r.CreatedAt.UnixNano())
	if err != nil {
		metrics.RecordErrorByComponent("repository", "insert")
		return history.Record{}, fmt.Errorf("insert history: %w", err)
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return history.Record{}, fmt.Errorf("insert history: %w", err)
	}
	return r, nil
}

// Get implements history.Store.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (history.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM prediction_history WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return history.Record{}, fmt.Errorf("%w: id %d", history.ErrNotFound, id)
	}
	return r, err
}

// Query implements history.Store.
func (s *SQLiteStore) Query(ctx context.Context, q history.Query) (history.Page, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(storeSQLite, "query", time.Since(start).Seconds()) }()

	if err := history.ValidatePage(q.Page, q.Size); err != nil {
		return history.Page{}, err
	}
	where, args := filterClause(q)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM prediction_history`+where, args...).Scan(&total); err != nil {
		return history.Page{}, fmt.Errorf("count history: %w", err)
	}

	args = append(args, q.Size, (q.Page-1)*q.Size)
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM prediction_history`+where+
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return history.Page{}, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	items := make([]history.Record, 0, q.Size)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return history.Page{}, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return history.Page{}, fmt.Errorf("query history: %w", err)
	}
	return history.Page{Items: items, Total: total}, nil
}

// UpdateActualSalary implements history.Store. The update only applies while
// actual_salary is NULL, so concurrent submissions cannot both win.
func (s *SQLiteStore) UpdateActualSalary(ctx context.Context, id int64, actual []float64) (history.Record, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE prediction_history SET actual_salary = ? WHERE id = ? AND actual_salary IS NULL`,
		mustJSON(actual), id)
	if err != nil {
		return history.Record{}, fmt.Errorf("update actual salary: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return history.Record{}, fmt.Errorf("update actual salary: %w", err)
	}
	r, err := s.Get(ctx, id)
	if err != nil {
		return history.Record{}, err
	}
	if n == 0 {
		return history.Record{}, fmt.Errorf("%w: id %d", history.ErrFeedbackExists, id)
	}
	return r, nil
}

func filterClause(q history.Query) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.WithFeedback {
		conds = append(conds, "actual_salary IS NOT NULL")
	}
	if c := strings.TrimSpace(q.City); c != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM json_each(prediction_history.city) WHERE lower(json_each.value) = lower(?))")
		args = append(args, c)
	}
	if l := strings.TrimSpace(q.JobLevel); l != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM json_each(prediction_history.job_level) WHERE lower(json_each.value) = lower(?))")
		args = append(args, l)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (history.Record, error) {
	var (
		r                           history.Record
		input, converted, predicted string
		city, level, actual         sql.NullString
		created                     int64
	)
	if err := sc.Scan(&r.ID, &input, &converted, &city, &level, &predicted, &actual,
		&r.DataCount, &r.ModelVersion, &created); err != nil {
		return history.Record{}, err
	}
	r.CreatedAt = time.Unix(0, created).UTC()

	decode := func(col string, src string, dst any) error {
		if err := json.Unmarshal([]byte(src), dst); err != nil {
			return fmt.Errorf("%w: id %d column %s: %v", ErrCorruptRow, r.ID, col, err)
		}
		return nil
	}
	if err := decode("input_years", input, &r.InputYears); err != nil {
		return history.Record{}, err
	}
	if err := decode("converted_years", converted, &r.ConvertedYears); err != nil {
		return history.Record{}, err
	}
	if err := decode("predicted_salary", predicted, &r.PredictedSalary); err != nil {
		return history.Record{}, err
	}
	if city.Valid {
		if err := decode("city", city.String, &r.City); err != nil {
			return history.Record{}, err
		}
	}
	if level.Valid {
		if err := decode("job_level", level.String, &r.JobLevel); err != nil {
			return history.Record{}, err
		}
	}
	if actual.Valid {
		if err := decode("actual_salary", actual.String, &r.ActualSalary); err != nil {
			return history.Record{}, err
		}
	}
	return r, nil
}

// mustJSON encodes slices of floats or strings, which cannot fail.
func mustJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func nullJSON(v []string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: mustJSON(v), Valid: true}
}
