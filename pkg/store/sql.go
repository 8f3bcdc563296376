package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

type dialect struct {
	driver string
	// bind rewrites "?" placeholders for drivers that need numbered ones.
	bind func(query string) string
}

var (
	sqliteDialect   = dialect{driver: "sqlite3", bind: func(q string) string { return q }}
	postgresDialect = dialect{driver: "pgx", bind: numberPlaceholders}
)

const createProjects = `
CREATE TABLE IF NOT EXISTS projects (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	mode TEXT NOT NULL,
	document TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

const upsertProject = `
INSERT INTO projects (id, title, mode, document, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	title = excluded.title,
	mode = excluded.mode,
	document = excluded.document,
	updated_at = excluded.updated_at`

// SQL stores projects in SQLite or PostgreSQL through database/sql. Each
// project is one row holding the JSON document plus a few indexed columns.
type SQL struct {
	db      *sql.DB
	dialect dialect
	opts    options
}

var _ Store = (*SQL)(nil)

// Open connects to dsn. "postgres://" and "postgresql://" DSNs use the pgx
// driver; "sqlite://path", "file:" DSNs and bare paths use SQLite. ":memory:"
// opens a private in-memory SQLite database. An empty DSN returns a Memory
// store.
func Open(ctx context.Context, dsn string, opts ...Option) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" || dsn == "memory" {
		return NewMemory(opts...), nil
	}

	d, source, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}
	if d.driver == sqliteDialect.driver && source != ":memory:" && !strings.HasPrefix(source, "file:") {
		if dir := filepath.Dir(source); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("store: create directory %s: %w", dir, err)
			}
		}
		source += "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open(d.driver, source)
	if err != nil {
		return nil, fmt.Errorf("store: open %s database: %w", d.driver, err)
	}
	if d.driver == sqliteDialect.driver {
		// One connection keeps :memory: databases alive and serialises writes.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping %s database: %w", d.driver, err)
	}

	s := &SQL{db: db, dialect: d, opts: buildOptions(opts)}
	if _, err := db.ExecContext(ctx, createProjects); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: initialize schema: %w", err)
	}
	return s, nil
}

func parseDSN(dsn string) (dialect, string, error) {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return postgresDialect, dsn, nil
	case strings.HasPrefix(lower, "sqlite://"):
		path := dsn[len("sqlite://"):]
		if path == "" {
			return dialect{}, "", fmt.Errorf("store: sqlite dsn %q has no path", dsn)
		}
		return sqliteDialect, path, nil
	case strings.HasPrefix(lower, "sqlite3://"):
		return sqliteDialect, dsn[len("sqlite3://"):], nil
	case strings.Contains(lower, "://"):
		return dialect{}, "", fmt.Errorf("store: unsupported dsn scheme in %q", dsn)
	default:
		return sqliteDialect, dsn, nil
	}
}

// Driver reports the database/sql driver in use.
func (s *SQL) Driver() string {
	return s.dialect.driver
}

func (s *SQL) Save(ctx context.Context, project Project) (Project, error) {
	if strings.TrimSpace(project.ID) == "" {
		return Project{}, ErrNoID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Project{}, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	var existing *Project
	prev, err := s.get(ctx, tx, project.ID)
	switch {
	case err == nil:
		existing = &prev
	case !errors.Is(err, ErrNotFound):
		return Project{}, err
	}

	project = stamp(project, existing, s.opts.now())
	data, err := encode(project)
	if err != nil {
		return Project{}, err
	}
	_, err = tx.ExecContext(ctx, s.dialect.bind(upsertProject),
		project.ID,
		project.Schema.Title,
		string(project.Mode),
		string(data),
		project.CreatedAt.Format(time.RFC3339Nano),
		project.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Project{}, fmt.Errorf("store: save project %s: %w", project.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return Project{}, fmt.Errorf("store: commit: %w", err)
	}
	return decode(data)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQL) get(ctx context.Context, q queryer, id string) (Project, error) {
	var document string
	err := q.QueryRowContext(ctx, s.dialect.bind(`SELECT document FROM projects WHERE id = ?`), id).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	if err != nil {
		return Project{}, fmt.Errorf("store: get project %s: %w", id, err)
	}
	return decode([]byte(document))
}

func (s *SQL) Get(ctx context.Context, id string) (Project, error) {
	return s.get(ctx, s.db, id)
}

func (s *SQL) List(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT document FROM projects ORDER BY updated_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("store: scan project: %w", err)
		}
		project, err := decode([]byte(document))
		if err != nil {
			return nil, err
		}
		out = append(out, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	return out, nil
}

func (s *SQL) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.dialect.bind(`DELETE FROM projects WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("store: delete project %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: delete project %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}

// numberPlaceholders rewrites "?" into "$1", "$2", ... for PostgreSQL. The
// queries in this file never contain literal question marks.
func numberPlaceholders(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$")
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
