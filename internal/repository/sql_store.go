package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"go.uber.org/zap"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// dialect captures the differences between the supported SQL backends.
type dialect struct {
	driver       string
	numbered     bool // $1 placeholders instead of ?
	returning    bool // INSERT ... RETURNING id instead of LastInsertId
	schema       []string
	tablesQuery  string
	columnsQuery string
	dropSuffix   string
}

var dialects = map[string]dialect{
	"sqlite": {
		driver:       "sqlite",
		schema:       sqliteSchema,
		tablesQuery:  `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`,
		columnsQuery: `SELECT name FROM pragma_table_info(?) ORDER BY cid`,
	},
	"postgres": {
		driver:       "postgres",
		numbered:     true,
		returning:    true,
		schema:       postgresSchema,
		tablesQuery:  `SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name`,
		columnsQuery: `SELECT column_name FROM information_schema.columns WHERE table_schema = 'public' AND table_name = ? ORDER BY ordinal_position`,
		dropSuffix:   " CASCADE",
	},
	"mysql": {
		driver:       "mysql",
		schema:       mysqlSchema,
		tablesQuery:  `SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name`,
		columnsQuery: `SELECT column_name FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position`,
	},
}

// execQuerier is satisfied by both *sql.DB and *sql.Tx.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SQLStore implements Store on database/sql for SQLite, PostgreSQL and MySQL.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	name    string
	log     *zap.SugaredLogger
	now     func() time.Time
}

// SQLOptions tunes the connection pool. Zero values keep driver defaults,
// except SQLite which defaults to a single connection.
type SQLOptions struct {
	MaxOpenConns int
	MaxIdleConns int
}

// NewSQLStore opens a SQL store. name is one of sqlite, postgres or mysql;
// for sqlite dsn is the database file path.
func NewSQLStore(name, dsn string, opts SQLOptions, log *zap.SugaredLogger) (*SQLStore, error) {
	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("unsupported database type %q", name)
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	if name == "sqlite" {
		dsn = dsn + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}

	if name == "sqlite" {
		// One connection unless asked otherwise; WAL and busy_timeout let
		// extra connections wait for the single writer.
		conns := 1
		if opts.MaxOpenConns > 1 {
			conns = opts.MaxOpenConns
		}
		db.SetMaxOpenConns(conns)
		db.SetMaxIdleConns(conns)
		db.SetConnMaxLifetime(0)
	} else {
		if opts.MaxOpenConns > 0 {
			db.SetMaxOpenConns(opts.MaxOpenConns)
		}
		if opts.MaxIdleConns > 0 {
			db.SetMaxIdleConns(opts.MaxIdleConns)
		}
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetConnMaxIdleTime(1 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", name, err)
	}

	s := &SQLStore{
		db:      db,
		dialect: d,
		name:    name,
		log:     log.Named("store"),
		now:     func() time.Time { return time.Now().UTC() },
	}
	s.log.Infof("[SQLStore] Connected (%s)", name)
	return s, nil
}

// q rewrites ? placeholders into $n for dialects that need it.
func (s *SQLStore) q(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// insert runs an INSERT and returns the new row's id.
func (s *SQLStore) insert(ctx context.Context, ex execQuerier, query string, args ...interface{}) (int64, error) {
	if s.dialect.returning {
		var id int64
		if err := ex.QueryRowContext(ctx, s.q(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := ex.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// isUniqueViolation recognises unique-constraint errors from all three drivers.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Migrate creates missing tables and indexes.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Ping checks connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tables lists tables in the current database.
func (s *SQLStore) Tables(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, s.dialect.tablesQuery)
}

// Columns lists the column names of table.
func (s *SQLStore) Columns(ctx context.Context, table string) ([]string, error) {
	cols, err := s.queryStrings(ctx, s.dialect.columnsQuery, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, ErrNotFound
	}
	return cols, nil
}

func (s *SQLStore) queryStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Reset drops all application tables.
func (s *SQLStore) Reset(ctx context.Context) error {
	for _, table := range appTables {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+s.dialect.dropSuffix); err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
		s.log.Infof("[SQLStore] Dropped table %s", table)
	}
	return nil
}

// GetStats returns row counts and pool details.
func (s *SQLStore) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := map[string]interface{}{"type": s.name}

	counts := []struct {
		key   string
		query string
	}{
		{"users", "SELECT COUNT(*) FROM users"},
		{"items", "SELECT COUNT(*) FROM items"},
		{"items_available", "SELECT COUNT(*) FROM items WHERE is_available = ?"},
		{"requests", "SELECT COUNT(*) FROM requests"},
	}
	for _, c := range counts {
		var args []interface{}
		if strings.Contains(c.query, "?") {
			args = append(args, true)
		}
		var n int64
		if err := s.db.QueryRowContext(ctx, s.q(c.query), args...).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.key, err)
		}
		stats[c.key] = n
	}

	dbStats := s.db.Stats()
	stats["connections"] = map[string]interface{}{
		"open":     dbStats.OpenConnections,
		"in_use":   dbStats.InUse,
		"idle":     dbStats.Idle,
		"max_open": dbStats.MaxOpenConnections,
	}
	return stats, nil
}

// Close closes the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ensure SQLStore implements Store
var _ Store = (*SQLStore)(nil)
