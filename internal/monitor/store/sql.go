package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/shapeflow/monitor/internal/monitor/logger"
)

// SQLOptions configures the SQL-backed store. Path is only used by the
// sqlite driver; the network fields only by postgres/mysql.
type SQLOptions struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string
}

// SQLStore keeps each collection's entries as JSON payloads in one
// log_entries table, so the same document read/write boundary runs on
// postgres, mysql, or a local sqlite file.
type SQLStore struct {
	db     *sql.DB
	driver string
}

func NewSQLStore(opts SQLOptions) (*SQLStore, error) {
	driver := opts.Driver
	if driver == "" {
		driver = "postgres"
	}
	dsn := buildDSN(opts)

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s store: %w", driver, err)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	logger.Named("store").Infow("SQL store ready", "driver", driver)
	return s, nil
}

// buildDSN constructs a DSN for postgres/mysql/sqlite.
func buildDSN(opts SQLOptions) string {
	host := opts.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := opts.Port
	sslmode := opts.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}

	switch opts.Driver {
	case "sqlite":
		return opts.Path
	case "mysql":
		if port == 0 {
			port = 3306
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			opts.User, opts.Password, host, port, opts.DBName)
	default: // postgres
		if port == 0 {
			port = 5432
		}
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			opts.User, opts.Password, host, port, opts.DBName, sslmode)
	}
}

// schemaFor returns the driver-specific DDL for the entries table.
// MySQL needs bounded key columns for the primary key and a MEDIUMTEXT
// payload; postgres and sqlite share plain TEXT.
func schemaFor(driver string) string {
	switch driver {
	case "mysql":
		return `CREATE TABLE IF NOT EXISTS log_entries (
    collection VARCHAR(255) NOT NULL,
    entry_key  VARCHAR(255) NOT NULL,
    file_name  TEXT NOT NULL,
    payload    MEDIUMTEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (collection, entry_key)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`
	case "sqlite":
		return `CREATE TABLE IF NOT EXISTS log_entries (
    collection TEXT NOT NULL,
    entry_key  TEXT NOT NULL,
    file_name  TEXT NOT NULL,
    payload    TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (collection, entry_key)
)`
	default: // postgres
		return `CREATE TABLE IF NOT EXISTS log_entries (
    collection TEXT NOT NULL,
    entry_key  TEXT NOT NULL,
    file_name  TEXT NOT NULL,
    payload    TEXT NOT NULL,
    created_at TIMESTAMPTZ DEFAULT now(),
    PRIMARY KEY (collection, entry_key)
)`
	}
}

func (s *SQLStore) ensureSchema() error {
	if _, err := s.db.Exec(schemaFor(s.driver)); err != nil {
		return fmt.Errorf("ensure log_entries schema: %w", err)
	}
	return nil
}

// placeholder returns the i-th bind placeholder for the active driver.
func (s *SQLStore) placeholder(i int) string {
	if s.driver == "postgres" {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// upsertQuery returns the driver-specific insert-or-replace statement.
func upsertQuery(driver string) string {
	switch driver {
	case "mysql":
		return "INSERT INTO log_entries (collection, entry_key, file_name, payload) VALUES (?, ?, ?, ?) " +
			"ON DUPLICATE KEY UPDATE file_name = VALUES(file_name), payload = VALUES(payload)"
	case "sqlite":
		return "INSERT INTO log_entries (collection, entry_key, file_name, payload) VALUES (?, ?, ?, ?) " +
			"ON CONFLICT (collection, entry_key) DO UPDATE SET file_name = excluded.file_name, payload = excluded.payload"
	default: // postgres
		return "INSERT INTO log_entries (collection, entry_key, file_name, payload) VALUES ($1, $2, $3, $4) " +
			"ON CONFLICT (collection, entry_key) DO UPDATE SET file_name = EXCLUDED.file_name, payload = EXCLUDED.payload"
	}
}

func (s *SQLStore) Read(ctx context.Context, collection string) (map[string]Entry, error) {
	q := "SELECT entry_key, file_name, payload FROM log_entries WHERE collection = " + s.placeholder(1)
	rows, err := s.db.QueryContext(ctx, q, collection)
	if err != nil {
		return nil, fmt.Errorf("read collection %s: %w", collection, err)
	}
	defer rows.Close()

	out := make(map[string]Entry)
	for rows.Next() {
		var key, fileName, payload string
		if err := rows.Scan(&key, &fileName, &payload); err != nil {
			return nil, fmt.Errorf("scan entry in %s: %w", collection, err)
		}
		var data []Record
		if err := json.Unmarshal([]byte(payload), &data); err != nil {
			// Nonconforming payloads are skipped, not fatal.
			logger.Named("store").Warnw("Skipping malformed entry payload",
				"collection", collection,
				"key", key,
				"error", err)
			continue
		}
		out[key] = Entry{FileName: fileName, Data: data}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read collection %s: %w", collection, err)
	}
	if len(out) == 0 {
		// A collection with no rows is indistinguishable from one that
		// was never written; both report absent.
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *SQLStore) Write(ctx context.Context, collection, key string, entry Entry) error {
	payload, err := json.Marshal(entry.Data)
	if err != nil {
		return fmt.Errorf("marshal entry %s: %w", key, err)
	}
	if _, err := s.db.ExecContext(ctx, upsertQuery(s.driver), collection, key, entry.FileName, string(payload)); err != nil {
		return fmt.Errorf("write entry %s to %s: %w", key, collection, err)
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context, collection string) error {
	q := "DELETE FROM log_entries WHERE collection = " + s.placeholder(1)
	if _, err := s.db.ExecContext(ctx, q, collection); err != nil {
		return fmt.Errorf("clear collection %s: %w", collection, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
