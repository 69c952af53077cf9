package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Conn is a database handle that accepts '?' placeholders for every driver.
type Conn struct {
	*sql.DB
	Driver  string
	Retries int
}

var DB *Conn

// InitDatabase opens (creating if needed) the SQLite database at dbPath and
// installs it as the package-level DB.
func InitDatabase(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}
	return Init(DriverSQLite, dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", 5)
}

// Init opens a database with the given driver and runs the schema.
func Init(driver, dsn string, retries int) error {
	conn, err := Open(driver, dsn, retries)
	if err != nil {
		return err
	}
	DB = conn
	return nil
}

func Open(driver, dsn string, retries int) (*Conn, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == DriverSQLite {
		// One writer at a time; transactions queue on the pool instead of
		// failing with SQLITE_BUSY on lock upgrade.
		db.SetMaxOpenConns(1)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("Database connection established")

	if retries <= 0 {
		retries = 1
	}
	conn := &Conn{DB: db, Driver: driver, Retries: retries}

	if err = conn.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	log.Println("Database tables created successfully")
	return conn, nil
}

func (c *Conn) createTables() error {
	if _, err := c.DB.Exec(schema); err != nil {
		return err
	}
	return c.ensureColumn("users", "dark_mode", "BOOLEAN NOT NULL DEFAULT FALSE")
}

// ensureColumn adds a column that databases created by older releases lack.
func (c *Conn) ensureColumn(table, column, ddl string) error {
	if c.Driver == DriverPostgres {
		_, err := c.DB.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s`, table, column, ddl))
		return err
	}

	rows, err := c.DB.Query(fmt.Sprintf(`PRAGMA table_info(%s);`, table))
	if err != nil {
		return err
	}
	defer rows.Close()
	found := false
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		if strings.EqualFold(name, column) {
			found = true
			break
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()
	if !found {
		if _, err := c.DB.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s;`, table, column, ddl)); err != nil {
			log.Printf("Warning: adding %s.%s column failed: %v", table, column, err)
		} else {
			log.Printf("✓ Added %s column to existing %s table", column, table)
		}
	}
	return nil
}

// Rebind rewrites '?' placeholders into the driver's native form.
func (c *Conn) Rebind(query string) string {
	return rebind(c.Driver, query)
}

func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			fmt.Fprintf(&b, "$%d", n)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ForUpdate is the row-locking suffix for SELECTs inside a transaction.
// SQLite serialises writers already, so it needs none.
func (c *Conn) ForUpdate() string {
	if c.Driver == DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

func (c *Conn) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return c.DB.ExecContext(ctx, c.Rebind(query), args...)
}

func (c *Conn) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.DB.QueryContext(ctx, c.Rebind(query), args...)
}

func (c *Conn) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return c.DB.QueryRowContext(ctx, c.Rebind(query), args...)
}

func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
