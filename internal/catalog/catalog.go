package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gordysc/Foundatio.Parsers/internal/runtimefield"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the user_version written by schema.sql. Migrations for
// later versions go in runMigrations.
const schemaVersion = 1

// Catalog stores runtime field definitions and the discovery log.
type Catalog struct {
	db *sql.DB
}

// Open creates or opens a catalog database at the given path.
// Applies required pragmas and migrations automatically.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to catalog: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return runMigrations(db)
}

// runMigrations brings a database up to schemaVersion based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("catalog schema version %d is newer than supported version %d", version, schemaVersion)
	}
	if version == schemaVersion {
		return nil
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Put registers f. A field whose name matches an existing entry
// case-insensitively replaces that entry's type and script; the stored
// spelling of the name is kept.
func (c *Catalog) Put(ctx context.Context, f runtimefield.Field) error {
	if f.Name == "" {
		return errors.New("put runtime field: name is required")
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO runtime_fields (name, type, script)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET type = excluded.type, script = excluded.script
	`, f.Name, f.Type, f.Script)
	if err != nil {
		return fmt.Errorf("put runtime field %q: %w", f.Name, err)
	}
	return nil
}

// Lookup returns the field registered under name, compared
// case-insensitively. The bool is false when there is none.
func (c *Catalog) Lookup(ctx context.Context, name string) (runtimefield.Field, bool, error) {
	var f runtimefield.Field
	err := c.db.QueryRowContext(ctx, `
		SELECT name, type, script FROM runtime_fields WHERE name = ?
	`, name).Scan(&f.Name, &f.Type, &f.Script)
	if errors.Is(err, sql.ErrNoRows) {
		return runtimefield.Field{}, false, nil
	}
	if err != nil {
		return runtimefield.Field{}, false, fmt.Errorf("lookup runtime field %q: %w", name, err)
	}
	return f, true, nil
}

// List returns every registered field in registration order.
//
// Returns an empty slice (not nil) for an empty catalog.
func (c *Catalog) List(ctx context.Context) ([]runtimefield.Field, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT name, type, script FROM runtime_fields ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runtime fields: %w", err)
	}
	defer rows.Close()

	fields := []runtimefield.Field{}
	for rows.Next() {
		var f runtimefield.Field
		if err := rows.Scan(&f.Name, &f.Type, &f.Script); err != nil {
			return nil, fmt.Errorf("scan runtime field: %w", err)
		}
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runtime fields: %w", err)
	}
	return fields, nil
}

// Discovery is one entry of the discovery log.
type Discovery struct {
	Seq   int64  `json:"seq"`
	Name  string `json:"name"`            // name as requested
	Field string `json:"field,omitempty"` // catalog name served, empty on a miss
}

// Found reports whether the request was answered with a field.
func (d Discovery) Found() bool { return d.Field != "" }

// Discoverer returns a discovery callback backed by the catalog.
//
// Each call is recorded in the discovery log, hit or miss. A name missing
// from the catalog yields (nil, nil).
func (c *Catalog) Discoverer() runtimefield.ResolverFunc {
	return func(ctx context.Context, name string) (*runtimefield.Field, error) {
		f, ok, err := c.Lookup(ctx, name)
		if err != nil {
			return nil, err
		}

		var served sql.NullString
		if ok {
			served = sql.NullString{String: f.Name, Valid: true}
		}
		if _, err := c.db.ExecContext(ctx, `
			INSERT INTO discoveries (name, field) VALUES (?, ?)
		`, name, served); err != nil {
			return nil, fmt.Errorf("record discovery of %q: %w", name, err)
		}

		if !ok {
			return nil, nil
		}
		return &f, nil
	}
}

// Discoveries returns the discovery log in request order.
func (c *Catalog) Discoveries(ctx context.Context) ([]Discovery, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT seq, name, field FROM discoveries ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query discoveries: %w", err)
	}
	defer rows.Close()

	log := []Discovery{}
	for rows.Next() {
		var (
			d     Discovery
			field sql.NullString
		)
		if err := rows.Scan(&d.Seq, &d.Name, &field); err != nil {
			return nil, fmt.Errorf("scan discovery: %w", err)
		}
		d.Field = field.String
		log = append(log, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate discoveries: %w", err)
	}
	return log, nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (c *Catalog) verifyPragma(name, expected string) error {
	var value string
	if err := c.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
