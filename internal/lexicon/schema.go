package lexicon

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

var schemaDDL = []string{
	`CREATE TABLE synsets (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		pos TEXT NOT NULL
	)`,
	`CREATE TABLE lemmas (
		synset_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		word TEXT NOT NULL,
		sense INTEGER NOT NULL,
		PRIMARY KEY (synset_id, position),
		FOREIGN KEY(synset_id) REFERENCES synsets(id)
	)`,
	`CREATE INDEX lemmas_word ON lemmas(word)`,
	`CREATE TABLE exceptions (
		pos TEXT NOT NULL,
		word TEXT NOT NULL,
		position INTEGER NOT NULL,
		base TEXT NOT NULL,
		PRIMARY KEY (pos, word, position)
	)`,
}

// requiredColumns lists what lookups read; extra tables or columns are fine.
var requiredColumns = map[string][]string{
	"synsets":    {"id", "name", "pos"},
	"lemmas":     {"synset_id", "position", "name", "word", "sense"},
	"exceptions": {"pos", "word", "position", "base"},
}

type table struct {
	Name    string
	Columns []string
}

func loadTables(ctx context.Context, db *sql.DB) (map[string]*table, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite_master: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sqlite_master: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate sqlite_master: %w", err)
	}
	rows.Close()

	out := make(map[string]*table, len(names))
	for _, name := range names {
		cols, err := loadColumns(ctx, db, name)
		if err != nil {
			return nil, err
		}
		out[name] = &table{Name: name, Columns: cols}
	}
	return out, nil
}

func loadColumns(ctx context.Context, db *sql.DB, name string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(name)))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", name, err)
	}
	defer rows.Close()
	var cols []string
	for rows.Next() {
		var cid, notnull, pk int
		var col, colType string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &col, &colType, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table_info %s: %w", name, err)
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table_info %s: %w", name, err)
	}
	return cols, nil
}

func checkSchema(ctx context.Context, db *sql.DB) error {
	tables, err := loadTables(ctx, db)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(requiredColumns))
	for name := range requiredColumns {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		tbl, ok := tables[name]
		if !ok {
			return fmt.Errorf("%w: missing table %s", ErrBadSchema, name)
		}
		have := map[string]bool{}
		for _, c := range tbl.Columns {
			have[c] = true
		}
		for _, c := range requiredColumns[name] {
			if !have[c] {
				return fmt.Errorf("%w: table %s lacks column %s", ErrBadSchema, name, c)
			}
		}
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
