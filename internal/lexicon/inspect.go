package lexicon

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dyne/scramble/internal/log"
)

// Inspect prints the tables of the lexicon at path with their row counts,
// followed by how many distinct words it can answer for.
func Inspect(ctx context.Context, path string, w io.Writer, logger *log.Logger) error {
	lex, err := Open(ctx, path)
	if err != nil {
		return err
	}
	defer lex.Close()

	tables, err := loadTables(ctx, lex.db)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Tables:")
	for _, name := range names {
		count, err := lex.count(ctx, fmt.Sprintf("SELECT COUNT(1) FROM %s", quoteIdent(name)))
		if err != nil {
			return fmt.Errorf("count %s: %w", name, err)
		}
		fmt.Fprintf(w, "- %s (%d rows)\n", name, count)
		fmt.Fprintf(w, "  columns: %s\n", strings.Join(tables[name].Columns, ", "))
	}
	words, err := lex.count(ctx, `SELECT COUNT(DISTINCT word) FROM lemmas`)
	if err != nil {
		return fmt.Errorf("count words: %w", err)
	}
	fmt.Fprintf(w, "Words: %d\n", words)
	if logger != nil {
		logger.Infof("inspect complete")
	}
	return nil
}

func (d *DB) count(ctx context.Context, query string) (int64, error) {
	var n int64
	if err := d.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
