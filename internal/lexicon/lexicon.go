// Package lexicon is the synonym database behind the synonym model: a
// WordNet-shaped SQLite store of synsets, their lemmas and irregular forms.
package lexicon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

var (
	ErrBadSchema = errors.New("not a lexicon database")
	ErrClosed    = errors.New("lexicon closed")
)

// Synset is one sense of a word: a name and its lemmas in rank order.
// Multi-word lemmas use underscores.
type Synset struct {
	Name   string
	Lemmas []string
}

type DB struct {
	db *sql.DB
}

func sqliteDSN(path string, readOnly bool) string {
	if readOnly {
		return fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	}
	return fmt.Sprintf("file:%s?_busy_timeout=5000", path)
}

// Open opens an existing lexicon file read-only and checks its schema.
func Open(ctx context.Context, path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open lexicon: %w", err)
	}
	db, err := sql.Open("sqlite", sqliteDSN(path, true))
	if err != nil {
		return nil, fmt.Errorf("open lexicon: %w", err)
	}
	if err := checkSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open lexicon %s: %w", path, err)
	}
	return &DB{db: db}, nil
}

// OpenSource loads src into a private in-memory database.
func OpenSource(ctx context.Context, src *Source) (*DB, error) {
	db, err := sql.Open("sqlite", "file::memory:")
	if err != nil {
		return nil, fmt.Errorf("open memory lexicon: %w", err)
	}
	// every pooled connection would otherwise get its own empty database
	db.SetMaxOpenConns(1)
	if err := write(ctx, db, src); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func OpenSeed(ctx context.Context) (*DB, error) {
	src, err := Seed()
	if err != nil {
		return nil, err
	}
	return OpenSource(ctx, src)
}

// Build writes src to a fresh lexicon file at outPath, replacing any file
// already there.
func Build(ctx context.Context, outPath string, src *Source) error {
	if outPath == "" {
		return fmt.Errorf("output path is required")
	}
	if err := os.RemoveAll(outPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove output: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	db, err := sql.Open("sqlite", sqliteDSN(outPath, false))
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer db.Close()
	return write(ctx, db, src)
}

func write(ctx context.Context, db *sql.DB, src *Source) error {
	if src == nil {
		src = &Source{}
	}
	if err := src.Validate(); err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	for _, stmt := range schemaDDL {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	synStmt, err := tx.PrepareContext(ctx, `INSERT INTO synsets (id, name, pos) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare synsets: %w", err)
	}
	defer synStmt.Close()
	lemmaStmt, err := tx.PrepareContext(ctx, `INSERT INTO lemmas (synset_id, position, name, word, sense) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare lemmas: %w", err)
	}
	defer lemmaStmt.Close()
	excStmt, err := tx.PrepareContext(ctx, `INSERT INTO exceptions (pos, word, position, base) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare exceptions: %w", err)
	}
	defer excStmt.Close()

	for i, ss := range src.Synsets {
		id := i + 1
		if _, err := synStmt.ExecContext(ctx, id, strings.TrimSpace(ss.Name), lookupPos(ss.PartOfSpeech())); err != nil {
			return fmt.Errorf("insert synset %s: %w", ss.Name, err)
		}
		for pos, lemma := range ss.Lemmas {
			sense := id
			if len(ss.Senses) > 0 {
				sense = ss.Senses[pos]
			}
			if _, err := lemmaStmt.ExecContext(ctx, id, pos, lemma, normalizeWord(lemma), sense); err != nil {
				return fmt.Errorf("insert lemma %s/%s: %w", ss.Name, lemma, err)
			}
		}
	}
	next := map[[2]string]int{}
	for _, ex := range src.Exceptions {
		key := [2]string{lookupPos(ex.Pos), normalizeWord(ex.Word)}
		for _, base := range ex.Bases {
			if _, err := excStmt.ExecContext(ctx, key[0], key[1], next[key], normalizeWord(base)); err != nil {
				return fmt.Errorf("insert exception %s: %w", ex.Word, err)
			}
			next[key]++
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// normalizeWord is the key lemmas are stored and looked up under.
func normalizeWord(w string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(w)), " ", "_")
}

// Synsets returns the senses of word the way WordNet ranks them: nouns,
// verbs, adjectives, then adverbs, each in sense order. An inflected word
// with no entry of its own is looked up under its base forms, so "cars"
// finds car.n.01.
func (d *DB) Synsets(ctx context.Context, word string) ([]Synset, error) {
	word = normalizeWord(word)
	if word == "" {
		return nil, nil
	}
	m := newMorpher(d)
	var out []Synset
	seen := map[int64]bool{}
	for _, pos := range posOrder {
		forms, err := m.morphy(ctx, word, pos)
		if err != nil {
			return nil, err
		}
		for _, form := range forms {
			ids, senses, err := d.senses(ctx, form, pos)
			if err != nil {
				return nil, err
			}
			for i, id := range ids {
				if !seen[id] {
					seen[id] = true
					out = append(out, senses[i])
				}
			}
		}
	}
	return out, nil
}

func (d *DB) senses(ctx context.Context, form, pos string) ([]int64, []Synset, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT s.id, s.name, l.name
		FROM (SELECT synset_id, MIN(sense) AS sense FROM lemmas WHERE word = ? GROUP BY synset_id) w
		JOIN synsets s ON s.id = w.synset_id
		JOIN lemmas l ON l.synset_id = s.id
		WHERE s.pos = ?
		ORDER BY w.sense, s.id, l.position`, form, pos)
	if err != nil {
		return nil, nil, fmt.Errorf("query synsets: %w", err)
	}
	defer rows.Close()
	var ids []int64
	var out []Synset
	for rows.Next() {
		var id int64
		var name, lemma string
		if err := rows.Scan(&id, &name, &lemma); err != nil {
			return nil, nil, fmt.Errorf("scan synsets: %w", err)
		}
		if len(ids) == 0 || ids[len(ids)-1] != id {
			ids = append(ids, id)
			out = append(out, Synset{Name: name})
		}
		last := &out[len(out)-1]
		last.Lemmas = append(last.Lemmas, lemma)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate synsets: %w", err)
	}
	return ids, out, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Lazy defers opening a lexicon until the first lookup. Concurrent first
// lookups share one open; its error, if any, sticks. Close waits for
// lookups in flight.
type Lazy struct {
	open func(ctx context.Context) (*DB, error)

	mu     sync.RWMutex
	loaded bool
	db     *DB
	err    error
}

var errNoDatabase = errors.New("lexicon opener returned no database")

func NewLazy(open func(ctx context.Context) (*DB, error)) *Lazy {
	return &Lazy{open: open}
}

// ForPath opens the file at path lazily, or the built-in seed when path is
// empty.
func ForPath(path string) *Lazy {
	if path == "" {
		return NewLazy(OpenSeed)
	}
	return NewLazy(func(ctx context.Context) (*DB, error) {
		return Open(ctx, path)
	})
}

// Load forces the open now, for callers that prefer to fail at startup.
func (l *Lazy) Load(ctx context.Context) error {
	l.mu.RLock()
	loaded, err := l.loaded, l.err
	l.mu.RUnlock()
	if loaded {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.loaded {
		l.db, l.err = l.open(context.WithoutCancel(ctx))
		if l.db == nil && l.err == nil {
			l.err = errNoDatabase
		}
		l.loaded = true
	}
	return l.err
}

func (l *Lazy) Synsets(ctx context.Context, word string) ([]Synset, error) {
	if err := l.Load(ctx); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.err != nil {
		return nil, l.err
	}
	return l.db.Synsets(ctx, word)
}

// Close releases the database if it was opened and prevents later opens.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	db := l.db
	l.loaded, l.db, l.err = true, nil, ErrClosed
	if db == nil {
		return nil
	}
	return db.Close()
}
