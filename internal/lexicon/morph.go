package lexicon

import (
	"context"
	"fmt"
	"strings"
)

// posOrder is the order senses of different parts of speech are returned in.
var posOrder = []string{"n", "v", "a", "r"}

// Detachment rules for regular inflections, as in WordNet's morphy.
var substitutions = map[string][][2]string{
	"n": {
		{"s", ""}, {"ses", "s"}, {"ves", "f"}, {"xes", "x"}, {"zes", "z"},
		{"ches", "ch"}, {"shes", "sh"}, {"men", "man"}, {"ies", "y"},
	},
	"v": {
		{"s", ""}, {"ies", "y"}, {"es", "e"}, {"es", ""},
		{"ed", "e"}, {"ed", ""}, {"ing", "e"}, {"ing", ""},
	},
	"a": {{"er", ""}, {"est", ""}, {"er", "e"}, {"est", "e"}},
}

// morpher resolves a word to the base forms the lexicon knows, caching which
// parts of speech each candidate form has.
type morpher struct {
	d     *DB
	known map[string]map[string]bool
}

func newMorpher(d *DB) *morpher {
	return &morpher{d: d, known: map[string]map[string]bool{}}
}

// morphy returns the forms of word, itself included, that have pos senses.
// Irregular forms come from the exceptions table; otherwise the rules are
// applied once, and repeatedly only if nothing matched.
func (m *morpher) morphy(ctx context.Context, word, pos string) ([]string, error) {
	bases, err := m.exceptions(ctx, word, pos)
	if err != nil {
		return nil, err
	}
	if len(bases) > 0 {
		return m.filter(ctx, append([]string{word}, bases...), pos)
	}
	forms := applyRules([]string{word}, pos)
	found, err := m.filter(ctx, append([]string{word}, forms...), pos)
	if err != nil || len(found) > 0 {
		return found, err
	}
	for len(forms) > 0 {
		forms = applyRules(forms, pos)
		found, err = m.filter(ctx, forms, pos)
		if err != nil || len(found) > 0 {
			return found, err
		}
	}
	return nil, nil
}

// applyRules strips every matching suffix. Each rule shortens the form or,
// for men/man, leaves a form no rule matches again, so repeated application
// ends.
func applyRules(forms []string, pos string) []string {
	var out []string
	seen := map[string]bool{}
	for _, form := range forms {
		for _, rule := range substitutions[pos] {
			if !strings.HasSuffix(form, rule[0]) {
				continue
			}
			next := strings.TrimSuffix(form, rule[0]) + rule[1]
			if next != "" && !seen[next] {
				seen[next] = true
				out = append(out, next)
			}
		}
	}
	return out
}

func (m *morpher) filter(ctx context.Context, forms []string, pos string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, form := range forms {
		if seen[form] {
			continue
		}
		seen[form] = true
		ok, err := m.has(ctx, form, pos)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, form)
		}
	}
	return out, nil
}

func (m *morpher) has(ctx context.Context, form, pos string) (bool, error) {
	if set, ok := m.known[form]; ok {
		return set[pos], nil
	}
	rows, err := m.d.db.QueryContext(ctx, `
		SELECT DISTINCT s.pos FROM lemmas l JOIN synsets s ON s.id = l.synset_id
		WHERE l.word = ?`, form)
	if err != nil {
		return false, fmt.Errorf("query forms: %w", err)
	}
	defer rows.Close()
	set := map[string]bool{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return false, fmt.Errorf("scan forms: %w", err)
		}
		set[p] = true
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterate forms: %w", err)
	}
	m.known[form] = set
	return set[pos], nil
}

func (m *morpher) exceptions(ctx context.Context, word, pos string) ([]string, error) {
	rows, err := m.d.db.QueryContext(ctx, `SELECT base FROM exceptions WHERE pos = ? AND word = ? ORDER BY position`, pos, word)
	if err != nil {
		return nil, fmt.Errorf("query exceptions: %w", err)
	}
	defer rows.Close()
	var bases []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("scan exceptions: %w", err)
		}
		bases = append(bases, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exceptions: %w", err)
	}
	return bases, nil
}
