package transform

import (
	"context"
	"fmt"
	"strings"

	"github.com/dyne/scramble/internal/lexicon"
)

// Lexicon answers sense lookups for a single lower-cased word. Senses come
// back in rank order, each with its lemmas in rank order.
type Lexicon interface {
	Synsets(ctx context.Context, word string) ([]lexicon.Synset, error)
}

// SynonymReplace swaps every word for the first lemma of its first sense.
// Words the lexicon does not know are kept.
func SynonymReplace(ctx context.Context, text string, lex Lexicon) (string, error) {
	if lex == nil {
		return "", ErrNoLexicon
	}
	words := strings.Fields(text)
	for i, w := range words {
		senses, err := lex.Synsets(ctx, strings.ToLower(w))
		if err != nil {
			return "", fmt.Errorf("lookup %q: %w", w, err)
		}
		if len(senses) == 0 || len(senses[0].Lemmas) == 0 {
			continue
		}
		words[i] = strings.ReplaceAll(senses[0].Lemmas[0], "_", " ")
	}
	return strings.Join(words, " "), nil
}
