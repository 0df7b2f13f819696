package lexicon

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedData []byte

// Source is the portable form of a lexicon, read from YAML or imported from
// a WordNet database. A word's senses are grouped by part of speech (nouns,
// verbs, adjectives, adverbs) and ranked within each group by Senses, or by
// file order when a synset carries none.
type Source struct {
	Synsets    []SourceSynset    `yaml:"synsets"`
	Exceptions []SourceException `yaml:"exceptions,omitempty"`
}

type SourceSynset struct {
	Name string `yaml:"name"`
	// Pos is n, v, a, s or r. When empty it is taken from a WordNet style
	// name such as "car.n.01".
	Pos    string   `yaml:"pos,omitempty"`
	Lemmas []string `yaml:"lemmas"`
	// Senses holds, parallel to Lemmas, the 1-based rank of this synset
	// among the senses of each lemma.
	Senses []int `yaml:"senses,omitempty"`
}

// SourceException maps an irregular inflection to its base forms, like
// "children" to "child".
type SourceException struct {
	Pos   string   `yaml:"pos"`
	Word  string   `yaml:"word"`
	Bases []string `yaml:"bases"`
}

func LoadSource(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon source: %w", err)
	}
	return ParseSource(data)
}

func ParseSource(data []byte) (*Source, error) {
	src := &Source{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(src); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse lexicon source: %w", err)
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	return src, nil
}

// Seed returns the small English lexicon compiled into the binary.
func Seed() (*Source, error) {
	return ParseSource(seedData)
}

// lookupPos folds adjective satellites into adjectives, the way lookups see
// them.
func lookupPos(pos string) string {
	if pos == "s" {
		return "a"
	}
	return pos
}

func validPos(pos string) bool {
	switch pos {
	case "n", "v", "a", "s", "r":
		return true
	}
	return false
}

// PartOfSpeech returns the synset's part of speech, falling back to the
// letter embedded in its name.
func (ss SourceSynset) PartOfSpeech() string {
	if ss.Pos != "" {
		return ss.Pos
	}
	parts := strings.Split(strings.TrimSpace(ss.Name), ".")
	if len(parts) >= 3 {
		return parts[len(parts)-2]
	}
	return ""
}

func (s *Source) Validate() error {
	seen := make(map[string]bool, len(s.Synsets))
	for i, ss := range s.Synsets {
		name := strings.TrimSpace(ss.Name)
		if name == "" {
			return fmt.Errorf("lexicon source: synset %d has no name", i)
		}
		if seen[name] {
			return fmt.Errorf("lexicon source: duplicate synset %s", name)
		}
		seen[name] = true
		if pos := ss.PartOfSpeech(); !validPos(pos) {
			return fmt.Errorf("lexicon source: synset %s has unknown part of speech %q", name, pos)
		}
		if len(ss.Lemmas) == 0 {
			return fmt.Errorf("lexicon source: synset %s has no lemmas", name)
		}
		for _, l := range ss.Lemmas {
			if strings.TrimSpace(l) == "" || strings.ContainsAny(l, " \t\n") {
				return fmt.Errorf("lexicon source: synset %s has invalid lemma %q", name, l)
			}
		}
		if len(ss.Senses) > 0 && len(ss.Senses) != len(ss.Lemmas) {
			return fmt.Errorf("lexicon source: synset %s has %d senses for %d lemmas", name, len(ss.Senses), len(ss.Lemmas))
		}
		for _, n := range ss.Senses {
			if n < 1 {
				return fmt.Errorf("lexicon source: synset %s has sense rank %d", name, n)
			}
		}
	}
	for _, ex := range s.Exceptions {
		if !validPos(ex.Pos) {
			return fmt.Errorf("lexicon source: exception %q has unknown part of speech %q", ex.Word, ex.Pos)
		}
		if strings.TrimSpace(ex.Word) == "" || len(ex.Bases) == 0 {
			return fmt.Errorf("lexicon source: exception %q needs a word and at least one base", ex.Word)
		}
	}
	return nil
}
