package lexicon

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// wordnetFiles maps each part of speech to the suffix of its dict files, in
// the order synsets are imported.
var wordnetFiles = []struct {
	pos  string
	name string
}{
	{"n", "noun"},
	{"v", "verb"},
	{"a", "adj"},
	{"r", "adv"},
}

// LoadWordNet imports a WordNet 3.0 dict directory: the index.* and data.*
// files of every part of speech present and the optional *.exc exception
// lists. Synsets are named the way NLTK names them, so the synset listed
// second for "car" in index.noun becomes car.n.02.
func LoadWordNet(dir string) (*Source, error) {
	src := &Source{}
	found := 0
	for _, f := range wordnetFiles {
		dataPath := filepath.Join(dir, "data."+f.name)
		if _, err := os.Stat(dataPath); errors.Is(err, os.ErrNotExist) {
			continue
		}
		ranks, err := readWordNetIndex(filepath.Join(dir, "index."+f.name))
		if err != nil {
			return nil, err
		}
		synsets, err := readWordNetData(dataPath, ranks)
		if err != nil {
			return nil, err
		}
		src.Synsets = append(src.Synsets, synsets...)

		exc, err := readWordNetExceptions(filepath.Join(dir, f.name+".exc"), f.pos)
		if err != nil {
			return nil, err
		}
		src.Exceptions = append(src.Exceptions, exc...)
		found++
	}
	if found == 0 {
		return nil, fmt.Errorf("wordnet %s: no data files", dir)
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	return src, nil
}

// senseRanks holds, per lemma, its synset offsets in sense order.
type senseRanks map[string][]string

func (r senseRanks) rank(lemma, offset string) int {
	for i, o := range r[strings.ToLower(lemma)] {
		if o == offset {
			return i + 1
		}
	}
	return 0
}

func scanWordNet(path string, fn func(lineNo int, fields []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("wordnet: %w", err)
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		// the license header lines are indented
		if strings.HasPrefix(line, "  ") || strings.TrimSpace(line) == "" {
			continue
		}
		if err := fn(lineNo, strings.Fields(line)); err != nil {
			return fmt.Errorf("wordnet %s:%d: %w", filepath.Base(path), lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("wordnet %s: %w", filepath.Base(path), err)
	}
	return nil
}

// readWordNetIndex reads lines of the form
// "lemma pos synset_cnt p_cnt [ptr...] sense_cnt tagsense_cnt offset...".
func readWordNetIndex(path string) (senseRanks, error) {
	ranks := senseRanks{}
	err := scanWordNet(path, func(_ int, f []string) error {
		if len(f) < 4 {
			return fmt.Errorf("short index line")
		}
		synsetCnt, err := strconv.Atoi(f[2])
		if err != nil {
			return fmt.Errorf("synset count: %w", err)
		}
		ptrCnt, err := strconv.Atoi(f[3])
		if err != nil {
			return fmt.Errorf("pointer count: %w", err)
		}
		start := 4 + ptrCnt + 2
		if synsetCnt < 1 || len(f) != start+synsetCnt {
			return fmt.Errorf("index entry %s: want %d offsets", f[0], synsetCnt)
		}
		ranks[f[0]] = f[start:]
		return nil
	})
	return ranks, err
}

// readWordNetData reads lines of the form
// "offset lex_filenum ss_type w_cnt word lex_id ... p_cnt ... | gloss".
// Only the words are kept.
func readWordNetData(path string, ranks senseRanks) ([]SourceSynset, error) {
	var out []SourceSynset
	err := scanWordNet(path, func(_ int, f []string) error {
		if len(f) < 4 {
			return fmt.Errorf("short data line")
		}
		offset, ssType := f[0], f[2]
		if !validPos(ssType) {
			return fmt.Errorf("synset %s: unknown type %q", offset, ssType)
		}
		wordCnt, err := strconv.ParseInt(f[3], 16, 0)
		if err != nil {
			return fmt.Errorf("synset %s: word count: %w", offset, err)
		}
		if wordCnt < 1 || len(f) < 4+2*int(wordCnt) {
			return fmt.Errorf("synset %s: want %d words", offset, wordCnt)
		}
		ss := SourceSynset{Pos: ssType}
		for i := 0; i < int(wordCnt); i++ {
			word := stripAdjMarker(f[4+2*i])
			rank := ranks.rank(word, offset)
			if rank == 0 {
				// not indexed under this word: rank it after every indexed sense
				rank = len(ranks[strings.ToLower(word)]) + 1
			}
			ss.Lemmas = append(ss.Lemmas, word)
			ss.Senses = append(ss.Senses, rank)
		}
		ss.Name = fmt.Sprintf("%s.%s.%02d", strings.ToLower(ss.Lemmas[0]), ssType, ss.Senses[0])
		out = append(out, ss)
		return nil
	})
	return out, err
}

// stripAdjMarker drops the syntactic marker of adjectives, as in "former(a)".
func stripAdjMarker(word string) string {
	for _, m := range []string{"(a)", "(p)", "(ip)"} {
		if strings.HasSuffix(word, m) {
			return strings.TrimSuffix(word, m)
		}
	}
	return word
}

// readWordNetExceptions reads "inflected base..." lines. A missing file
// means the part of speech has no irregular forms.
func readWordNetExceptions(path, pos string) ([]SourceException, error) {
	var out []SourceException
	err := scanWordNet(path, func(_ int, f []string) error {
		if len(f) < 2 {
			return fmt.Errorf("exception %q has no base", strings.Join(f, " "))
		}
		out = append(out, SourceException{Pos: pos, Word: f[0], Bases: f[1:]})
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return out, err
}
