package transform

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"strings"
	"time"
)

// ScrambleBasic shuffles the interior of every word longer than three runes
// using a generator private to this call. Output is not reproducible.
func ScrambleBasic(text string) string {
	return scrambleWith(text, unseededRand())
}

// ScrambleSeeded is ScrambleBasic with a generator seeded from seed, so the
// same (text, seed) pair always yields the same output.
func ScrambleSeeded(text string, seed int64) string {
	return scrambleWith(text, rand.New(rand.NewSource(seed)))
}

func scrambleWith(text string, rng *rand.Rand) string {
	words := strings.Fields(text)
	for i, w := range words {
		runes := []rune(w)
		if len(runes) <= 3 {
			continue
		}
		middle := runes[1 : len(runes)-1]
		rng.Shuffle(len(middle), func(a, b int) {
			middle[a], middle[b] = middle[b], middle[a]
		})
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func unseededRand() *rand.Rand {
	var b [8]byte
	seed := time.Now().UnixNano()
	if _, err := crand.Read(b[:]); err == nil {
		seed = int64(binary.BigEndian.Uint64(b[:]))
	}
	return rand.New(rand.NewSource(seed))
}
