package transform

import (
	"strings"
)

// Caesar rotates ASCII letters by shift positions within their case's
// alphabet. Negative shifts rotate backwards. Other runes are kept.
func Caesar(text string, shift int) string {
	return strings.Map(func(r rune) rune {
		return rotate(r, shift)
	}, text)
}

func CaesarDecipher(text string, shift int) string {
	return Caesar(text, -shift)
}

func ROT13(text string) string {
	return Caesar(text, 13)
}

// Vigenere shifts each ASCII letter of text by the next key rune's distance
// from 'a'. Only letters advance the key. The key is lower-cased first.
func Vigenere(text, key string, decrypt bool) (string, error) {
	k := []rune(strings.ToLower(key))
	var b strings.Builder
	b.Grow(len(text))
	i := 0
	for _, r := range text {
		if !isLetter(r) {
			b.WriteRune(r)
			continue
		}
		if len(k) == 0 {
			return "", ErrEmptyKey
		}
		shift := int(k[i%len(k)] - 'a')
		i++
		if decrypt {
			shift = -shift
		}
		b.WriteRune(rotate(r, shift))
	}
	return b.String(), nil
}

func VigenereDecipher(text, key string) (string, error) {
	return Vigenere(text, key, true)
}

func rotate(r rune, shift int) rune {
	var base rune
	switch {
	case r >= 'a' && r <= 'z':
		base = 'a'
	case r >= 'A' && r <= 'Z':
		base = 'A'
	default:
		return r
	}
	n := (int(r-base) + shift%26) % 26
	if n < 0 {
		n += 26
	}
	return base + rune(n)
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
