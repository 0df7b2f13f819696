package transform

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sentinels returned by the lenient decoders.
const (
	InvalidBase64 = "[Invalid base64 input]"
	InvalidBinary = "[Invalid binary input]"
)

func Base64Encode(text string) string {
	return base64.StdEncoding.EncodeToString([]byte(text))
}

// DecodeBase64 decodes standard Base64 and requires the payload to be UTF-8.
// Characters outside the Base64 alphabet, whitespace included, are dropped
// before decoding; padding must still be correct.
func DecodeBase64(encoded string) (string, error) {
	compact := strings.Map(func(r rune) rune {
		if isBase64Char(r) {
			return r
		}
		return -1
	}, encoded)
	data, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: payload is not UTF-8", ErrInvalidBase64)
	}
	return string(data), nil
}

func isBase64Char(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	}
	return r == '+' || r == '/' || r == '='
}

// Base64Decode is DecodeBase64 returning InvalidBase64 on failure.
func Base64Decode(encoded string) string {
	out, err := DecodeBase64(encoded)
	if err != nil {
		return InvalidBase64
	}
	return out
}

var morseTable = map[rune]string{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..",
	'E': ".", 'F': "..-.", 'G': "--.", 'H': "....",
	'I': "..", 'J': ".---", 'K': "-.-", 'L': ".-..",
	'M': "--", 'N': "-.", 'O': "---", 'P': ".--.",
	'Q': "--.-", 'R': ".-.", 'S': "...", 'T': "-",
	'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-",
	'Y': "-.--", 'Z': "--..",
	'0': "-----", '1': ".----", '2': "..---", '3': "...--",
	'4': "....-", '5': ".....", '6': "-....", '7': "--...",
	'8': "---..", '9': "----.",
	' ': "/", ',': "--..--", '.': ".-.-.-", '?': "..--..",
}

var morseReverse = func() map[string]rune {
	m := make(map[string]rune, len(morseTable))
	for r, code := range morseTable {
		m[code] = r
	}
	return m
}()

// MorseEncode emits one token per input rune. Runes without a Morse code
// produce an empty token, so they show up as a doubled separator.
func MorseEncode(text string) string {
	tokens := make([]string, 0, len(text))
	for _, r := range text {
		tokens = append(tokens, morseTable[unicode.ToUpper(r)])
	}
	return strings.Join(tokens, " ")
}

func MorseDecode(code string) string {
	var b strings.Builder
	for _, tok := range strings.Split(strings.TrimSpace(code), " ") {
		if r, ok := morseReverse[tok]; ok {
			b.WriteRune(r)
		}
	}
	return strings.ReplaceAll(b.String(), "/", " ")
}

// BinaryEncode writes every rune's code point in base 2, padded to at least
// eight digits. Code points above 255 simply take more digits.
func BinaryEncode(text string) string {
	tokens := make([]string, 0, len(text))
	for _, r := range text {
		tokens = append(tokens, fmt.Sprintf("%08b", r))
	}
	return strings.Join(tokens, " ")
}

// DecodeBinary reads whitespace-separated base-2 code points. A token may
// carry a leading '+', a 0b prefix and single underscores between digits.
func DecodeBinary(bits string) (string, error) {
	var b strings.Builder
	for _, tok := range strings.Fields(bits) {
		v, err := parseBinaryToken(tok)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidBinary, tok)
		}
		r := rune(v)
		if !utf8.ValidRune(r) {
			return "", fmt.Errorf("%w: code point %d out of range", ErrInvalidBinary, v)
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

func parseBinaryToken(tok string) (uint64, error) {
	digits := strings.TrimPrefix(tok, "+")
	if len(digits) >= 2 && digits[0] == '0' && (digits[1] == 'b' || digits[1] == 'B') {
		digits = digits[2:]
	} else if strings.HasPrefix(digits, "_") {
		return 0, strconv.ErrSyntax
	}
	// base 0 applies literal underscore rules to the 0b form
	return strconv.ParseUint("0b"+digits, 0, 32)
}

// BinaryDecode is DecodeBinary returning InvalidBinary on failure.
func BinaryDecode(bits string) string {
	out, err := DecodeBinary(bits)
	if err != nil {
		return InvalidBinary
	}
	return out
}
