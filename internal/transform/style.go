package transform

import (
	"strings"
	"unicode"
)

// ReverseWords reverses every whitespace-delimited word and re-joins the
// words with single spaces.
func ReverseWords(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		runes := []rune(w)
		for a, b := 0, len(runes)-1; a < b; a, b = a+1, b-1 {
			runes[a], runes[b] = runes[b], runes[a]
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func PigLatin(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		words[i] = pigLatinWord(w)
	}
	return strings.Join(words, " ")
}

func pigLatinWord(word string) string {
	runes := []rune(word)
	if isVowel(runes[0]) {
		return word + "yay"
	}
	for i, r := range runes {
		if isVowel(r) {
			return string(runes[i:]) + string(runes[:i]) + "ay"
		}
	}
	return word + "ay"
}

func isVowel(r rune) bool {
	return strings.ContainsRune("aeiou", unicode.ToLower(r))
}

var leetTable = map[rune]rune{
	'a': '4',
	'e': '3',
	'i': '1',
	'o': '0',
	's': '$',
	't': '7',
}

func Leet(text string) string {
	return strings.Map(func(r rune) rune {
		if sub, ok := leetTable[unicode.ToLower(r)]; ok {
			return sub
		}
		return r
	}, text)
}

var emojiTable = map[string]string{
	"happy": "😊",
	"sad":   "😢",
	"love":  "❤️",
	"fire":  "🔥",
	"star":  "⭐",
	"money": "💰",
	"cool":  "😎",
	"heart": "💖",
}

func EmojiReplace(text string) string {
	return replaceEmoji(text, emojiTable)
}

func replaceEmoji(text string, table map[string]string) string {
	words := strings.Fields(text)
	for i, w := range words {
		if e, ok := table[strings.ToLower(w)]; ok {
			words[i] = e
		}
	}
	return strings.Join(words, " ")
}

// mergeEmoji returns a new table holding the built-in entries overlaid with
// extra. Keys are lower-cased to match the case-insensitive lookup.
func mergeEmoji(extra map[string]string) map[string]string {
	if len(extra) == 0 {
		return emojiTable
	}
	out := make(map[string]string, len(emojiTable)+len(extra))
	for k, v := range emojiTable {
		out[k] = v
	}
	for k, v := range extra {
		out[strings.ToLower(k)] = v
	}
	return out
}
