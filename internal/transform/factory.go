package transform

import (
	"context"
	"fmt"
)

// Build constructs the transformer registered under model. Names are matched
// exactly.
func Build(model string, env Env) (Transformer, error) {
	registryMu.RLock()
	e, ok := registry[model]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, model)
	}
	tr, err := e.factory(env)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", model, err)
	}
	return tr, nil
}

func init() {
	builtins := []struct {
		name        string
		description string
		factory     Factory
	}{
		{"basic", "Shuffle word interiors with a fresh random generator", fixed(newBasic)},
		{"seeded", "Shuffle word interiors reproducibly from the seed", fixed(newSeeded)},
		{"caesar", "Caesar cipher with the given shift", fixed(newCaesar)},
		{"rot13", "Caesar cipher with a fixed shift of 13", fixed(newROT13)},
		{"reverse", "Reverse the characters of every word", fixed(newReverse)},
		{"piglatin", "Translate words to Pig Latin", fixed(newPigLatin)},
		{"vigenere", "Vigenère cipher keyed by the keyword", fixed(newVigenere)},
		{"base64", "Standard Base64 over UTF-8 bytes", fixed(newBase64)},
		{"morse", "International Morse code", fixed(newMorse)},
		{"binary", "Code points as space-separated binary", fixed(newBinary)},
		{"leet", "Leetspeak character substitution", fixed(newLeet)},
		{"synonym", "Replace words with their first synonym", newSynonym},
		{"emoji", "Replace known words with emoji", newEmoji},
	}
	for _, b := range builtins {
		if err := Register(b.name, b.description, b.factory); err != nil {
			panic(err)
		}
	}
}

func fixed(ctor func() *model) Factory {
	return func(Env) (Transformer, error) {
		return ctor(), nil
	}
}

func newBasic() *model { return newModel("basic", pure(ScrambleBasic)) }

func newSeeded() *model {
	return newModel("seeded", func(_ context.Context, text string, p Params) (string, error) {
		return ScrambleSeeded(text, p.Seed), nil
	})
}

func newCaesar() *model {
	return pair(
		newModel("caesar", func(_ context.Context, text string, p Params) (string, error) {
			return Caesar(text, p.Shift), nil
		}),
		newModel("caesar_decipher", func(_ context.Context, text string, p Params) (string, error) {
			return CaesarDecipher(text, p.Shift), nil
		}),
	)
}

func newROT13() *model {
	m := newModel("rot13", pure(ROT13))
	m.inverse = m
	return m
}

func newReverse() *model  { return newModel("reverse", pure(ReverseWords)) }
func newPigLatin() *model { return newModel("piglatin", pure(PigLatin)) }
func newLeet() *model     { return newModel("leet", pure(Leet)) }

func newVigenere() *model {
	return pair(
		newModel("vigenere", func(_ context.Context, text string, p Params) (string, error) {
			return Vigenere(text, p.Keyword, false)
		}),
		newModel("vigenere_decipher", func(_ context.Context, text string, p Params) (string, error) {
			return Vigenere(text, p.Keyword, true)
		}),
	)
}

func newBase64() *model {
	return pair(
		newModel("base64", pure(Base64Encode)),
		newModel("base64_decode", func(_ context.Context, text string, p Params) (string, error) {
			if p.Strict {
				return DecodeBase64(text)
			}
			return Base64Decode(text), nil
		}),
	)
}

func newMorse() *model {
	return pair(newModel("morse", pure(MorseEncode)), newModel("morse_decode", pure(MorseDecode)))
}

func newBinary() *model {
	return pair(
		newModel("binary", pure(BinaryEncode)),
		newModel("binary_decode", func(_ context.Context, text string, p Params) (string, error) {
			if p.Strict {
				return DecodeBinary(text)
			}
			return BinaryDecode(text), nil
		}),
	)
}

// newSynonym captures the lexicon handle; the lexicon itself is only opened
// on the first lookup.
func newSynonym(env Env) (Transformer, error) {
	lex := env.Lexicon
	return newModel("synonym", func(ctx context.Context, text string, _ Params) (string, error) {
		return SynonymReplace(ctx, text, lex)
	}), nil
}

func newEmoji(env Env) (Transformer, error) {
	table := mergeEmoji(env.Emoji)
	return newModel("emoji", pure(func(text string) string {
		return replaceEmoji(text, table)
	})), nil
}
