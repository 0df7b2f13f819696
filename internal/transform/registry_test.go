package transform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

var builtinModels = []string{
	"base64", "basic", "binary", "caesar", "emoji", "leet", "morse",
	"piglatin", "reverse", "rot13", "seeded", "synonym", "vigenere",
}

func TestBuiltinModelsRegistered(t *testing.T) {
	models := Models()
	var names []string
	for _, m := range models {
		names = append(names, m.Name)
	}
	if strings.Join(names, ",") != strings.Join(builtinModels, ",") {
		t.Fatalf("models: %v", names)
	}
	reversible := map[string]bool{}
	for _, m := range models {
		if m.Description == "" {
			t.Errorf("%s has no description", m.Name)
		}
		reversible[m.Name] = m.Reversible
	}
	for _, name := range []string{"caesar", "rot13", "vigenere", "base64", "morse", "binary"} {
		if !reversible[name] {
			t.Errorf("%s should be reversible", name)
		}
	}
	for _, name := range []string{"basic", "seeded", "reverse", "piglatin", "leet", "synonym", "emoji"} {
		if reversible[name] {
			t.Errorf("%s should not be reversible", name)
		}
	}
}

func TestBuildUnsupported(t *testing.T) {
	for _, name := range []string{"nope", "", "Caesar", "base64_decode"} {
		if _, err := Build(name, Env{}); !errors.Is(err, ErrUnsupportedModel) {
			t.Errorf("Build(%q): expected ErrUnsupportedModel, got %v", name, err)
		}
		if Supported(name) {
			t.Errorf("Supported(%q) = true", name)
		}
	}
}

func TestRegisterDuplicate(t *testing.T) {
	err := Register("caesar", "again", func(Env) (Transformer, error) { return newCaesar(), nil })
	if err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if err := Register("", "x", func(Env) (Transformer, error) { return nil, nil }); err == nil {
		t.Fatal("expected empty name error")
	}
	if err := Register("nil-factory", "x", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
}

func TestReversibleModelsRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := Params{Shift: 7, Seed: 1, Keyword: "lemon"}
	text := "HELLO WORLD, ARE YOU THERE?"
	for _, name := range []string{"caesar", "rot13", "vigenere", "base64", "morse", "binary"} {
		t.Run(name, func(t *testing.T) {
			tr, err := Build(name, Env{})
			if err != nil {
				t.Fatal(err)
			}
			out, err := tr.Transform(ctx, text, p)
			if err != nil {
				t.Fatal(err)
			}
			inv, ok := tr.(Reversible).Reverse()
			if !ok {
				t.Fatal("no inverse")
			}
			back, err := inv.Transform(ctx, out, p)
			if err != nil {
				t.Fatal(err)
			}
			if back != text {
				t.Fatalf("round trip gave %q", back)
			}
			if again, ok := inv.(Reversible).Reverse(); !ok || again.Name() != name {
				t.Fatalf("inverse of inverse should be %s", name)
			}
		})
	}
}

func TestStrictDecoders(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		model    string
		input    string
		sentinel string
		err      error
	}{
		{"base64", "not base64!!", InvalidBase64, ErrInvalidBase64},
		{"binary", "not binary", InvalidBinary, ErrInvalidBinary},
	}
	for _, tc := range cases {
		tr, err := Build(tc.model, Env{})
		if err != nil {
			t.Fatal(err)
		}
		dec, _ := tr.(Reversible).Reverse()
		got, err := dec.Transform(ctx, tc.input, Params{})
		if err != nil || got != tc.sentinel {
			t.Fatalf("%s lenient: %q, %v", tc.model, got, err)
		}
		if _, err := dec.Transform(ctx, tc.input, Params{Strict: true}); !errors.Is(err, tc.err) {
			t.Fatalf("%s strict: expected %v, got %v", tc.model, tc.err, err)
		}
	}
}

func TestBuildUsesEnv(t *testing.T) {
	ctx := context.Background()
	tr, err := Build("emoji", Env{Emoji: map[string]string{"sun": "☀️"}})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := tr.Transform(ctx, "sun and fire", DefaultParams())
	if got != "☀️ and 🔥" {
		t.Fatalf("emoji: %q", got)
	}

	tr, err = Build("synonym", Env{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Transform(ctx, "big", DefaultParams()); !errors.Is(err, ErrNoLexicon) {
		t.Fatalf("expected ErrNoLexicon, got %v", err)
	}
}

func TestPluginTransformer(t *testing.T) {
	var seen map[string]any
	err := registerPlugin("/plugins/upper.so", "upper", func(text string, params map[string]any) (string, error) {
		seen = params
		return strings.ToUpper(text), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	defer Unregister("upper")

	tr, err := Build("upper", Env{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := tr.Transform(context.Background(), "shout", Params{Shift: 4, Seed: 9, Keyword: "k"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "SHOUT" {
		t.Fatalf("got %q", got)
	}
	if fmt.Sprintf("%v %v %v %v", seen["shift"], seen["seed"], seen["keyword"], seen["strict"]) != "4 9 k false" {
		t.Fatalf("params: %v", seen)
	}
	if err := registerPlugin("/plugins/dup.so", "upper", nil); err == nil {
		t.Fatal("plugin must not replace an existing model")
	}
}
