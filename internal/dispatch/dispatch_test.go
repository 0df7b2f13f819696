package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dyne/scramble/internal/lexicon"
	"github.com/dyne/scramble/internal/log"
	"github.com/dyne/scramble/internal/transform"
)

func newTestDispatcher(t *testing.T, jobs int) *Dispatcher {
	t.Helper()
	lex := lexicon.ForPath("")
	t.Cleanup(func() { lex.Close() })
	return New(Options{
		Defaults: transform.DefaultParams(),
		Lexicon:  lex,
		Jobs:     jobs,
		Logger:   log.Discard(),
	})
}

func TestApplyEveryBuiltin(t *testing.T) {
	d := newTestDispatcher(t, 1)
	ctx := context.Background()
	p := d.Defaults()
	tests := []struct {
		model string
		input string
		want  string
	}{
		{"caesar", "abc", "def"},
		{"rot13", "abc", "nop"},
		{"reverse", "abc def", "cba fed"},
		{"piglatin", "apple banana", "appleyay ananabay"},
		{"vigenere", "hello", "zincs"},
		{"base64", "hi", "aGk="},
		{"morse", "sos", "... --- ..."},
		{"binary", "A", "01000001"},
		{"leet", "test", "73$7"},
		{"synonym", "big kid", "large child"},
		{"emoji", "happy day", "😊 day"},
		{"seeded", "cat", "cat"},
		{"basic", "dog", "dog"},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			res, err := d.Apply(ctx, Request{Text: tt.input, Model: tt.model, Params: p})
			if err != nil {
				t.Fatal(err)
			}
			if res.Transformed != tt.want {
				t.Fatalf("got %q, want %q", res.Transformed, tt.want)
			}
			if res.Original != tt.input || res.Model != tt.model {
				t.Fatalf("result metadata: %+v", res)
			}
		})
	}
}

func TestApplyUnsupportedModel(t *testing.T) {
	d := newTestDispatcher(t, 1)
	_, err := d.Apply(context.Background(), Request{Text: "hello", Model: "enigma"})
	if !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("expected ErrUnsupportedModel, got %v", err)
	}
	var te *TransformError
	if errors.As(err, &te) {
		t.Fatal("unsupported model must not be reported as a transform failure")
	}
}

func TestApplyWrapsTransformErrors(t *testing.T) {
	d := newTestDispatcher(t, 1)
	p := d.Defaults()
	p.Keyword = ""
	_, err := d.Apply(context.Background(), Request{Text: "hello", Model: "vigenere", Params: p})
	var te *TransformError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransformError, got %v", err)
	}
	if te.Model != "vigenere" || !errors.Is(err, transform.ErrEmptyKey) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyRecoversPanics(t *testing.T) {
	err := transform.Register("test-panic", "panics", func(transform.Env) (transform.Transformer, error) {
		return panicky{}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	defer transform.Unregister("test-panic")

	d := newTestDispatcher(t, 1)
	_, err = d.Apply(context.Background(), Request{Text: "x", Model: "test-panic"})
	var te *TransformError
	if !errors.As(err, &te) || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected recovered TransformError, got %v", err)
	}
}

type panicky struct{}

func (panicky) Name() string { return "test-panic" }

func (panicky) Transform(context.Context, string, transform.Params) (string, error) {
	panic("boom")
}

func TestSentinelsAreNotFailures(t *testing.T) {
	d := newTestDispatcher(t, 1)
	ctx := context.Background()
	res, err := d.Reverse(ctx, Request{Text: "not base64!!", Model: "base64"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Transformed != transform.InvalidBase64 {
		t.Fatalf("got %q", res.Transformed)
	}
	_, err = d.Reverse(ctx, Request{Text: "not binary", Model: "binary", Params: transform.Params{Strict: true}})
	if !errors.Is(err, transform.ErrInvalidBinary) {
		t.Fatalf("strict decode: %v", err)
	}
}

func TestReverse(t *testing.T) {
	d := newTestDispatcher(t, 1)
	ctx := context.Background()
	p := d.Defaults()
	for _, model := range []string{"caesar", "rot13", "vigenere", "base64", "morse", "binary"} {
		fwd, err := d.Apply(ctx, Request{Text: "ATTACK AT DAWN", Model: model, Params: p})
		if err != nil {
			t.Fatal(err)
		}
		back, err := d.Reverse(ctx, Request{Text: fwd.Transformed, Model: model, Params: p})
		if err != nil {
			t.Fatal(err)
		}
		if back.Transformed != "ATTACK AT DAWN" {
			t.Fatalf("%s: got %q", model, back.Transformed)
		}
	}
	_, err := d.Reverse(ctx, Request{Text: "abc", Model: "leet"})
	if !errors.Is(err, ErrNotReversible) {
		t.Fatalf("expected ErrNotReversible, got %v", err)
	}
}

func TestEncryptDecrypt(t *testing.T) {
	enc := Encrypt("Hello, World!", 3)
	if enc != "Khoor, Zruog!" {
		t.Fatalf("encrypt: %q", enc)
	}
	if dec := Decrypt(enc, 3); dec != "Hello, World!" {
		t.Fatalf("decrypt: %q", dec)
	}
}

func TestBatchPreservesOrder(t *testing.T) {
	d := newTestDispatcher(t, 4)
	texts := make([]string, 100)
	for i := range texts {
		texts[i] = fmt.Sprintf("text number %d", i)
	}
	pairs, err := d.Batch(context.Background(), BatchRequest{Texts: texts, Model: "rot13"})
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != len(texts) {
		t.Fatalf("got %d pairs", len(pairs))
	}
	for i, p := range pairs {
		if p.Original != texts[i] || p.Transformed != transform.ROT13(texts[i]) {
			t.Fatalf("pair %d out of order: %+v", i, p)
		}
	}
}

func TestBatchEmptyAndUnsupported(t *testing.T) {
	d := newTestDispatcher(t, 2)
	pairs, err := d.Batch(context.Background(), BatchRequest{Model: "caesar"})
	if err != nil || len(pairs) != 0 {
		t.Fatalf("empty batch: %v %v", pairs, err)
	}
	if _, err := d.Batch(context.Background(), BatchRequest{Texts: []string{"a"}, Model: "nope"}); !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("expected ErrUnsupportedModel, got %v", err)
	}
}

func TestBatchReportsLowestFailure(t *testing.T) {
	var calls atomic.Int32
	err := transform.Register("test-fail-odd", "fails on odd", func(transform.Env) (transform.Transformer, error) {
		return failOdd{calls: &calls}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	defer transform.Unregister("test-fail-odd")

	d := newTestDispatcher(t, 1)
	_, err = d.Batch(context.Background(), BatchRequest{Texts: []string{"0", "1", "2", "3", "5"}, Model: "test-fail-odd"})
	var te *TransformError
	if !errors.As(err, &te) || !strings.Contains(err.Error(), "odd 1") {
		t.Fatalf("expected failure on item 1, got %v", err)
	}
}

type failOdd struct{ calls *atomic.Int32 }

func (failOdd) Name() string { return "test-fail-odd" }

func (f failOdd) Transform(_ context.Context, text string, _ transform.Params) (string, error) {
	f.calls.Add(1)
	if strings.ContainsAny(text, "13579") {
		return "", fmt.Errorf("odd %s", text)
	}
	return text, nil
}

func TestBatchCanceled(t *testing.T) {
	d := newTestDispatcher(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Batch(ctx, BatchRequest{Texts: []string{"a", "b"}, Model: "rot13"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFile(t *testing.T) {
	d := newTestDispatcher(t, 1)
	ctx := context.Background()
	res, err := d.File(ctx, "note.txt", []byte("hello"), "caesar", d.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	if res.Filename != "note.txt" || res.Model != "caesar" || res.Transformed != "khoor" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, err := d.File(ctx, "note.pdf", []byte("hello"), "caesar", d.Defaults()); !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("expected ErrUnsupportedFile, got %v", err)
	}
	if _, err := d.File(ctx, "bad.txt", []byte{0xff, 0xfe, 'a'}, "caesar", d.Defaults()); !errors.Is(err, ErrNotUTF8) {
		t.Fatalf("expected ErrNotUTF8, got %v", err)
	}
	if _, err := d.File(ctx, "ok.txt", []byte("x"), "nope", d.Defaults()); !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("expected ErrUnsupportedModel, got %v", err)
	}
}
