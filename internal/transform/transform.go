// Package transform holds the text transformations exposed by scramble and
// the registry the dispatcher resolves model names against.
//
// Every transformation is a pure function of its input text and Params.
// Lookup tables are built once at package initialisation and never mutated.
package transform

import (
	"context"
	"errors"
)

var (
	ErrUnsupportedModel = errors.New("unsupported scramble model")
	ErrEmptyKey         = errors.New("vigenere key must not be empty")
	ErrInvalidBase64    = errors.New("invalid base64 input")
	ErrInvalidBinary    = errors.New("invalid binary input")
	ErrNoLexicon        = errors.New("no lexical database configured")
)

// Params carries the optional knobs a model may read. Models ignore the
// fields they have no use for.
type Params struct {
	Shift   int
	Seed    int64
	Keyword string
	// Strict makes decoders return typed errors instead of sentinel strings.
	Strict bool
}

func DefaultParams() Params {
	return Params{Shift: 3, Seed: 42, Keyword: "secret"}
}

type Transformer interface {
	Name() string
	Transform(ctx context.Context, text string, p Params) (string, error)
}

// Reversible is implemented by transformers that have an inverse.
type Reversible interface {
	Reverse() (Transformer, bool)
}

type Func func(ctx context.Context, text string, p Params) (string, error)

type model struct {
	name    string
	fn      Func
	inverse Transformer
}

func (m *model) Name() string { return m.name }

func (m *model) Transform(ctx context.Context, text string, p Params) (string, error) {
	return m.fn(ctx, text, p)
}

func (m *model) Reverse() (Transformer, bool) {
	if m.inverse == nil {
		return nil, false
	}
	return m.inverse, true
}

func newModel(name string, fn Func) *model {
	return &model{name: name, fn: fn}
}

// pair links two models as each other's inverse.
func pair(forward, backward *model) *model {
	forward.inverse = backward
	backward.inverse = forward
	return forward
}

// pure adapts an infallible string function to a Func.
func pure(fn func(string) string) Func {
	return func(_ context.Context, text string, _ Params) (string, error) {
		return fn(text), nil
	}
}
