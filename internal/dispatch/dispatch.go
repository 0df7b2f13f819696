// Package dispatch resolves a model name to a transformer, runs it, and
// turns whatever goes wrong inside into a TransformError.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dyne/scramble/internal/log"
	"github.com/dyne/scramble/internal/transform"
)

var (
	ErrUnsupportedModel = transform.ErrUnsupportedModel
	ErrNotReversible    = errors.New("model has no inverse")
	ErrUnsupportedFile  = errors.New("only .txt files are supported")
	ErrNotUTF8          = errors.New("file must be UTF-8 encoded text")
)

// TransformError reports a failure raised by a transformer itself.
type TransformError struct {
	Model string
	Err   error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %s: %v", e.Model, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

type Options struct {
	Defaults transform.Params
	Lexicon  transform.Lexicon
	Emoji    map[string]string
	Jobs     int
	Logger   *log.Logger
}

type Request struct {
	Text   string
	Model  string
	Params transform.Params
}

type Result struct {
	Model       string
	Original    string
	Transformed string
}

type BatchRequest struct {
	Texts  []string
	Model  string
	Params transform.Params
}

type Pair struct {
	Original    string
	Transformed string
}

type FileResult struct {
	Filename    string
	Model       string
	Transformed string
}

type Dispatcher struct {
	opts   Options
	env    transform.Env
	logger *log.Logger

	mu    sync.Mutex
	built map[string]transform.Transformer
}

func New(opts Options) *Dispatcher {
	if opts.Jobs <= 0 {
		opts.Jobs = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	return &Dispatcher{
		opts:   opts,
		env:    transform.Env{Lexicon: opts.Lexicon, Emoji: opts.Emoji},
		logger: logger,
		built:  map[string]transform.Transformer{},
	}
}

// Defaults returns the parameters used for fields a caller leaves out.
func (d *Dispatcher) Defaults() transform.Params {
	return d.opts.Defaults
}

func (d *Dispatcher) transformer(model string) (transform.Transformer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if tr, ok := d.built[model]; ok {
		return tr, nil
	}
	tr, err := transform.Build(model, d.env)
	if err != nil {
		return nil, err
	}
	d.built[model] = tr
	return tr, nil
}

func (d *Dispatcher) Apply(ctx context.Context, req Request) (Result, error) {
	tr, err := d.transformer(req.Model)
	if err != nil {
		return Result{}, err
	}
	out, err := d.run(ctx, req.Model, tr, req.Text, req.Params)
	if err != nil {
		return Result{}, err
	}
	return Result{Model: req.Model, Original: req.Text, Transformed: out}, nil
}

// Reverse runs the inverse of req.Model, e.g. base64 decoding for "base64".
func (d *Dispatcher) Reverse(ctx context.Context, req Request) (Result, error) {
	tr, err := d.transformer(req.Model)
	if err != nil {
		return Result{}, err
	}
	var inv transform.Transformer
	if rev, ok := tr.(transform.Reversible); ok {
		inv, _ = rev.Reverse()
	}
	if inv == nil {
		return Result{}, &TransformError{Model: req.Model, Err: ErrNotReversible}
	}
	out, err := d.run(ctx, req.Model, inv, req.Text, req.Params)
	if err != nil {
		return Result{}, err
	}
	return Result{Model: req.Model, Original: req.Text, Transformed: out}, nil
}

func (d *Dispatcher) run(ctx context.Context, model string, tr transform.Transformer, text string, p transform.Params) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TransformError{Model: model, Err: fmt.Errorf("panic: %v", r)}
			d.logger.Warnf("transform %s panicked: %v", tr.Name(), r)
		}
	}()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, err = tr.Transform(ctx, text, p)
	if err != nil {
		d.logger.Debugf("transform %s failed: %v", tr.Name(), err)
		return "", &TransformError{Model: model, Err: err}
	}
	d.logger.Debugf("transform %s: %d -> %d bytes", tr.Name(), len(text), len(out))
	return out, nil
}

func Encrypt(text string, shift int) string {
	return transform.Caesar(text, shift)
}

func Decrypt(text string, shift int) string {
	return transform.CaesarDecipher(text, shift)
}

// Batch applies one model to every text on up to Jobs workers. Results keep
// the input order. Feeding stops at the first failure; the failure with the
// lowest index among the texts already started is returned.
func (d *Dispatcher) Batch(ctx context.Context, req BatchRequest) ([]Pair, error) {
	tr, err := d.transformer(req.Model)
	if err != nil {
		return nil, err
	}
	pairs := make([]Pair, len(req.Texts))
	if len(req.Texts) == 0 {
		return pairs, nil
	}
	jobs := d.opts.Jobs
	if jobs > len(req.Texts) {
		jobs = len(req.Texts)
	}

	type job struct {
		index int
		text  string
	}
	type result struct {
		index int
		out   string
		err   error
	}
	jobsCh := make(chan job, jobs*2)
	resultsCh := make(chan result, jobs*2)
	for i := 0; i < jobs; i++ {
		go func() {
			for j := range jobsCh {
				out, err := d.run(ctx, req.Model, tr, j.text, req.Params)
				resultsCh <- result{index: j.index, out: out, err: err}
			}
		}()
	}

	var firstErr error
	errIndex := -1
	collect := func(r result) {
		if r.err != nil {
			if firstErr == nil || r.index < errIndex {
				firstErr, errIndex = r.err, r.index
			}
			return
		}
		pairs[r.index] = Pair{Original: req.Texts[r.index], Transformed: r.out}
	}
	inflight := 0
	for i, text := range req.Texts {
		if firstErr != nil || ctx.Err() != nil {
			break
		}
		jobsCh <- job{index: i, text: text}
		inflight++
		for inflight >= jobs*2 {
			collect(<-resultsCh)
			inflight--
		}
	}
	close(jobsCh)
	for ; inflight > 0; inflight-- {
		collect(<-resultsCh)
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.logger.Debugf("batch %s: %d texts on %d workers", req.Model, len(req.Texts), jobs)
	return pairs, nil
}

// File applies model to the contents of an uploaded plain-text file.
func (d *Dispatcher) File(ctx context.Context, filename string, data []byte, model string, p transform.Params) (FileResult, error) {
	if !strings.HasSuffix(filename, ".txt") {
		return FileResult{}, ErrUnsupportedFile
	}
	if !utf8.Valid(data) {
		return FileResult{}, ErrNotUTF8
	}
	res, err := d.Apply(ctx, Request{Text: string(data), Model: model, Params: p})
	if err != nil {
		return FileResult{}, err
	}
	return FileResult{Filename: filename, Model: model, Transformed: res.Transformed}, nil
}
