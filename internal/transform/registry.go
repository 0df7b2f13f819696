package transform

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Env is what a factory may draw on when constructing a transformer.
type Env struct {
	Lexicon Lexicon
	Emoji   map[string]string
}

type Factory func(env Env) (Transformer, error)

type ModelInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Reversible  bool   `json:"reversible"`
}

type entry struct {
	description string
	factory     Factory
}

var (
	registry   = map[string]entry{}
	registryMu sync.RWMutex
)

func Register(name, description string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("model name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("model %s: nil factory", name)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		return fmt.Errorf("model %s is already registered", name)
	}
	registry[name] = entry{description: description, factory: factory}
	return nil
}

// Unregister removes a model. Only tests need it.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, name)
}

func Supported(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// Models lists every registered model sorted by name.
func Models() []ModelInfo {
	registryMu.RLock()
	names := make([]string, 0, len(registry))
	entries := make(map[string]entry, len(registry))
	for name, e := range registry {
		names = append(names, name)
		entries[name] = e
	}
	registryMu.RUnlock()

	sort.Strings(names)
	out := make([]ModelInfo, 0, len(names))
	for _, name := range names {
		e := entries[name]
		info := ModelInfo{Name: name, Description: e.description}
		if tr, err := e.factory(Env{}); err == nil {
			if rev, ok := tr.(Reversible); ok {
				_, info.Reversible = rev.Reverse()
			}
		}
		out = append(out, info)
	}
	return out
}

func registerPlugin(path, name string, fn PluginFunc) error {
	return Register(name, "plugin model from "+path, func(env Env) (Transformer, error) {
		return &PluginTransformer{name: name, fn: fn}, nil
	})
}

type PluginFunc func(text string, params map[string]any) (string, error)

type PluginTransformer struct {
	name string
	fn   PluginFunc
}

func (t *PluginTransformer) Name() string { return t.name }

func (t *PluginTransformer) Transform(_ context.Context, text string, p Params) (string, error) {
	if t.fn == nil {
		return "", fmt.Errorf("plugin model %s not initialized", t.name)
	}
	return t.fn(text, map[string]any{
		"shift":   p.Shift,
		"seed":    p.Seed,
		"keyword": p.Keyword,
		"strict":  p.Strict,
	})
}
