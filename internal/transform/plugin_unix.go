//go:build linux || darwin

package transform

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"runtime"
	"sort"
	"strings"
)

// LoadPlugins opens Go plugins and registers the models they export through
// a package-level
//
//	var Models = map[string]func(text string, params map[string]any) (string, error){...}
//
// A path may name a .so file, a directory of them, or a base name that is
// completed with the platform suffix (name.GOOS.GOARCH.so or name.GOARCH.so).
func LoadPlugins(paths []string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		files, err := pluginFiles(path)
		if err != nil {
			return err
		}
		for _, f := range files {
			if err := openPlugin(f); err != nil {
				return err
			}
		}
	}
	return nil
}

func openPlugin(path string) error {
	p, err := plugin.Open(path)
	if err != nil {
		return fmt.Errorf("open plugin %s: %w", path, err)
	}
	sym, err := p.Lookup("Models")
	if err != nil {
		return fmt.Errorf("plugin %s: missing Models symbol", path)
	}
	return registerPluginSymbol(path, sym)
}

func pluginFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		matches, err := filepath.Glob(filepath.Join(path, "*.so"))
		if err != nil {
			return nil, fmt.Errorf("scan plugin dir %s: %w", path, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no plugins found in %s", path)
		}
		sort.Strings(matches)
		return matches, nil
	}
	if err == nil {
		return []string{path}, nil
	}
	base := strings.TrimSuffix(path, ".so")
	tried := []string{
		fmt.Sprintf("%s.%s.%s.so", base, runtime.GOOS, runtime.GOARCH),
		fmt.Sprintf("%s.%s.so", base, runtime.GOARCH),
	}
	for _, cand := range tried {
		if info, err := os.Stat(cand); err == nil && !info.IsDir() {
			return []string{cand}, nil
		}
	}
	return nil, fmt.Errorf("plugin not found: %s (tried %s)", path, strings.Join(tried, ", "))
}

func registerPluginSymbol(path string, sym any) error {
	var models map[string]func(string, map[string]any) (string, error)
	switch v := sym.(type) {
	case map[string]func(string, map[string]any) (string, error):
		models = v
	case *map[string]func(string, map[string]any) (string, error):
		models = *v
	default:
		return fmt.Errorf("plugin %s: Models has incompatible type", path)
	}
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := registerPlugin(path, name, models[name]); err != nil {
			return fmt.Errorf("plugin %s: %w", path, err)
		}
	}
	return nil
}
