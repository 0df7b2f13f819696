//go:build linux || darwin

package transform

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestPluginFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.so", "a.so", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	files, err := pluginFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "a.so" || filepath.Base(files[1]) != "b.so" {
		t.Fatalf("dir scan: %v", files)
	}

	platform := filepath.Join(dir, "mask."+runtime.GOOS+"."+runtime.GOARCH+".so")
	if err := os.WriteFile(platform, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	files, err = pluginFiles(filepath.Join(dir, "mask"))
	if err != nil || len(files) != 1 || files[0] != platform {
		t.Fatalf("platform suffix: %v %v", files, err)
	}

	if _, err := pluginFiles(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing plugin")
	}
	if _, err := pluginFiles(t.TempDir()); err == nil {
		t.Fatal("expected error for empty plugin dir")
	}
}

func TestRegisterPluginSymbol(t *testing.T) {
	models := map[string]func(string, map[string]any) (string, error){
		"plugin-b": func(text string, _ map[string]any) (string, error) { return text + "b", nil },
		"plugin-a": func(text string, _ map[string]any) (string, error) { return text + "a", nil },
	}
	if err := registerPluginSymbol("test.so", &models); err != nil {
		t.Fatal(err)
	}
	defer Unregister("plugin-a")
	defer Unregister("plugin-b")

	tr, err := Build("plugin-a", Env{})
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := tr.Transform(context.Background(), "x", Params{}); got != "xa" {
		t.Fatalf("got %q", got)
	}
	if err := registerPluginSymbol("test.so", "nope"); err == nil {
		t.Fatal("expected incompatible type error")
	}
}
