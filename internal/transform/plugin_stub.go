//go:build !linux && !darwin

package transform

import "fmt"

func LoadPlugins(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	return fmt.Errorf("cannot load %d plugin(s): Go plugins need linux or darwin", len(paths))
}
