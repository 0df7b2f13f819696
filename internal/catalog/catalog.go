package catalog

import (
	"fmt"
	"io"

	"github.com/dyne/scramble/internal/log"
	"github.com/dyne/scramble/internal/transform"
)

// Run prints every registered model with its description.
func Run(w io.Writer, logger *log.Logger) error {
	models := transform.Models()
	if _, err := fmt.Fprintln(w, "Models:"); err != nil {
		return err
	}
	for _, m := range models {
		line := fmt.Sprintf("- %s: %s", m.Name, m.Description)
		if m.Reversible {
			line += " (reversible)"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if logger != nil {
		logger.Debugf("catalog complete: %d models", len(models))
	}
	return nil
}
