package sharedb

import (
	"io"

	"sharedb/internal/logging"
)

// ConfigureLogging installs a text or JSON slog handler writing to w at the
// given level ("debug", "info", "warn" or "error") as the process default.
// Without it, sharedb logs through whatever slog.Default() is.
func ConfigureLogging(w io.Writer, level, format string) {
	logging.Init(w, level, format)
}
