package cli

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pagecraft/pagecraft/internal/config"
	"github.com/pagecraft/pagecraft/internal/tracking"
)

// openStore builds the config store over the content root.
func openStore() *config.Store {
	return config.NewStore(contentDir, slog.Default())
}

// openTracker loads the tracking state for read-only command use.
func openTracker(store *config.Store) *tracking.Tracker {
	return tracking.New(stateFile, store, slog.Default())
}

// splitEntity parses the "contentType/contentSlug" argument form.
func splitEntity(arg string) (contentType, contentSlug string, ok bool) {
	parts := strings.SplitN(arg, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// tokenFilePath returns the admin token file path, kept next to the state file.
func tokenFilePath() string {
	return filepath.Join(filepath.Dir(stateFile), ".pagecraft-token")
}
