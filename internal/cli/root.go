package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"
)

// Settings are the env-driven defaults; flags override them.
type Settings struct {
	ContentDir    string        `env:"PAGECRAFT_CONTENT_DIR" envDefault:"./content"`
	StateFile     string        `env:"PAGECRAFT_STATE_FILE" envDefault:"./pagecraft-state.json"`
	Port          int           `env:"PAGECRAFT_PORT" envDefault:"8080"`
	FlushInterval time.Duration `env:"PAGECRAFT_FLUSH_INTERVAL" envDefault:"30s"`
	LogLevel      string        `env:"PAGECRAFT_LOG_LEVEL" envDefault:"info"`
}

var (
	settings   Settings
	contentDir string
	stateFile  string
)

var rootCmd = &cobra.Command{
	Use:   "pagecraft",
	Short: "Pagecraft - experiment assignment engine for content entities",
	Long: `Pagecraft buckets visitors into A/B experiment variants for content
entities (programs, pages, landings, locations). Experiments are defined in
one experiments.yml per entity folder; exposure counters live in a single
JSON state file.

Running without a subcommand starts the server (same as 'pagecraft serve').`,
	RunE: runServe, // Default action is to start server
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := env.Parse(&settings); err != nil {
		settings = Settings{
			ContentDir:    "./content",
			StateFile:     "./pagecraft-state.json",
			Port:          8080,
			FlushInterval: 30 * time.Second,
			LogLevel:      "info",
		}
	}

	rootCmd.PersistentFlags().StringVar(&contentDir, "content", settings.ContentDir, "content root directory")
	rootCmd.PersistentFlags().StringVar(&stateFile, "state", settings.StateFile, "tracking state file path")

	setupLogger()
}

func setupLogger() {
	level := slog.LevelInfo
	switch settings.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
