// Command ifdd replays, inspects and serves incremental feature dependency
// discovery representations.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/danielpatrickdp/ifdd/internal/config"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

// #region root
var rootCmd = &cobra.Command{
	Use:   "ifdd",
	Short: "Incremental feature dependency discovery",
	Long: `ifdd grows a sparse linear representation by promoting conjunctions of
co-active features whose accumulated TD error is large enough.

Examples:
  ifdd replay --fixture trace.json --db ifdd.db   # Replay a trace and persist the result
  ifdd inspect --db ifdd.db                       # List stored snapshots
  ifdd export --db ifdd.db --out snapshot.json    # Export the active snapshot
  ifdd serve --config ifdd.yaml                   # Serve the representation over gRPC`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			loaded.LogLevel = logLevel
			if err := loaded.Validate(); err != nil {
				return err
			}
		}
		cfg = loaded
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to ifdd.yaml (defaults when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
}

// #endregion root

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// dbFlag resolves a --db flag against the configured database path.
func dbFlag(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("db"); path != "" {
		return path
	}
	if cfg != nil {
		return cfg.DB
	}
	return ""
}
