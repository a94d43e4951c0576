package cmd

import (
	"github.com/abhisek/quizwarden/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quizwarden",
	Short: "Quality control for machine-generated quiz questions",
	Long: "Quizwarden re-grades machine-generated curriculum questions with an " +
		"LLM oracle and records an approve/reject verdict for each one.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides QUIZWARDEN_DB env var)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(oracleCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then QUIZWARDEN_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openStore resolves the database path and opens the store.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, err
	}
	return store.Open(dbPath)
}
