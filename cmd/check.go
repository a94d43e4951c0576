package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizwarden/internal/oracle"
	"github.com/abhisek/quizwarden/internal/supervisor"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate every question against the oracle",
	Long: "Re-validates every question in the database, including previously " +
		"approved ones, and persists an approve/reject verdict for each.",
	RunE: func(cmd *cobra.Command, args []string) error {
		careful, _ := cmd.Flags().GetBool("careful")

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		ctx := cmd.Context()

		provider, err := oracle.NewProviderFromEnv(ctx, s.EventRepo())
		if err != nil {
			return fmt.Errorf("configure oracle: %w", err)
		}

		cfg := supervisor.DefaultConfig()
		cfg.Progress = os.Stdout

		svc := supervisor.NewService(s.QuestionRepo(), provider, cfg)

		summary, err := svc.Run(ctx, careful)
		if err != nil {
			return fmt.Errorf("validation run: %w", err)
		}

		fmt.Println()
		fmt.Printf("Run:                %s\n", summary.RunID)
		fmt.Printf("Questions graded:   %d\n", summary.TotalRecords)
		fmt.Printf("Batches processed:  %d\n", summary.BatchesProcessed)
		fmt.Printf("Batches failed:     %d\n", summary.BatchesFailed)
		if summary.RepairedLegacy > 0 {
			fmt.Printf("Legacy repairs:     %d\n", summary.RepairedLegacy)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().Bool("careful", false, "Grade in smaller batches for more per-question attention")
}
