package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizwarden/internal/supervisor"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Backfill rejection reasons on old rejected questions",
	Long: "Stamps a placeholder reason on rejected questions that predate " +
		"reason tracking, without calling the oracle. The check command " +
		"runs this automatically before grading.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		svc := supervisor.NewService(s.QuestionRepo(), nil, supervisor.DefaultConfig())

		count, err := svc.RepairLegacyReasons(cmd.Context())
		if err != nil {
			return fmt.Errorf("repair: %w", err)
		}

		if count == 0 {
			fmt.Println("No rejected questions missing a reason.")
			return nil
		}
		fmt.Printf("Backfilled %d rejection reason(s).\n", count)
		return nil
	},
}
