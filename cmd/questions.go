package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizwarden/internal/store"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "List questions and their verdicts",
	RunE: func(cmd *cobra.Command, args []string) error {
		stateFlag, _ := cmd.Flags().GetString("state")
		state := store.ApprovalState(stateFlag)
		if stateFlag != "" && !state.Valid() {
			return fmt.Errorf("invalid state %q (want pending, approved or rejected)", stateFlag)
		}

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		questions, err := s.QuestionRepo().List(cmd.Context(), state)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}

		if len(questions) == 0 {
			fmt.Println("No questions found.")
			return nil
		}

		fmt.Printf("%-5s  %-16s  %-10s  %-44s  %s\n",
			"ID", "Topic", "State", "Question", "Reason")
		fmt.Println(strings.Repeat("─", 110))

		for _, q := range questions {
			fmt.Printf("%-5d  %-16s  %-10s  %-44s  %s\n",
				q.ID,
				truncate(q.Topic, 16),
				q.State,
				truncate(q.Text, 44),
				truncate(q.RejectionReason, 40),
			)
		}

		fmt.Println(strings.Repeat("─", 110))
		fmt.Printf("%d question(s)\n", len(questions))
		return nil
	},
}

func init() {
	questionsCmd.Flags().StringP("state", "s", "", "Filter by state (pending, approved, rejected)")
}
