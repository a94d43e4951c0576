package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizwarden/internal/store"
)

// importQuestion is the JSON form accepted by the import command. It
// mirrors what the generation pipeline emits.
type importQuestion struct {
	Topic      string   `json:"topic"`
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	Answer     string   `json:"answer"`
	Difficulty string   `json:"difficulty"`
	Style      string   `json:"style"`
}

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import generated questions from a JSON file",
	Long: "Reads a JSON array of questions and inserts them as pending. " +
		"Run check afterwards to grade them.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		var items []importQuestion
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}
		if len(items) == 0 {
			fmt.Println("Nothing to import.")
			return nil
		}

		s, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		repo := s.QuestionRepo()
		ctx := cmd.Context()

		for i, item := range items {
			if item.Question == "" || item.Answer == "" {
				return fmt.Errorf("item %d: question and answer are required", i)
			}
			q := store.Question{
				Topic:      item.Topic,
				Text:       item.Question,
				Options:    item.Options,
				Answer:     item.Answer,
				Difficulty: item.Difficulty,
				Style:      item.Style,
			}
			if err := repo.Insert(ctx, &q); err != nil {
				return fmt.Errorf("insert item %d: %w", i, err)
			}
		}

		fmt.Printf("Imported %d question(s) as pending.\n", len(items))
		return nil
	},
}
