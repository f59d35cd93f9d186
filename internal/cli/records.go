package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"quizzify-service/internal/app"
	"quizzify-service/internal/domain"

	"github.com/spf13/cobra"
)

// NewCreateCmd publishes a manually authored quiz from a JSON draft.
func NewCreateCmd(configPath *string) *cobra.Command {
	var draftPath string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a quiz from a JSON draft file",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(draftPath)
			if err != nil {
				return err
			}
			var draft app.QuizDraft
			if err := json.Unmarshal(raw, &draft); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrValidation, err)
			}
			rt, err := loadRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			quiz, err := rt.service.CreateQuiz(cmd.Context(), draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %q with join code %s\n", quiz.Title, quiz.Code)
			return nil
		},
	}
	cmd.Flags().StringVarP(&draftPath, "file", "f", "", "path to the quiz draft JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// NewGenerateCmd asks the AI collaborator for a quiz and publishes it.
func NewGenerateCmd(configPath *string) *cobra.Command {
	req := app.GenerateRequest{}
	var difficulty, theme string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate and publish a quiz on a topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			req.Difficulty = domain.Difficulty(difficulty)
			req.Theme = domain.Theme(theme)
			quiz, err := rt.service.GenerateQuiz(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %q (%d questions) with join code %s\n", quiz.Title, len(quiz.Questions), quiz.Code)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Topic, "topic", "", "quiz topic")
	cmd.Flags().IntVar(&req.Count, "count", 5, "number of questions")
	cmd.Flags().StringVar(&difficulty, "difficulty", string(domain.DifficultyMedium), "EASY, MEDIUM or HARD")
	cmd.Flags().StringVar(&theme, "theme", string(domain.ThemeStandard), "presentation theme")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

// NewAttemptsCmd lists recorded attempts.
func NewAttemptsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "attempts",
		Short: "List recorded attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			attempts, err := rt.service.Attempts(cmd.Context())
			if err != nil {
				return err
			}
			return printAttempts(cmd.OutOrStdout(), attempts)
		},
	}
}

func printAttempts(w io.Writer, attempts []domain.QuizAttempt) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ATTEMPT\tQUIZ\tSCORE\tTIME")
	for _, a := range attempts {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%ds\n", a.ID, a.QuizID, a.Score, a.TotalMarks, a.TimeTaken)
	}
	return tw.Flush()
}

// NewProfileCmd prints the local profile.
func NewProfileCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the local profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			user, err := rt.service.Profile(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(user)
		},
	}
}
