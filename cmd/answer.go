package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openlms/ask4summary/internal/app"
	"github.com/openlms/ask4summary/internal/config"
)

var answerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Run one forum pass: collect new questions and reply to them",
	Long: `Answer scans the forums of every course with question answering
enabled, collects postings addressed to the course helper, and replies to
each with a summary of the most relevant indexed material.

Each posting is handled once: a question with no relevant material gets
an apology reply, and a posting whose reply fails is logged and skipped
without stopping the rest of the batch.`,
	RunE: runAnswer,
}

func init() {
	rootCmd.AddCommand(answerCmd)
}

func runAnswer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	batches, err := a.Forums.Run(ctx)
	if err != nil {
		return err
	}

	var answered, failed int
	for _, batch := range batches {
		for _, q := range batch.Questions {
			if err := a.Answerer.Answer(ctx, batch.Settings, q); err != nil {
				failed++
				logger.Error("answering question",
					"course_id", q.CourseID,
					"post_id", q.Post.ID,
					"error", err,
				)
				continue
			}
			answered++
		}
	}

	logger.Info("answer pass finished", "answered", answered, "failed", failed)
	return nil
}
