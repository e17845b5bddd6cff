package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hireloop/refcheck/internal/candidate"
	"github.com/hireloop/refcheck/internal/logger"
	"github.com/hireloop/refcheck/internal/store"
	"github.com/hireloop/refcheck/internal/verdict"
)

const (
	PromptApprove = "Approve (reference acceptable)"
	PromptReject  = "Reject (reference unacceptable)"
	PromptSkip    = "Skip"
	PromptQuit    = "Quit"
)

const reviewListLimit = 50

var errReviewDone = errors.New("review finished")

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review candidates whose reference call could not be scored automatically",
	Run: func(_ *cobra.Command, _ []string) {
		review()
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

// review walks the queue of fail-closed verdicts: calls that ended without
// scorable content or without a reachable classifier. A human decision
// replaces the fail-closed status and lands in the activity log.
func review() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	st, err := store.Open(config.Store.Path)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err), zap.String("path", config.Store.Path))
	}
	defer st.Close()

	for {
		queue, err := reviewQueue(ctx, st)
		if err != nil {
			logger.Fatal("listing candidates", zap.Error(err))
		}

		if len(queue) == 0 {
			logger.Info("exiting", zap.String("reason", "no candidates need review"))
			return
		}

		if err := reviewOne(ctx, st, queue, logger); err != nil {
			if errors.Is(err, errReviewDone) {
				return
			}
			logger.Fatal("review failed", zap.Error(err))
		}
	}
}

// reviewQueue returns candidates whose current status came from a
// fail-closed source rather than a real classifier answer.
func reviewQueue(ctx context.Context, st *store.Store) ([]store.Candidate, error) {
	var queue []store.Candidate

	for _, status := range []string{candidate.StatusRefCallFailed, candidate.StatusRefCallEnded} {
		candidates, err := st.ListCandidatesByStatus(ctx, status, reviewListLimit)
		if err != nil {
			return nil, fmt.Errorf("list %s candidates: %w", status, err)
		}
		for _, c := range candidates {
			if needsHumanReview(c) {
				queue = append(queue, c)
			}
		}
	}

	return queue, nil
}

func needsHumanReview(c store.Candidate) bool {
	if c.ReferenceCall == nil {
		return false
	}
	switch c.ReferenceCall.Source {
	case verdict.SourceMissingInput, verdict.SourceMissingCredentials, verdict.SourceClassifierError:
		return true
	default:
		return false
	}
}

func reviewOne(ctx context.Context, st *store.Store, queue []store.Candidate, logger *zap.Logger) error {
	items := make([]string, 0, len(queue)+1)
	for _, c := range queue {
		items = append(items, fmt.Sprintf("%s %s / %s / call %s (%s)",
			c.ID, c.Name, c.Status, c.ReferenceCall.CallID, c.ReferenceCall.Source))
	}

	candidatePrompt := promptui.Select{
		Label: "Choose a candidate and press ENTER",
		Items: append(items, PromptQuit),
	}

	_, selected, err := candidatePrompt.Run()
	if err != nil {
		return err
	}
	if selected == PromptQuit {
		return errReviewDone
	}

	candidateID := strings.Split(selected, " ")[0]

	actionPrompt := promptui.Select{
		Label: "Decision",
		Items: []string{PromptApprove, PromptReject, PromptSkip},
	}

	_, action, err := actionPrompt.Run()
	if err != nil {
		return err
	}

	switch action {
	case PromptApprove:
		return recordDecision(ctx, st, candidateID, candidate.StatusRefCallPassed, "approved", logger)
	case PromptReject:
		return recordDecision(ctx, st, candidateID, candidate.StatusRefCallFailed, "rejected", logger)
	default:
		return nil
	}
}

func recordDecision(ctx context.Context, st *store.Store, candidateID, status, decision string, logger *zap.Logger) error {
	note := fmt.Sprintf("Reference call reviewed manually: %s", decision)
	if err := st.RecordReview(ctx, candidateID, status, note, time.Now().UTC()); err != nil {
		return fmt.Errorf("recording review: %w", err)
	}

	logger.Info("review recorded",
		zap.String("candidate_id", candidateID),
		zap.String("status", status),
	)
	return nil
}
