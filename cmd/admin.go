package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jparise/gh-search/internal/storage"
)

var (
	feedbackStatus string
	notifyTitle    string
	notifyMessage  string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Triage feedback and broadcast notifications",
	Long: `Admin commands work directly on the local database, so they are
available to anyone who can read it.`,
}

var adminFeedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "List submitted feedback",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if feedbackStatus != "" && !storage.FeedbackStatus(feedbackStatus).Valid() {
			return fmt.Errorf("invalid --status %q: must be one of \"open\", \"reviewed\", or \"resolved\"", feedbackStatus)
		}
		return nil
	},
	RunE: runAdminFeedback,
}

var adminReviewCmd = &cobra.Command{
	Use:   "review <id>...",
	Short: "Mark feedback as reviewed",
	Args:  cobra.MinimumNArgs(1),
	RunE:  setFeedbackStatus(storage.StatusReviewed),
}

var adminResolveCmd = &cobra.Command{
	Use:   "resolve <id>...",
	Short: "Mark feedback as resolved",
	Args:  cobra.MinimumNArgs(1),
	RunE:  setFeedbackStatus(storage.StatusResolved),
}

var adminReopenCmd = &cobra.Command{
	Use:   "reopen <id>...",
	Short: "Mark feedback as open again",
	Args:  cobra.MinimumNArgs(1),
	RunE:  setFeedbackStatus(storage.StatusOpen),
}

var adminNotifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Broadcast a notification to every user",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if notifyTitle == "" || notifyMessage == "" {
			return errors.New("--title and --message are required")
		}
		return nil
	},
	RunE: runAdminNotify,
}

func init() {
	adminFeedbackCmd.Flags().StringVar(&feedbackStatus, "status", "",
		"only show feedback with a status: open, reviewed, resolved")
	adminFeedbackCmd.AddCommand(adminReviewCmd, adminResolveCmd, adminReopenCmd)

	adminNotifyCmd.Flags().StringVar(&notifyTitle, "title", "", "notification title")
	adminNotifyCmd.Flags().StringVar(&notifyMessage, "message", "", "notification message")

	adminCmd.AddCommand(adminFeedbackCmd, adminNotifyCmd)
}

func runAdminFeedback(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	items, err := store.Feedback().List(cmd.Context(), storage.FeedbackStatus(feedbackStatus))
	if err != nil {
		return err
	}

	output := newOutput(cmd)
	if len(items) == 0 {
		output.Infof("No feedback found")
		return nil
	}
	for _, fb := range items {
		output.Feedback(fb)
	}
	return nil
}

func setFeedbackStatus(status storage.FeedbackStatus) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		output := newOutput(cmd)
		var failed int
		for _, id := range args {
			err := store.Feedback().UpdateStatus(cmd.Context(), id, status)
			switch {
			case errors.Is(err, storage.ErrNotFound):
				output.Errorf("feedback %s not found", id)
				failed++
			case err != nil:
				return err
			default:
				output.Infof("Marked %s as %s", id, status)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d feedback items not updated", failed, len(args))
		}
		return nil
	}
}

func runAdminNotify(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	n := &storage.Notification{
		Title:     notifyTitle,
		Message:   notifyMessage,
		CreatedBy: localUserID(),
	}
	if err := store.Notifications().Broadcast(cmd.Context(), n); err != nil {
		return err
	}

	newOutput(cmd).Infof("Sent notification %s", n.ID)
	return nil
}
