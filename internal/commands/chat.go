package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rafael/multichat/internal/apierrors"
	"github.com/rafael/multichat/internal/tui"
)

var resumeFlag string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive multi-model chat session",
	Long: `Start an interactive chat session against the configured models.

Responses from every model stream side by side. Esc cancels the
in-flight turn, Ctrl+N starts a new conversation, Ctrl+Y copies the
last completed response, Ctrl+C quits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func init() {
	chatCmd.Flags().StringVar(&resumeFlag, "resume", "", "Conversation id or @last to continue")
}

func runChat() error {
	cfg, err := loadRuntimeConfig()
	if err != nil {
		return err
	}
	if len(cfg.DefaultModels) == 0 {
		return apierrors.NewValidationError("no models configured; pass -m or set default_models", apierrors.ErrNoModels)
	}

	ctrl, client, err := buildController(cfg)
	if err != nil {
		return err
	}

	if resumeFlag != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		conversationID, err := resolveRef(ctx, client, resumeFlag)
		if err != nil {
			return err
		}
		spin := newSpinner("Loading conversation")
		spin.start()
		if err := ctrl.LoadConversation(ctx, conversationID); err != nil {
			spin.stopWithError()
			return fmt.Errorf("failed to load conversation: %w", err)
		}
		spin.stopWithSuccess("Conversation loaded")
	}

	return tui.RunChat(ctrl, cfg.DefaultModels)
}
