package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/rafael/multichat/internal/models"
	"github.com/rafael/multichat/internal/session"
)

var modelHeaderStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#7aa2f7")).
	Bold(true)

var errorTextStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#f7768e"))

var queryCmd = &cobra.Command{
	Use:   "query [prompt]",
	Short: "Send a single prompt and print the responses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(args[0])
	},
}

// runQuery sends one prompt to the configured models and prints the
// result. With a single model the text streams to stdout as it arrives;
// with several, a spinner runs until every channel settles and the
// answers print as separate blocks.
func runQuery(prompt string) error {
	cfg, err := loadRuntimeConfig()
	if err != nil {
		return err
	}

	ctrl, _, err := buildController(cfg)
	if err != nil {
		return err
	}

	modelIDs := cfg.DefaultModels
	var lastUsage atomic.Pointer[models.Usage]
	onUsage := func(u models.Usage) {
		lastUsage.Store(&u)
	}

	sendErr := make(chan error, 1)
	go func() {
		sendErr <- ctrl.Send(context.Background(), prompt, modelIDs, onUsage)
	}()

	var sendResult error
	if len(modelIDs) == 1 {
		sendResult = streamSingle(ctrl, modelIDs[0], sendErr)
	} else {
		spin := newSpinner(fmt.Sprintf("Waiting for %d models", len(modelIDs)))
		spin.start()
		sendResult = <-sendErr
		spin.stopQuiet()
	}

	snap := ctrl.Snapshot()
	if len(snap.Turns) == 0 {
		// Validation failure: Send returned before creating a turn.
		return sendResult
	}

	turn := snap.Turns[len(snap.Turns)-1]
	if len(modelIDs) > 1 {
		printTurn(turn)
	}

	if u := lastUsage.Load(); u != nil {
		fmt.Fprintf(os.Stderr, "tokens remaining: %d, credits remaining: %d\n",
			u.TokensRemaining, u.CreditsRemaining)
	}

	return turnError(turn)
}

// streamSingle prints one model's content incrementally until the send
// settles, returning Send's result.
func streamSingle(ctrl *session.Controller, modelID string, sendErr <-chan error) error {
	printed := 0
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	flush := func() {
		snap := ctrl.Snapshot()
		if len(snap.Turns) == 0 {
			return
		}
		slot := snap.Turns[len(snap.Turns)-1].Slots[modelID]
		if slot == nil {
			return
		}
		if len(slot.Content) > printed {
			fmt.Print(slot.Content[printed:])
			printed = len(slot.Content)
		}
	}

	for {
		select {
		case err := <-sendErr:
			flush()
			fmt.Println()
			return err
		case <-ticker.C:
			flush()
		}
	}
}

// printTurn prints each model's answer as a labeled block.
func printTurn(turn models.Turn) {
	for _, modelID := range turn.ModelIDs {
		slot := turn.Slots[modelID]
		fmt.Println(modelHeaderStyle.Render("── " + modelID + " ──"))
		if slot.Err != "" {
			fmt.Println(errorTextStyle.Render("error: " + slot.Err))
			if slot.Content != "" {
				fmt.Println(strings.TrimRight(slot.Content, "\n"))
			}
		} else {
			fmt.Println(strings.TrimRight(slot.Content, "\n"))
		}
		fmt.Println()
	}
}

// turnError returns a non-nil error when every slot of the turn failed,
// so one-shot usage exits non-zero only on total failure.
func turnError(turn models.Turn) error {
	failed := 0
	for _, slot := range turn.Slots {
		if slot.Err != "" {
			failed++
		}
	}
	if failed > 0 && failed == len(turn.Slots) {
		return fmt.Errorf("all %d channels failed", failed)
	}
	return nil
}
