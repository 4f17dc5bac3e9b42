package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rafael/multichat/internal/models"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse stored conversations",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistoryList()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <ref>",
	Short: "Replay a stored conversation",
	Long: `Replay a stored conversation as grouped turns.

The reference is a conversation id, a 1-based index into the listing,
or @last for the most recent conversation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistoryShow(args[0])
	},
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
}

func runHistoryList() error {
	cfg, err := loadRuntimeConfig()
	if err != nil {
		return err
	}

	_, client, err := buildController(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conversations, err := client.ListConversations(ctx)
	if err != nil {
		return err
	}
	if len(conversations) == 0 {
		fmt.Println("No conversations found.")
		return nil
	}

	for i, conv := range conversations {
		title := conv.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%3d. %-50s %s  %s\n", i+1, truncateTitle(title, 50),
			conv.CreatedAt.Format("2006-01-02 15:04"), conv.ID)
	}
	return nil
}

func runHistoryShow(ref string) error {
	cfg, err := loadRuntimeConfig()
	if err != nil {
		return err
	}

	ctrl, client, err := buildController(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conversationID, err := resolveRef(ctx, client, ref)
	if err != nil {
		return err
	}

	if err := ctrl.LoadConversation(ctx, conversationID); err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	snap := ctrl.Snapshot()
	if len(snap.Turns) == 0 {
		fmt.Println("Conversation is empty.")
		return nil
	}

	for _, turn := range snap.Turns {
		if turn.UserText != "" {
			fmt.Printf("you> %s\n\n", turn.UserText)
		}
		printTurn(turn)
	}
	return nil
}

// conversationLister is the listing slice of the API client, split out so
// ref resolution is testable with a stub.
type conversationLister interface {
	ListConversations(ctx context.Context) ([]models.ConversationInfo, error)
}

// resolveRef turns a user-friendly reference into a conversation id:
// "@last", a 1-based listing index, or a raw id.
func resolveRef(ctx context.Context, lister conversationLister, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty reference")
	}

	isIndex := false
	index := 0
	if n, err := strconv.Atoi(ref); err == nil {
		isIndex = true
		index = n
	}

	if !isIndex && !strings.EqualFold(ref, "@last") {
		return ref, nil
	}

	conversations, err := lister.ListConversations(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list conversations: %w", err)
	}
	if len(conversations) == 0 {
		return "", fmt.Errorf("no conversations found")
	}

	if strings.EqualFold(ref, "@last") {
		return conversations[0].ID, nil
	}
	if index < 1 || index > len(conversations) {
		return "", fmt.Errorf("index %d out of range (1-%d)", index, len(conversations))
	}
	return conversations[index-1].ID, nil
}

func truncateTitle(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
