package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rafael/multichat/internal/config"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the backend API token",
	Long: `Prompt for the backend API token and store it in the config file.

The token is read without echo and written to ~/.multichat/config.json
with owner-only permissions. It can also be supplied per-invocation via
the MULTICHAT_API_TOKEN environment variable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLogin()
	},
}

func runLogin() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	fmt.Print("API token: ")
	var token string
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = string(raw)
	} else {
		// Piped input (scripts, tests).
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = line
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	cfg.APIToken = token
	if err := config.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Println("Token saved.")
	return nil
}
