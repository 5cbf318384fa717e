package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apichat0/apichat/internal/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sessionID, err := a.Sessions.CreateSession(ctx, "chat session")
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	history := session.NewHistory()

	fmt.Println("apichat - Catalyst Center REST API assistant")
	fmt.Println("Type a question, /help for commands, /exit to quit.")
	fmt.Printf("Session: %s\n\n", sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if handleSlashCommand(input, history) {
				break
			}
			continue
		}

		answer, err := a.Assistant.Answer(ctx, input, history)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		fmt.Println()
		fmt.Println(answer)
		fmt.Println()

		history.Add(input, answer)
		if err := a.Sessions.AppendExchange(ctx, sessionID, input, answer); err != nil {
			a.Logger.Warn("persisting exchange failed", "error", err)
		}
	}

	return scanner.Err()
}

// handleSlashCommand processes a /command. Returns true when the chat
// loop should exit.
func handleSlashCommand(input string, history *session.History) bool {
	switch input {
	case "/exit", "/quit":
		fmt.Println("Goodbye!")
		return true
	case "/clear":
		history.Clear()
		fmt.Println("Conversation history cleared.")
	case "/history":
		fmt.Printf("%d messages in this conversation.\n", history.Count())
	case "/help":
		fmt.Println("Available commands:")
		fmt.Println("  /help     show this help")
		fmt.Println("  /clear    clear the conversation history")
		fmt.Println("  /history  show the history length")
		fmt.Println("  /exit     quit")
	default:
		fmt.Printf("Unknown command %q. Type /help for commands.\n", input)
	}
	return false
}
