package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/apichat0/apichat/internal/session"
)

var askSessionID string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askSessionID, "session", "",
		"continue an existing session id instead of starting fresh")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	question := strings.Join(args, " ")

	var (
		sessionID uuid.UUID
		history   *session.History
	)
	if askSessionID != "" {
		sessionID, err = uuid.Parse(askSessionID)
		if err != nil {
			return fmt.Errorf("invalid session id %q: %w", askSessionID, err)
		}
		history, err = a.Sessions.LoadHistory(ctx, sessionID)
		if err != nil {
			return err
		}
	} else {
		sessionID, err = a.Sessions.CreateSession(ctx, question)
		if err != nil {
			return fmt.Errorf("creating session: %w", err)
		}
		history = session.NewHistory()
	}

	answer, err := a.Assistant.Answer(ctx, question, history)
	if err != nil {
		return err
	}

	fmt.Println(answer)

	if err := a.Sessions.AppendExchange(ctx, sessionID, question, answer); err != nil {
		a.Logger.Warn("persisting exchange failed", "error", err)
	}
	return nil
}
