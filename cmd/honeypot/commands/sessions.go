package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/internal/cli/output"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/config"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/recorder"
)

var (
	sessionsLimit  int
	sessionsAuthID string
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded attacker activity",
	Long: `List recorded authentication attempts and session summaries from the
database, newest first.

Examples:
  # Show the last 20 authentication attempts
  honeypot sessions

  # Show more
  honeypot sessions --limit 100

  # Show the command history of one attacker session
  honeypot sessions --auth-id 5e8f8f2a-...`,
	RunE: runSessions,
}

func init() {
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "Maximum number of rows to show")
	sessionsCmd.Flags().StringVar(&sessionsAuthID, "auth-id", "", "Show the command history for one auth ID")
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	store, err := recorder.NewStore(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sessionsAuthID != "" {
		return printCommands(ctx, store, sessionsAuthID)
	}
	return printAuths(ctx, store, sessionsLimit)
}

func printAuths(ctx context.Context, store *recorder.Store, limit int) error {
	auths, err := store.ListAuths(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list authentication attempts: %w", err)
	}
	if len(auths) == 0 {
		fmt.Println("No authentication attempts recorded yet.")
		return nil
	}

	table := output.NewTableData("TIME", "AUTH ID", "IP", "USER", "METHOD", "CREDENTIAL", "CLIENT")
	for _, auth := range auths {
		credential := auth.Password
		if auth.Method == recorder.AuthMethodPublicKey {
			credential = truncate(auth.PublicKey, 32)
		}
		table.AddRow(
			auth.Timestamp.Local().Format("2006-01-02 15:04:05"),
			auth.ID,
			auth.IP,
			auth.Username,
			string(auth.Method),
			credential,
			auth.ClientVersion,
		)
	}
	return output.PrintTable(os.Stdout, table)
}

func printCommands(ctx context.Context, store *recorder.Store, authID string) error {
	commands, err := store.ListCommands(ctx, authID)
	if err != nil {
		return fmt.Errorf("failed to list commands: %w", err)
	}
	if len(commands) == 0 {
		fmt.Printf("No commands recorded for auth ID %s.\n", authID)
		return nil
	}

	table := output.NewTableData("TIME", "COMMAND")
	for _, c := range commands {
		table.AddRow(c.Timestamp.Local().Format("2006-01-02 15:04:05"), c.Command)
	}
	return output.PrintTable(os.Stdout, table)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
