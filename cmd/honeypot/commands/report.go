package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/config"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/recorder"
	"github.com/Lucy-dot-dot/ssh-honeypot-sub000/pkg/report"
)

var (
	reportFormat string
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate attacker activity reports",
	Long: `Generate reports from recorded honeypot data.

Reports combine authentication attempts with cached reputation and
geolocation data and can be rendered as plain text, Markdown or HTML.

Examples:
  # Everything recorded about one attacker IP
  honeypot report ip 203.0.113.7

  # Who tried a given password, from where, as Markdown
  honeypot report password 123456 --format markdown

  # Write an HTML report to a file
  honeypot report ip 203.0.113.7 --format html --output report.html`,
}

var reportIPCmd = &cobra.Command{
	Use:   "ip <address>",
	Short: "Report on all activity from one IP address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(func(ctx context.Context, g *report.Generator, format report.Format) (string, error) {
			return g.IPReport(ctx, args[0], format)
		})
	},
}

var reportPasswordCmd = &cobra.Command{
	Use:   "password <password>",
	Short: "Report on all attempts that tried one password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(func(ctx context.Context, g *report.Generator, format report.Format) (string, error) {
			return g.PasswordReport(ctx, args[0], format)
		})
	},
}

func init() {
	reportCmd.PersistentFlags().StringVar(&reportFormat, "format", "text", "Report format: text, markdown or html")
	reportCmd.PersistentFlags().StringVar(&reportOutput, "output", "", "Write the report to a file instead of stdout")

	reportCmd.AddCommand(reportIPCmd)
	reportCmd.AddCommand(reportPasswordCmd)
}

func runReport(generate func(context.Context, *report.Generator, report.Format) (string, error)) error {
	format, err := report.ParseFormat(reportFormat)
	if err != nil {
		return err
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	store, err := recorder.NewStore(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	generator, err := report.NewGenerator(store)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out, err := generate(ctx, generator, format)
	if err != nil {
		return err
	}

	if reportOutput == "" {
		fmt.Print(out)
		return nil
	}

	// Reports contain captured credentials, keep them private.
	if err := os.WriteFile(reportOutput, []byte(out), 0o600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Printf("Report written to %s\n", reportOutput)
	return nil
}
