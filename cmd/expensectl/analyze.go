package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"expensebot/internal/cli"
	"expensebot/internal/config"
	"expensebot/internal/core"
	"expensebot/internal/services"
)

func (a *app) analyzeCmd() *cobra.Command {
	var (
		userID int64
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <message>",
		Short: "Classify a message and record or summarize expenses, as the API does",
		Example: `  expensectl analyze --user 7 "Bought coffee for 4.50"
  expensectl analyze --user 7 "how much did I spend on food last week?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			cfg, logger, err := a.loadConfig(cmd, (*config.Config).Validate)
			if err != nil {
				return err
			}
			store, err := cli.OpenBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			var publisher services.EventPublisher
			if amqpClient := cli.OptionalAMQP(cfg, logger); amqpClient != nil {
				defer amqpClient.Close()
				publisher = amqpClient
			}

			svc, err := cli.NewServices(cfg, store.Store, publisher, logger)
			if err != nil {
				return err
			}

			resp, err := svc.Messages.AnalyzeMessage(ctx, userID, strings.Join(args, " "))
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			return renderResponse(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "user id the message belongs to (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw response")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func renderResponse(out io.Writer, resp core.MessageResponse) error {
	switch data := resp.Data.(type) {
	case core.ExpenseData:
		fmt.Fprintf(out, "%s #%d %s %s (%s)\n",
			successStyle.Render("Recorded expense"),
			data.ID, data.Amount.String(), data.Description, data.Category)
		return nil
	case core.ExpenseSummary:
		return renderSummary(out, data)
	}

	if resp.Type == core.MessageTypeError {
		// A business failure is still a completed command.
		fmt.Fprintln(out, errorStyle.Render("Could not process message: ")+resp.Error)
		return nil
	}
	return fmt.Errorf("unexpected response type %q", resp.Type)
}
