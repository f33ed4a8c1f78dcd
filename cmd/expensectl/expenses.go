package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"expensebot/internal/cli"
	"expensebot/internal/core"
)

// filterFlags are the command line form of core.ExpenseFilter.
type filterFlags struct {
	userID   int64
	from, to string
	category string
	min, max string
	lastDays int
}

func (f *filterFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Int64Var(&f.userID, "user", 0, "user id (required)")
	flags.StringVar(&f.from, "from", "", "first day, YYYY-MM-DD")
	flags.StringVar(&f.to, "to", "", "last day, YYYY-MM-DD (inclusive)")
	flags.IntVar(&f.lastDays, "last-days", 0, "only the last N days; conflicts with --from")
	flags.StringVar(&f.category, "category", "", "category name")
	flags.StringVar(&f.min, "min", "", "minimum amount, e.g. 10.50")
	flags.StringVar(&f.max, "max", "", "maximum amount")
	_ = cmd.MarkFlagRequired("user")
	cmd.MarkFlagsMutuallyExclusive("from", "last-days")
}

func (f *filterFlags) build(now time.Time) (core.ExpenseFilter, error) {
	var filter core.ExpenseFilter
	if f.userID <= 0 {
		return filter, fmt.Errorf("--user must be a positive id")
	}

	if f.lastDays > 0 {
		start := now.AddDate(0, 0, -f.lastDays)
		filter.StartDate = &start
	}
	if f.from != "" {
		t, err := time.Parse("2006-01-02", f.from)
		if err != nil {
			return filter, fmt.Errorf("--from: %w", err)
		}
		filter.StartDate = &t
	}
	if f.to != "" {
		t, err := time.Parse("2006-01-02", f.to)
		if err != nil {
			return filter, fmt.Errorf("--to: %w", err)
		}
		t = t.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &t
	}
	filter.Category = strings.TrimSpace(f.category)

	for _, bound := range []struct {
		name string
		raw  string
		dst  **core.Money
	}{
		{"--min", f.min, &filter.MinAmount},
		{"--max", f.max, &filter.MaxAmount},
	} {
		if bound.raw == "" {
			continue
		}
		m, err := core.ParseMoney(bound.raw)
		if err != nil {
			return filter, fmt.Errorf("%s: %w", bound.name, err)
		}
		*bound.dst = &m
	}
	return filter, filter.Validate()
}

func (a *app) expensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "Query recorded expenses",
	}
	cmd.AddCommand(a.listExpensesCmd())
	return cmd
}

func (a *app) listExpensesCmd() *cobra.Command {
	var (
		filters filterFlags
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's expenses with an optional filter",
		Example: `  expensectl expenses list --user 7 --last-days 7
  expensectl expenses list --user 7 --category Food --min 10 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			filter, err := filters.build(time.Now().UTC())
			if err != nil {
				return err
			}

			cfg, logger, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := cli.OpenBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			rows, err := store.Store.QueryExpenses(ctx, filters.userID, filter)
			if err != nil {
				return err
			}
			summary := core.Summarize(filter, rows)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			return renderSummary(cmd.OutOrStdout(), summary)
		},
	}

	filters.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func renderSummary(out io.Writer, summary core.ExpenseSummary) error {
	if summary.Count == 0 {
		if summary.Filter.IsEmpty() {
			fmt.Fprintln(out, subtleStyle.Render("No expenses recorded."))
		} else {
			fmt.Fprintln(out, subtleStyle.Render("No expenses match."))
		}
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("ID"),
		headerStyle.Render("Date"),
		headerStyle.Render("Category"),
		headerStyle.Render("Amount"),
		headerStyle.Render("Description"))
	for _, e := range summary.Expenses {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			e.ID,
			e.AddedAt.Format("2006-01-02 15:04"),
			e.Category,
			amountStyle.Render(e.Amount.String()),
			e.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%s %s across %d expenses\n",
		titleStyle.Render("Total:"), summary.Total.String(), summary.Count)
	return nil
}
