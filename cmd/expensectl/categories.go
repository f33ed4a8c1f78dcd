package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"expensebot/internal/cli"
	"expensebot/internal/services"
)

func (a *app) categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Inspect the expense category vocabulary",
	}
	cmd.AddCommand(a.listCategoriesCmd())
	return cmd
}

func (a *app) listCategoriesCmd() *cobra.Command {
	var csv bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories in vocabulary order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			cfg, logger, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := cli.OpenBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			// No cache for a one-shot command.
			categories := services.NewCategoryService(store.Store, 0, logger)
			out := cmd.OutOrStdout()

			if csv {
				line, err := categories.CategoriesCSV(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, line)
				return nil
			}

			cats, err := categories.ListCategories(ctx)
			if err != nil {
				return err
			}
			if len(cats) == 0 {
				fmt.Fprintln(out, subtleStyle.Render("No categories found. Run 'expensectl migrate' first."))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\n", headerStyle.Render("ID"), headerStyle.Render("Name"))
			fmt.Fprintf(w, "%s\t%s\n", strings.Repeat("-", 4), strings.Repeat("-", 20))
			for _, c := range cats {
				fmt.Fprintf(w, "%d\t%s\n", c.ID, c.Name)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&csv, "csv", false, "print the comma separated list the classifier prompt uses")
	return cmd
}
