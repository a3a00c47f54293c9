package main

import (
	"fmt"
	"io"

	"book-inventory/library"

	"github.com/spf13/cobra"
)

func newListCmd(flags *cliFlags) *cobra.Command {
	var publisher string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(flags)
			if err != nil {
				return err
			}
			defer mgr.Close()
			mgr.SetPublisherFilter(publisher)
			printBooks(cmd.OutOrStdout(), mgr.VisibleBooks(), outputWidth(cmd.OutOrStdout()))
			return nil
		},
	}
	cmd.Flags().StringVar(&publisher, "publisher", "", "only list books from this publisher")
	return cmd
}

func newPublishersCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "publishers",
		Short: "List distinct publishers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(flags)
			if err != nil {
				return err
			}
			defer mgr.Close()
			for _, p := range mgr.Publishers() {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

func newLoansCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "loans",
		Short: "Show books currently on loan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(flags)
			if err != nil {
				return err
			}
			defer mgr.Close()
			printLoans(cmd.OutOrStdout(), mgr.OpenLoans().Loans())
			return nil
		},
	}
}

func newStatsCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print catalog counters for this run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(flags)
			if err != nil {
				return err
			}
			defer mgr.Close()
			return mgr.Metrics().WriteSummary(cmd.OutOrStdout())
		},
	}
}

func newResetCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the saved catalog and reload seed data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(flags)
			if err != nil {
				return err
			}
			defer mgr.Close()
			if err := mgr.Reset(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog reset to %d seed books.\n", mgr.Catalog().Len())
			return nil
		},
	}
}

// printLoans writes one line per reconciled loan.
func printLoans(w io.Writer, loans []library.LoanEntry) {
	if len(loans) == 0 {
		fmt.Fprintln(w, "No current loans")
		return
	}
	fmt.Fprintf(w, "%-25s %-40s %s\n", "Borrower", "Book Title", "Due Date")
	for _, e := range loans {
		due := "unknown"
		if t, ok := e.DueDate(); ok {
			due = t.Local().Format("2006-01-02")
		}
		fmt.Fprintf(w, "%-25s %-40s %s\n", truncateString(e.Borrower, 25), truncateString(e.BookTitle, 40), due)
	}
}
