package main

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"book-inventory/library"

	"github.com/spf13/cobra"
)

func main() {
	if err := newImportCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newImportCmd() *cobra.Command {
	cfg := library.LoadConfig()
	var fresh bool

	cmd := &cobra.Command{
		Use:          "import_books <seed.json>",
		Short:        "Append seed-format book descriptors to the saved catalog",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			seed, err := library.LoadSeedFile(args[0])
			if err != nil {
				return fmt.Errorf("read seed file: %w", err)
			}

			if fresh {
				// Clean up any existing database files
				fmt.Fprintln(out, "Cleaning up existing database files...")
				for _, file := range []string{cfg.DBPath, cfg.DBPath + "-shm", cfg.DBPath + "-wal"} {
					if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
						fmt.Fprintf(out, "Warning: Could not remove %s: %v\n", file, err)
					}
				}
			}

			// A fresh database starts empty instead of with the embedded seed.
			opts := library.Options{
				Logger:     library.NewLogger(os.Stderr, cfg.LogLevel),
				StorageKey: cfg.StorageKey,
				Seed:       []library.SeedBook{},
			}
			manager, err := library.NewLibraryManager(cfg.DBPath, opts)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer manager.Close()

			catalog := manager.Catalog()
			fmt.Fprintf(out, "Importing %d book(s) from %s...\n", len(seed), args[0])
			for _, s := range seed {
				b := catalog.Add(s.Fields())
				fmt.Fprintf(out, "Imported: %s by %s (ID: %s)\n", b.Title, b.Author, b.ID)
			}

			fmt.Fprintf(out, "\nImport complete! Catalog now holds %d book(s).\n", catalog.Len())
			fmt.Fprintf(out, "%-36s %-50s %-30s\n", "ID", "Title", "Author")
			fmt.Fprintln(out, strings.Repeat("-", 118))
			for _, book := range catalog.Books() {
				fmt.Fprintf(out, "%-36s %-50s %-30s\n", book.ID, truncateString(book.Title, 50), truncateString(book.Author, 30))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the SQLite database")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "delete the existing database before importing")
	return cmd
}

func truncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
