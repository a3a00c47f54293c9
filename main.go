package main

import (
	"fmt"
	"os"

	"book-inventory/library"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliFlags are the settings shared by every command.
type cliFlags struct {
	cfg       library.Config
	ephemeral bool
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{cfg: library.LoadConfig()}

	root := &cobra.Command{
		Use:           "bookshelf",
		Short:         "Catalog books and track who borrowed them",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager(flags)
			if err != nil {
				return err
			}
			defer mgr.Close()
			return newShell(cmd.InOrStdin(), cmd.OutOrStdout(), mgr).run()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.cfg.DBPath, "db", flags.cfg.DBPath, "path to the SQLite database")
	pf.StringVar(&flags.cfg.StorageKey, "key", flags.cfg.StorageKey, "storage key holding the catalog")
	pf.StringVar(&flags.cfg.LogLevel, "log-level", flags.cfg.LogLevel, "log level (debug, info, warn, error)")
	pf.StringVar(&flags.cfg.SeedFile, "seed", flags.cfg.SeedFile, "seed JSON used when no catalog is saved")
	pf.BoolVar(&flags.ephemeral, "ephemeral", false, "keep the catalog in memory only")

	root.AddCommand(
		newListCmd(flags),
		newPublishersCmd(flags),
		newLoansCmd(flags),
		newStatsCmd(flags),
		newResetCmd(flags),
	)
	return root
}

// openManager builds a LibraryManager from the resolved flags.
func openManager(flags *cliFlags) (*library.LibraryManager, error) {
	opts := library.Options{
		Logger:     library.NewLogger(os.Stderr, flags.cfg.LogLevel),
		StorageKey: flags.cfg.StorageKey,
	}
	if flags.cfg.SeedFile != "" {
		seed, err := library.LoadSeedFile(flags.cfg.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("load seed file: %w", err)
		}
		opts.Seed = seed
	}

	if flags.ephemeral {
		return library.NewLibraryManagerWithStorage(library.NewMemoryStorage(), opts), nil
	}
	mgr, err := library.NewLibraryManager(flags.cfg.DBPath, opts)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return mgr, nil
}
