package main

import (
	"fmt"
	"os"

	"github.com/fwojciec/analyst"
	"github.com/fwojciec/analyst/config"
	"github.com/fwojciec/analyst/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSeedCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "seed [pattern]",
		Short: "Import CSV fixtures into the SQLite store",
		Long: `Imports every CSV file matching the doublestar pattern as a table named
after the file, replacing existing tables of the same name. The pattern is
relative to --dir.`,
		Example: `  analyst seed 'data/*.csv'
  analyst seed --dir fixtures '**/*.csv'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Store.Driver != config.DriverSQLite {
				return fmt.Errorf("seed needs the sqlite store driver, have %q: %w", a.cfg.Store.Driver, analyst.ErrValidation)
			}
			db, err := a.db(a.cfg.Store.Path)
			if err != nil {
				return err
			}
			results, err := sqlite.Seed(cmd.Context(), db, os.DirFS(dir), args[0])
			out := cmd.OutOrStdout()
			for _, r := range results {
				fmt.Fprintf(out, "%s <- %s (%d rows)\n", r.Table, r.File, r.Rows)
				a.logger.Info("table seeded", zap.String("table", r.Table), zap.Int("rows", r.Rows))
			}
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintf(out, "no CSV files match %q in %s\n", args[0], dir)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory the pattern is relative to")
	return cmd
}
