package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/ironsheep/chart-ohlc/internal/export"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect batch runs stored in SQLite",
	Long: `Inspect runs written by "batch -f sqlite".

Subcommands:
  list  - List stored runs, oldest first
  show  - Print the results of one run as JSON

The database defaults to results.db inside the configured output directory.

Examples:
  chart-ohlc runs list
  chart-ohlc runs show 01HZX3... --db out/results.db`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the results of a run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsDBPath string

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)

	runsCmd.PersistentFlags().StringVarP(&runsDBPath, "db", "d", "", "path to the SQLite result database (default <output.dir>/results.db)")
}

func openRunStore() (*export.SQLiteStore, error) {
	path := runsDBPath
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(cfg.Output.Dir, export.SQLiteFile)
	}
	// NewSQLiteStore would create an empty database
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no result database at %s: %w", path, err)
	}
	store, err := export.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return store, nil
}

func runRunsList(cmd *cobra.Command, args []string) error {
	store, err := openRunStore()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context())
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs stored")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tCREATED\tIMAGES\tSOURCE")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Images, r.Source)
	}
	return w.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	store, err := openRunStore()
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.LoadRun(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("load run: %w", err)
	}
	return export.WriteJSON(cmd.OutOrStdout(), results)
}
