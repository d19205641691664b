package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fias-importer/internal/fias"
	"github.com/sells-group/fias-importer/internal/fias/loader"
	"github.com/sells-group/fias-importer/internal/model"
)

var statusStale time.Duration

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the import log",
	Long: "Displays the import history for all FIAS tables. With --stale, lists the " +
		"tables not imported successfully within the given age and exits non-zero if any.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := importPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		importLog := fias.NewImportLog(pool)
		if statusStale > 0 {
			var tables []string
			for _, name := range loader.NewResolver(cfg.FIAS.LoadersPath).Tables() {
				if !model.ParseTable(name).IsDelta {
					tables = append(tables, name)
				}
			}
			stale, err := importLog.Stale(ctx, tables, statusStale, time.Now().UTC())
			if err != nil {
				return eris.Wrap(err, "fias status")
			}
			formatStale(os.Stdout, stale)
			if len(stale) > 0 {
				return eris.Errorf("fias status: %d table(s) stale", len(stale))
			}
			return nil
		}

		entries, err := importLog.ListAll(ctx)
		if err != nil {
			return eris.Wrap(err, "fias status")
		}

		if len(entries) == 0 {
			zap.L().Info("no import entries found, run 'fias import' to load tables")
			return nil
		}

		formatStatusEntries(os.Stdout, entries)
		return nil
	},
}

func init() {
	statusCmd.Flags().DurationVar(&statusStale, "stale", 0, "report tables without a successful import in this period (e.g. 720h)")
	rootCmd.AddCommand(statusCmd)
}

// formatStatusEntries writes a tabular representation of import entries to w.
func formatStatusEntries(out io.Writer, entries []fias.ImportEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTABLE\tSTATUS\tSTARTED\tDURATION\tROWS\tERROR")
	_, _ = fmt.Fprintln(w, "--\t-----\t------\t-------\t--------\t----\t-----")

	for _, e := range entries {
		dur := "-"
		if e.CompletedAt != nil {
			dur = e.CompletedAt.Sub(e.StartedAt).Round(time.Second).String()
		}

		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			e.ID,
			e.Table,
			e.Status,
			e.StartedAt.Format("2006-01-02 15:04"),
			dur,
			e.RowsLoaded,
			truncate(e.Error, 60),
		)
	}
	_ = w.Flush()
}

func formatStale(out io.Writer, stale []fias.Staleness) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TABLE\tLAST SUCCESS\tAGE")
	for _, s := range stale {
		last, age := "never", "-"
		if s.LastSuccess != nil {
			last = s.LastSuccess.Format("2006-01-02 15:04")
			age = s.Age.Round(time.Hour).String()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", s.Table, last, age)
	}
	_ = w.Flush()
}

// truncate shortens s to at most max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
