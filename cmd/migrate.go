package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fias-importer/internal/fias"
)

var migratePlan bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply fias schema migrations",
	Long: `Applies all pending migrations of the fias schema in one transaction.
With --plan, lists every migration and whether it is applied, without changing the schema.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		pool, err := importPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if migratePlan {
			plan, err := fias.Migrations(ctx, pool)
			if err != nil {
				return eris.Wrap(err, "fias migrate: plan")
			}
			formatMigrationPlan(cmd.OutOrStdout(), plan)
			return nil
		}

		report, err := fias.Migrate(ctx, pool)
		if err != nil {
			return eris.Wrap(err, "fias migrate")
		}
		formatMigrationReport(cmd.OutOrStdout(), report)
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migratePlan, "plan", false, "list migrations without applying them")
	rootCmd.AddCommand(migrateCmd)
}

func formatMigrationPlan(out io.Writer, plan []fias.Migration) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "VERSION\tFILE\tSTATE")
	for _, m := range plan {
		state := "pending"
		if m.Applied {
			state = "applied"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", m.Version, m.File, state)
	}
	_ = w.Flush()
}

func formatMigrationReport(out io.Writer, report *fias.MigrationReport) {
	if len(report.Applied) == 0 {
		_, _ = fmt.Fprintf(out, "schema up to date at version %d\n", report.Version)
		return
	}
	for _, m := range report.Applied {
		_, _ = fmt.Fprintf(out, "applied %s\n", m.File)
	}
	_, _ = fmt.Fprintf(out, "schema at version %d\n", report.Version)
}
