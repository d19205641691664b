package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/fias-importer/internal/fias/loader"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List importable tables and the loader set serving each",
	RunE: func(cmd *cobra.Command, args []string) error {
		formatTables(cmd.OutOrStdout(), loader.NewResolver(cfg.FIAS.LoadersPath))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tablesCmd)
}

func formatTables(out io.Writer, r *loader.Resolver) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TABLE\tLOADERS")
	_, _ = fmt.Fprintln(w, "-----\t-------")
	for _, name := range r.Tables() {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", name, r.Origin(name))
	}
	_ = w.Flush()
}
