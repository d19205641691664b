package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fias-importer/internal/fias"
	"github.com/sells-group/fias-importer/internal/fias/loader"
	"github.com/sells-group/fias-importer/internal/model"
)

var (
	importDir   string
	importDelta bool
)

var importCmd = &cobra.Command{
	Use:   "import [table...]",
	Short: "Import FIAS classifier tables from CSV",
	Long: "Loads FIAS tables from <dir>/<table>.csv into the fias schema. " +
		"Without arguments every table that has a loader and a file in --dir is imported.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("import"); err != nil {
			return err
		}
		ctx := cmd.Context()

		resolver := loader.NewResolver(cfg.FIAS.LoadersPath)
		tables := selectTables(importDir, args, importDelta, resolver.Tables())
		if len(tables) == 0 {
			zap.L().Info("no tables to import", zap.String("dir", importDir))
			return nil
		}

		pool, err := importPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if _, err := fias.Migrate(ctx, pool); err != nil {
			return eris.Wrap(err, "import: migrate")
		}

		im := loader.NewImporter(pool, resolver, fias.NewImportLog(pool), loader.Options{
			BatchSize: cfg.FIAS.BatchSize,
		})
		summary, err := im.Run(ctx, tables, csvOpener(importDir, cfg.FIAS.Encoding))
		if err != nil {
			return eris.Wrap(err, "import")
		}
		if len(summary.Failed) > 0 {
			return eris.Errorf("import: %d table(s) failed: %s",
				len(summary.Failed), strings.Join(summary.Failed, ", "))
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importDir, "dir", ".", "directory holding <table>.csv files")
	importCmd.Flags().BoolVar(&importDelta, "delta", false, "treat the files as a delta archive")
	rootCmd.AddCommand(importCmd)
}

// selectTables builds the import list. Explicit names are taken as given
// (with the delta prefix forced by delta). Otherwise every known loader name
// of the matching kind whose CSV file exists in dir is selected.
func selectTables(dir string, args []string, delta bool, known []string) []model.Table {
	var tables []model.Table
	if len(args) > 0 {
		for _, a := range args {
			t := model.ParseTable(a)
			if delta && !t.IsDelta {
				t = model.NewDeltaTable(t.Name)
			}
			tables = append(tables, t)
		}
		return tables
	}

	for _, name := range known {
		t := model.ParseTable(name)
		if t.IsDelta != delta {
			continue
		}
		if _, err := os.Stat(sourcePath(dir, t)); err == nil {
			tables = append(tables, t)
		}
	}
	return tables
}

func sourcePath(dir string, t model.Table) string {
	return filepath.Join(dir, t.FullName+".csv")
}

// csvOpener opens <dir>/<full_name>.csv decoded from encoding.
func csvOpener(dir, encoding string) loader.OpenFunc {
	return func(t model.Table) (loader.Source, io.Closer, error) {
		f, err := os.Open(sourcePath(dir, t))
		if err != nil {
			return nil, nil, eris.Wrapf(err, "import: open %s", t.FullName)
		}
		src, err := loader.NewCSVSource(f, encoding)
		if err != nil {
			f.Close() //nolint:errcheck
			return nil, nil, err
		}
		return src, f, nil
	}
}
