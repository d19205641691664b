package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/fias-importer/internal/api"
	"github.com/sells-group/fias-importer/internal/model"
	"github.com/sells-group/fias-importer/internal/store"
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Inspect and seed the address hierarchy",
}

var addressShowCmd = &cobra.Command{
	Use:   "show <aoguid>",
	Short: "Print the materialized address of an address object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		guid, err := uuid.Parse(args[0])
		if err != nil {
			return eris.Wrapf(err, "address show: parse guid %q", args[0])
		}

		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		view, err := api.ShowAddress(ctx, st, guid)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), view)
	},
}

var addressLoadCmd = &cobra.Command{
	Use:   "load <file.yaml>",
	Short: "Upsert address objects from a YAML list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrap(err, "address load: open")
		}
		defer f.Close() //nolint:errcheck

		n, err := loadAddrObjs(ctx, st, f)
		if err != nil {
			return err
		}
		zap.L().Info("address objects loaded", zap.Int("count", n), zap.String("file", args[0]))
		return nil
	},
}

func init() {
	addressCmd.AddCommand(addressShowCmd, addressLoadCmd)
	rootCmd.AddCommand(addressCmd)
}

func loadAddrObjs(ctx context.Context, st store.Store, r io.Reader) (int, error) {
	var objs []model.AddrObj
	if err := yaml.NewDecoder(r).Decode(&objs); err != nil {
		return 0, eris.Wrap(err, "address load: decode yaml")
	}
	for i := range objs {
		if err := st.PutAddrObj(ctx, &objs[i]); err != nil {
			return i, err
		}
	}
	return len(objs), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
