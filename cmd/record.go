package main

import (
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fias-importer/internal/api"
	"github.com/sells-group/fias-importer/internal/model"
	"github.com/sells-group/fias-importer/internal/store"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Manage address-bearing records",
}

var (
	recordID        string
	recordKind      string
	recordAddress   string
	recordHouse     int
	recordCorps     string
	recordApartment int
)

var recordSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Create or update a record, refreshing its cached address",
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := recordFromFlags(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := store.NewSaver(st).Save(ctx, rec); err != nil {
			return eris.Wrap(err, "record save")
		}
		return writeJSON(cmd.OutOrStdout(), api.NewRecordView(rec))
	},
}

var recordShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a record with its house-qualified address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return eris.Wrapf(err, "record show: parse id %q", args[0])
		}

		ctx := cmd.Context()
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		view, err := api.ShowRecord(ctx, st, id)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), view)
	},
}

func init() {
	f := recordSaveCmd.Flags()
	f.StringVar(&recordID, "id", "", "existing record ID (empty creates a new record)")
	f.StringVar(&recordKind, "kind", "", "record kind, e.g. client or warehouse (required)")
	f.StringVar(&recordAddress, "address", "", "aoguid of the address object (required)")
	f.IntVar(&recordHouse, "house", 0, "house number")
	f.StringVar(&recordCorps, "corps", "", "building letter")
	f.IntVar(&recordApartment, "apartment", 0, "apartment number")
	_ = recordSaveCmd.MarkFlagRequired("kind")
	_ = recordSaveCmd.MarkFlagRequired("address")

	recordCmd.AddCommand(recordSaveCmd, recordShowCmd)
	rootCmd.AddCommand(recordCmd)
}

func recordFromFlags(cmd *cobra.Command) (*model.Record, error) {
	guid, err := uuid.Parse(recordAddress)
	if err != nil {
		return nil, eris.Wrapf(err, "record save: parse address %q", recordAddress)
	}
	rec := &model.Record{
		Kind:        recordKind,
		AddressGUID: guid,
		House:       model.House{Corps: recordCorps},
	}
	if recordID != "" {
		id, err := uuid.Parse(recordID)
		if err != nil {
			return nil, eris.Wrapf(err, "record save: parse id %q", recordID)
		}
		rec.ID = &id
	}
	if cmd.Flags().Changed("house") {
		h := recordHouse
		rec.House.House = &h
	}
	if cmd.Flags().Changed("apartment") {
		a := recordApartment
		rec.House.Apartment = &a
	}
	if err := rec.House.Validate(); err != nil {
		return nil, eris.Wrap(err, "record save")
	}
	return rec, nil
}
