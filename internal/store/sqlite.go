package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/fias-importer/internal/address"
	"github.com/sells-group/fias-importer/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It keeps its own
// copy of the address hierarchy, filled through PutAddrObj.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS addrobj (
	aoguid     TEXT PRIMARY KEY,
	parentguid TEXT,
	aolevel    INTEGER NOT NULL,
	formalname TEXT NOT NULL,
	shortname  TEXT NOT NULL DEFAULT '',
	postalcode TEXT NOT NULL DEFAULT '',
	code       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS address_record (
	id            TEXT PRIMARY KEY,
	kind          TEXT NOT NULL,
	address       TEXT NOT NULL,
	full_address  TEXT NOT NULL DEFAULT '',
	short_address TEXT NOT NULL DEFAULT '',
	house         INTEGER,
	corps         TEXT NOT NULL DEFAULT '',
	apartment     INTEGER,
	updated_at    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_addrobj_parentguid ON addrobj(parentguid);
CREATE INDEX IF NOT EXISTS idx_address_record_address ON address_record(address);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) AddrObj(ctx context.Context, guid uuid.UUID) (*model.AddrObj, error) {
	var (
		obj    model.AddrObj
		parent sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT aoguid, parentguid, aolevel, formalname, shortname, postalcode, code
		 FROM addrobj WHERE aoguid = ?`,
		guid.String(),
	).Scan(&obj.GUID, &parent, &obj.Level, &obj.FormalName, &obj.ShortName, &obj.PostalCode, &obj.Code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, address.ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get addrobj %s", guid)
	}
	if parent.Valid && parent.String != "" {
		p, err := uuid.Parse(parent.String)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: addrobj %s parentguid", guid)
		}
		obj.ParentGUID = &p
	}
	return &obj, nil
}

func (s *SQLiteStore) PutAddrObj(ctx context.Context, obj *model.AddrObj) error {
	var parent any
	if obj.ParentGUID != nil {
		parent = obj.ParentGUID.String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO addrobj (aoguid, parentguid, aolevel, formalname, shortname, postalcode, code)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (aoguid) DO UPDATE SET
		   parentguid = excluded.parentguid, aolevel = excluded.aolevel,
		   formalname = excluded.formalname, shortname = excluded.shortname,
		   postalcode = excluded.postalcode, code = excluded.code`,
		obj.GUID.String(), parent, int(obj.Level), obj.FormalName, obj.ShortName, obj.PostalCode, obj.Code,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: put addrobj %s", obj.GUID)
	}
	return nil
}

func (s *SQLiteStore) GetRecord(ctx context.Context, id uuid.UUID) (*model.Record, error) {
	rec := model.Record{ID: &id}
	var updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT kind, address, full_address, short_address, house, corps, apartment, updated_at
		 FROM address_record WHERE id = ?`,
		id.String(),
	).Scan(&rec.Kind, &rec.AddressGUID, &rec.Address.Full, &rec.Address.Short,
		&rec.House.House, &rec.House.Corps, &rec.House.Apartment, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrRecordNotFound, "sqlite: get record %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get record %s", id)
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		rec.UpdatedAt = t
	}
	return &rec, nil
}

func (s *SQLiteStore) InsertRecord(ctx context.Context, rec *model.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO address_record
		   (id, kind, address, full_address, short_address, house, corps, apartment, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.Kind, rec.AddressGUID.String(), rec.Address.Full, rec.Address.Short,
		rec.House.House, rec.House.Corps, rec.House.Apartment, rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert record %s", rec.ID)
	}
	return nil
}

func (s *SQLiteStore) UpdateRecord(ctx context.Context, rec *model.Record) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE address_record
		 SET kind = ?, address = ?, full_address = ?, short_address = ?,
		     house = ?, corps = ?, apartment = ?, updated_at = ?
		 WHERE id = ?`,
		rec.Kind, rec.AddressGUID.String(), rec.Address.Full, rec.Address.Short,
		rec.House.House, rec.House.Corps, rec.House.Apartment, rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
		rec.ID.String(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update record %s", rec.ID)
	}
	return checkRowsAffected(res, rec.ID.String())
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrRecordNotFound, "sqlite: update record %s", id)
	}
	return nil
}
