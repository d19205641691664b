package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fias-importer/internal/address"
	"github.com/sells-group/fias-importer/internal/db"
	"github.com/sells-group/fias-importer/internal/fias"
	"github.com/sells-group/fias-importer/internal/model"
)

// PostgresStore implements Store on the fias schema, reading address
// objects from the imported classifier tables.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Close does not close it.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for the importer.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

// Migrate applies the fias schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := fias.Migrate(ctx, s.pool)
	return err
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) AddrObj(ctx context.Context, guid uuid.UUID) (*model.AddrObj, error) {
	var (
		obj   model.AddrObj
		level int16
		code  *string
		post  *string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT aoguid, parentguid, aolevel, formalname, shortname, postalcode, code
		 FROM fias.addrobj WHERE aoguid = $1`,
		guid,
	).Scan(&obj.GUID, &obj.ParentGUID, &level, &obj.FormalName, &obj.ShortName, &post, &code)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, address.ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get addrobj %s", guid)
	}
	obj.Level = model.Level(level)
	if post != nil {
		obj.PostalCode = *post
	}
	if code != nil {
		obj.Code = *code
	}
	return &obj, nil
}

func (s *PostgresStore) PutAddrObj(ctx context.Context, obj *model.AddrObj) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO fias.addrobj (aoguid, parentguid, aolevel, formalname, shortname, postalcode, code)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (aoguid) DO UPDATE SET
		   parentguid = EXCLUDED.parentguid, aolevel = EXCLUDED.aolevel,
		   formalname = EXCLUDED.formalname, shortname = EXCLUDED.shortname,
		   postalcode = EXCLUDED.postalcode, code = EXCLUDED.code`,
		obj.GUID, obj.ParentGUID, int16(obj.Level), obj.FormalName, obj.ShortName,
		nullString(obj.PostalCode), nullString(obj.Code),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: put addrobj %s", obj.GUID)
	}
	return nil
}

func (s *PostgresStore) GetRecord(ctx context.Context, id uuid.UUID) (*model.Record, error) {
	rec := model.Record{ID: &id}
	err := s.pool.QueryRow(ctx,
		`SELECT kind, address, full_address, short_address, house, corps, apartment, updated_at
		 FROM fias.address_record WHERE id = $1`,
		id,
	).Scan(&rec.Kind, &rec.AddressGUID, &rec.Address.Full, &rec.Address.Short,
		&rec.House.House, &rec.House.Corps, &rec.House.Apartment, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrRecordNotFound, "postgres: get record %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get record %s", id)
	}
	return &rec, nil
}

func (s *PostgresStore) InsertRecord(ctx context.Context, rec *model.Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO fias.address_record
		   (id, kind, address, full_address, short_address, house, corps, apartment, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		*rec.ID, rec.Kind, rec.AddressGUID, rec.Address.Full, rec.Address.Short,
		rec.House.House, rec.House.Corps, rec.House.Apartment, rec.UpdatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert record %s", rec.ID)
	}
	return nil
}

func (s *PostgresStore) UpdateRecord(ctx context.Context, rec *model.Record) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE fias.address_record
		 SET kind = $1, address = $2, full_address = $3, short_address = $4,
		     house = $5, corps = $6, apartment = $7, updated_at = $8
		 WHERE id = $9`,
		rec.Kind, rec.AddressGUID, rec.Address.Full, rec.Address.Short,
		rec.House.House, rec.House.Corps, rec.House.Apartment, rec.UpdatedAt, *rec.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update record %s", rec.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrRecordNotFound, "postgres: update record %s", rec.ID)
	}
	return nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
