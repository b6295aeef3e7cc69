// Package store exports a type catalog into MySQL so that it can be queried
// and compared across target builds.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dbsmedya/rttidump/internal/catalog"
	"github.com/dbsmedya/rttidump/internal/config"
	"github.com/dbsmedya/rttidump/internal/lock"
	"github.com/dbsmedya/rttidump/internal/logger"
	"github.com/dbsmedya/rttidump/internal/sqlutil"
	"github.com/dbsmedya/rttidump/internal/verifier"
)

// DefaultBatchSize is the number of rows per INSERT statement.
const DefaultBatchSize = 500

// ErrNoCatalogName is returned when the store has no catalog name.
var ErrNoCatalogName = errors.New("store: catalog name is required")

// Store writes catalogs into the rtti_* tables. All rows of one import
// carry the store's catalog name, and an import replaces the rows a
// previous import of the same name left behind.
type Store struct {
	db          *sql.DB
	catalogName string
	batchSize   int
	verify      verifier.VerificationMethod
	lockTimeout int
	logger      *logger.Logger
}

// ImportStats summarizes one import.
type ImportStats struct {
	Catalog      string
	RowsPerTable map[string]int64
	Deleted      int64
	Verify       *verifier.VerifyStats
}

// New creates a Store for the configured catalog.
func New(db *sql.DB, cfg *config.DatabaseConfig, log *logger.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if cfg.CatalogName == "" {
		return nil, ErrNoCatalogName
	}
	if log == nil {
		log = logger.NewNop()
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	return &Store{
		db:          db,
		catalogName: cfg.CatalogName,
		batchSize:   batch,
		verify:      verifier.VerificationMethod(cfg.Verify),
		lockTimeout: lock.TimeoutShort,
		logger:      log,
	}, nil
}

// CatalogName returns the name rows are keyed by.
func (s *Store) CatalogName() string {
	return s.catalogName
}

// Import writes cat under the store's catalog name. It holds the catalog's
// advisory lock for the whole import, replaces the rows inside a single
// transaction and verifies the stored row counts after commit.
func (s *Store) Import(ctx context.Context, cat *catalog.Catalog) (*ImportStats, error) {
	rows := Flatten(s.catalogName, cat.Entries())

	// Named locks belong to the session; pin one connection for the import.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	stats := &ImportStats{
		Catalog:      s.catalogName,
		RowsPerTable: make(map[string]int64, len(Tables)),
	}

	l := lock.NewCatalogLock(conn, s.catalogName)
	err = l.WithLock(ctx, s.lockTimeout, func() error {
		if err := s.ensureSchema(ctx, conn); err != nil {
			return err
		}
		if err := s.replace(ctx, conn, rows, stats); err != nil {
			return err
		}

		v, err := verifier.NewVerifier(conn, s.catalogName, s.verify, s.logger)
		if err != nil {
			return err
		}
		stats.Verify, err = v.Verify(ctx, rows.Expectations())
		return err
	})
	if err != nil {
		return stats, fmt.Errorf("import of catalog %q failed: %w", s.catalogName, err)
	}

	s.logger.Infow("catalog imported",
		"catalog", s.catalogName,
		"types", stats.RowsPerTable[TypesTable],
		"rows", rows.Len(),
	)
	return stats, nil
}

// EnsureSchema creates the catalog tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.ensureSchema(ctx, s.db)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) ensureSchema(ctx context.Context, db execer) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", Tables[i], err)
		}
	}
	return nil
}

// replace deletes the catalog's old rows and inserts the new ones in one
// transaction.
func (s *Store) replace(ctx context.Context, conn *sql.Conn, rows Rows, stats *ImportStats) error {
	s.logger.Debug("Starting catalog transaction")
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if tx != nil {
			s.logger.Warn("Rolling back catalog transaction due to error or panic")
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Errorf("Failed to rollback transaction: %v", rbErr)
			}
		}
	}()

	for _, table := range Tables {
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE %s = ?", sqlutil.QuoteIdentifier(table), sqlutil.QuoteIdentifier("catalog")),
			s.catalogName,
		)
		if err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		stats.Deleted += n
	}

	for _, table := range Tables {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("import interrupted: %w", err)
		}
		n, err := s.insert(ctx, tx, table, rows[table])
		if err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
		stats.RowsPerTable[table] = n
		s.logger.WithTable(table).Debugf("Inserted %d rows", n)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil
	return nil
}

// insert writes rows with multi-row INSERT statements of at most batchSize rows.
func (s *Store) insert(ctx context.Context, tx *sql.Tx, table string, rows [][]any) (int64, error) {
	cols := Columns(table)
	var inserted int64
	for start := 0; start < len(rows); start += s.batchSize {
		end := min(start+s.batchSize, len(rows))
		batch := rows[start:end]

		args := make([]any, 0, len(batch)*len(cols))
		for _, row := range batch {
			args = append(args, row...)
		}
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
			sqlutil.QuoteIdentifier(table), sqlutil.ColumnList(cols), sqlutil.Placeholders(len(batch), len(cols)))

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return inserted, err
		}
		n, _ := res.RowsAffected()
		inserted += n
	}
	return inserted, nil
}
