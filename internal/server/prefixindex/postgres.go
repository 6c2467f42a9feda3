package prefixindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/recviewer/internal/dbx"
	"github.com/dmitrijs2005/recviewer/internal/server/migrations"
)

// PostgresRepository reads and writes session_prefixes over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the stored prefix for a folder, or sql.ErrNoRows.
func (r *PostgresRepository) Get(ctx context.Context, org, device, folderName string) (string, error) {
	query := `SELECT prefix FROM session_prefixes WHERE org=$1 AND device=$2 AND folder_name=$3`

	var prefix string
	if err := r.db.QueryRowContext(ctx, query, org, device, folderName).Scan(&prefix); err != nil {
		return "", err
	}
	return prefix, nil
}

// Upsert inserts or refreshes one entry.
func (r *PostgresRepository) Upsert(ctx context.Context, e Entry) error {
	query := `
		INSERT INTO session_prefixes (org, device, folder_name, prefix, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (org, device, folder_name)
		DO UPDATE SET prefix = EXCLUDED.prefix, updated_at = now();
	`
	if _, err := r.db.ExecContext(ctx, query, e.Org, e.Device, e.FolderName, e.Prefix); err != nil {
		return fmt.Errorf("upsert session prefix: %w", err)
	}
	return nil
}

// PostgresIndex is an Index persisted in Postgres so that resolutions survive
// restarts and are shared between server replicas.
type PostgresIndex struct {
	db *sql.DB
}

func NewPostgresIndex(db *sql.DB) *PostgresIndex {
	return &PostgresIndex{db: db}
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open connects through the pgx stdlib driver.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations.
func (i *PostgresIndex) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, i.db, ".")
}

func (i *PostgresIndex) Lookup(ctx context.Context, org, device, folderName string) (string, bool, error) {
	p, err := NewPostgresRepository(i.db).Get(ctx, org, device, folderName)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup session prefix: %w", err)
	}
	return p, true, nil
}

// Record upserts all entries in a single transaction.
func (i *PostgresIndex) Record(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return dbx.WithTx(ctx, i.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewPostgresRepository(tx)
		for _, e := range entries {
			if err := repo.Upsert(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
}
