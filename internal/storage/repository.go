// Package storage is the SQLite record source used for local development and
// the admin CLI.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"exitviz/internal/models"

	_ "modernc.org/sqlite"
)

// SQLiteRepository reads and writes exits in a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens the database at dbPath, creating its directory,
// and applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the database.
func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ExitsBetween returns members whose exit date falls in (first, last].
func (r *SQLiteRepository) ExitsBetween(ctx context.Context, first, last time.Time) ([]models.ExitRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date_of_exit, exit_destination
		FROM members
		WHERE date_of_exit > ? AND date_of_exit <= ?
		ORDER BY date_of_exit
	`, first.Format(models.DateLayout), last.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("query exits: %w", err)
	}
	defer rows.Close()

	var exits []models.ExitRow
	for rows.Next() {
		var (
			id, date string
			e        models.ExitRow
		)
		if err := rows.Scan(&id, &date, &e.ExitDestination); err != nil {
			return nil, fmt.Errorf("scan exit: %w", err)
		}
		if e.MemberID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse member id %q: %w", id, err)
		}
		if e.DateOfExit, err = time.Parse(models.DateLayout, date); err != nil {
			return nil, fmt.Errorf("parse exit date %q: %w", date, err)
		}
		exits = append(exits, e)
	}
	return exits, rows.Err()
}

// InsertExit stores a member exit. A nil MemberID is replaced with a new id.
func (r *SQLiteRepository) InsertExit(ctx context.Context, e *models.ExitRow) error {
	if e.DateOfExit.IsZero() {
		return models.ErrMissingExitDate
	}
	if e.MemberID == uuid.Nil {
		e.MemberID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO members (id, date_of_exit, exit_destination)
		VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET date_of_exit = excluded.date_of_exit, exit_destination = excluded.exit_destination
	`, e.MemberID.String(), e.DateOfExit.Format(models.DateLayout), e.ExitDestination)
	if err != nil {
		return fmt.Errorf("insert exit: %w", err)
	}
	return nil
}

// CountMembers returns the number of member rows.
func (r *SQLiteRepository) CountMembers(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

// SeedDevExits inserts generated exits when the table is empty and returns
// the number of rows inserted.
func (r *SQLiteRepository) SeedDevExits(ctx context.Context, reference time.Time, days int) (int, error) {
	n, err := r.CountMembers(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO members (id, date_of_exit, exit_destination) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare seed: %w", err)
	}
	defer stmt.Close()

	exits := models.SampleExits(reference, days)
	for _, e := range exits {
		if _, err := stmt.ExecContext(ctx, e.MemberID.String(), e.DateOfExit.Format(models.DateLayout), e.ExitDestination); err != nil {
			return 0, fmt.Errorf("seed exit: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return len(exits), nil
}
