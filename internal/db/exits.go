package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"exitviz/internal/models"
)

// ExitsBetween returns members whose exit date falls in (first, last].
// Members without an exit date are never returned.
func (d *DB) ExitsBetween(ctx context.Context, first, last time.Time) ([]models.ExitRow, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT id, date_of_exit, exit_destination
		FROM members
		WHERE date_of_exit > $1 AND date_of_exit <= $2
		ORDER BY date_of_exit
	`, models.Day(first), models.Day(last))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exits []models.ExitRow
	for rows.Next() {
		var e models.ExitRow
		if err := rows.Scan(&e.MemberID, &e.DateOfExit, &e.ExitDestination); err != nil {
			return nil, err
		}
		e.DateOfExit = models.Day(e.DateOfExit)
		exits = append(exits, e)
	}
	return exits, rows.Err()
}

// InsertExit stores a member exit. A nil MemberID is replaced with a new id.
func (d *DB) InsertExit(ctx context.Context, e *models.ExitRow) error {
	if e.DateOfExit.IsZero() {
		return models.ErrMissingExitDate
	}
	if e.MemberID == uuid.Nil {
		e.MemberID = uuid.New()
	}
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO members (id, date_of_exit, exit_destination)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET date_of_exit = EXCLUDED.date_of_exit, exit_destination = EXCLUDED.exit_destination
	`, e.MemberID, models.Day(e.DateOfExit), e.ExitDestination)
	return err
}

// CountMembers returns the number of member rows.
func (d *DB) CountMembers(ctx context.Context) (int, error) {
	var n int
	err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM members`).Scan(&n)
	return n, err
}

// SeedDevExits inserts generated exits for development. Skips seeding when
// the members table already has rows. Returns the number of rows inserted.
func (d *DB) SeedDevExits(ctx context.Context, reference time.Time, days int) (int, error) {
	n, err := d.CountMembers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	exits := models.SampleExits(reference, days)
	err = pgx.BeginFunc(ctx, d.Pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, e := range exits {
			batch.Queue(`
				INSERT INTO members (id, date_of_exit, exit_destination)
				VALUES ($1, $2, $3)
			`, e.MemberID, e.DateOfExit, e.ExitDestination)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return 0, fmt.Errorf("failed to seed exits: %w", err)
	}
	return len(exits), nil
}
