package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dentalportal/internal/booking"
	"dentalportal/internal/calendar"
	"dentalportal/internal/models"

	"github.com/mattn/go-sqlite3"
)

var _ booking.Store = (*DB)(nil)

const bookingColumns = `id, date, time, appointment_type_id, practitioner_id, reason, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (db *DB) scanBooking(row rowScanner) (models.Booking, error) {
	var (
		b       models.Booking
		date    string
		at      string
		status  string
		created time.Time
		updated time.Time
	)
	if err := row.Scan(&b.ID, &date, &at, &b.AppointmentTypeID, &b.PractitionerID, &b.Reason, &status, &created, &updated); err != nil {
		return models.Booking{}, err
	}

	d, err := time.ParseInLocation(calendar.DateLayout, date, db.loc)
	if err != nil {
		return models.Booking{}, fmt.Errorf("booking %s: bad date %q: %w", b.ID, date, err)
	}
	t, err := calendar.ParseTimeOfDay(at)
	if err != nil {
		return models.Booking{}, fmt.Errorf("booking %s: bad time %q: %w", b.ID, at, err)
	}

	b.Date = d
	b.Time = t
	b.Status = models.BookingStatus(status)
	b.CreatedAt = created
	b.UpdatedAt = updated
	return b, nil
}

// Insert adds a scheduled booking. The partial unique index rejects a second
// scheduled booking on the same slot.
func (db *DB) Insert(ctx context.Context, b models.Booking) (models.Booking, error) {
	now := db.now().UTC()
	b.Status = models.StatusScheduled
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := db.ExecContext(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.DateString(), b.Time.String(), b.AppointmentTypeID, b.PractitionerID,
		b.Reason, string(b.Status), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return models.Booking{}, db.mapWriteError(ctx, db.DB, err, b.Slot())
	}
	return b, nil
}

// Replace overwrites an active booking in a single transaction.
func (db *DB) Replace(ctx context.Context, id string, b models.Booking) (models.Booking, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return models.Booking{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := db.scanBooking(tx.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ? AND status = ?`,
		id, string(models.StatusScheduled),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, &booking.NotFoundError{ID: id}
	}
	if err != nil {
		return models.Booking{}, fmt.Errorf("load booking: %w", err)
	}

	b.ID = id
	b.Status = models.StatusScheduled
	b.CreatedAt = current.CreatedAt
	b.UpdatedAt = db.now().UTC()

	_, err = tx.ExecContext(ctx, `
		UPDATE bookings
		SET date = ?, time = ?, appointment_type_id = ?, practitioner_id = ?, reason = ?, updated_at = ?
		WHERE id = ?`,
		b.DateString(), b.Time.String(), b.AppointmentTypeID, b.PractitionerID, b.Reason, b.UpdatedAt, id,
	)
	if err != nil {
		return models.Booking{}, db.mapWriteError(ctx, tx, err, b.Slot())
	}

	if err := tx.Commit(); err != nil {
		return models.Booking{}, fmt.Errorf("commit: %w", err)
	}
	return b, nil
}

// Cancel marks an active booking cancelled.
func (db *DB) Cancel(ctx context.Context, id string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(models.StatusCancelled), db.now().UTC(), id, string(models.StatusScheduled),
	)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &booking.NotFoundError{ID: id}
	}
	return nil
}

// Get returns an active booking by id.
func (db *DB) Get(ctx context.Context, id string) (models.Booking, error) {
	b, err := db.scanBooking(db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ? AND status = ?`,
		id, string(models.StatusScheduled),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, &booking.NotFoundError{ID: id}
	}
	return b, err
}

// ListActive returns scheduled bookings in insertion order.
func (db *DB) ListActive(ctx context.Context) ([]models.Booking, error) {
	return db.listBookings(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE status = ? ORDER BY rowid`, string(models.StatusScheduled))
}

// ListAll returns every booking in insertion order.
func (db *DB) ListAll(ctx context.Context) ([]models.Booking, error) {
	return db.listBookings(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY rowid`)
}

func (db *DB) listBookings(ctx context.Context, query string, args ...interface{}) ([]models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.Booking
	for rows.Next() {
		b, err := db.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

// IsSlotBooked reports whether the practitioner's slot holds a scheduled booking.
func (db *DB) IsSlotBooked(ctx context.Context, practitionerID string, date time.Time, at calendar.TimeOfDay) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE date = ? AND time = ? AND practitioner_id = ? AND status = ?`,
		date.Format(calendar.DateLayout), at.String(), practitionerID, string(models.StatusScheduled),
	).Scan(&count)
	return count > 0, err
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// mapWriteError turns SQLite constraint violations into booking errors.
func (db *DB) mapWriteError(ctx context.Context, q queryer, err error, slot models.SlotKey) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return fmt.Errorf("write booking: %w", err)
	}

	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique:
		var holder string
		_ = q.QueryRowContext(ctx,
			`SELECT id FROM bookings WHERE date = ? AND time = ? AND practitioner_id = ? AND status = ?`,
			slot.Date, slot.Time.String(), slot.PractitionerID, string(models.StatusScheduled),
		).Scan(&holder)
		return &booking.ConflictError{Slot: slot, HeldBy: holder}
	case sqlite3.ErrConstraintPrimaryKey:
		return &booking.ValidationError{Field: "id", Reason: "duplicate booking id"}
	}
	return fmt.Errorf("write booking: %w", err)
}
