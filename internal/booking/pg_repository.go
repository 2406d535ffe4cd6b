package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hackgods/conversational-booking/internal/db"
	"github.com/jackc/pgx/v5"
)

type PgRepository struct {
	db db.DBTX
}

func NewPgRepository(conn db.DBTX) *PgRepository {
	return &PgRepository{db: conn}
}

func scanBooking(row pgx.Row) (*Record, error) {
	var r Record
	var created time.Time

	err := row.Scan(
		&r.ID,
		&r.Name,
		&r.Phone,
		&r.Email,
		&r.PreferredDatetime,
		&r.Notes,
		&created,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	r.CreatedUTC = created.UTC().Format(createdLayout)
	return &r, nil
}

func (r *PgRepository) CreateBooking(ctx context.Context, rec Record, sessionID string) error {
	created, err := time.Parse(createdLayout, rec.CreatedUTC)
	if err != nil {
		return fmt.Errorf("parse created_utc: %w", err)
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO bookings (id, name, phone, email, preferred_datetime, notes, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rec.ID, rec.Name, rec.Phone, rec.Email, rec.PreferredDatetime, rec.Notes, nullableString(sessionID), created); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO event_logs (event_type, booking_id, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`, EventBookingCreated, rec.ID, payload, created); err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) GetBooking(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, phone, email, preferred_datetime, notes, created_at
		FROM bookings
		WHERE id = $1
	`, id)
	return scanBooking(row)
}

func (r *PgRepository) ListRecent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, name, phone, email, preferred_datetime, notes, created_at
		FROM bookings
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		rec, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO event_logs (event_type, booking_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.BookingID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
