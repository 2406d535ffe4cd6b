package booking

import "context"

// Repository is the relational mirror of the journal.
type Repository interface {
	// CreateBooking stores the record and its BOOKING_CREATED event atomically.
	CreateBooking(ctx context.Context, rec Record, sessionID string) error
	GetBooking(ctx context.Context, id string) (*Record, error)
	ListRecent(ctx context.Context, limit int) ([]Record, error)
	InsertEvent(ctx context.Context, ev EventLog) error
}
