package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hackgods/conversational-booking/internal/form"
)

const (
	EventBookingCreated  = "BOOKING_CREATED"
	EventBookingReplayed = "BOOKING_REPLAYED"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrIncompleteData  = errors.New("booking data is incomplete")
)

// createdLayout matches the journal's historical created_utc format.
const createdLayout = "2006-01-02T15:04:05.000000"

// Data is what the form collected.
type Data struct {
	Name              string `json:"name"`
	Phone             string `json:"phone"`
	Email             string `json:"email"`
	PreferredDatetime string `json:"preferred_datetime"`
	Notes             string `json:"notes,omitempty"`
	SessionID         string `json:"session_id,omitempty"`
}

// DataFromForm copies the form values, failing when a required one is unset.
func DataFromForm(values map[form.Field]*string) (Data, error) {
	get := func(f form.Field) string {
		if v := values[f]; v != nil {
			return *v
		}
		return ""
	}
	for _, f := range form.RequiredFields {
		if values[f] == nil {
			return Data{}, fmt.Errorf("%w: missing %s", ErrIncompleteData, f)
		}
	}
	return Data{
		Name:              get(form.FieldName),
		Phone:             get(form.FieldPhone),
		Email:             get(form.FieldEmail),
		PreferredDatetime: get(form.FieldPreferredDatetime),
		Notes:             get(form.FieldNotes),
	}, nil
}

func (d Data) Validate() error {
	switch {
	case d.Name == "":
		return fmt.Errorf("%w: missing name", ErrIncompleteData)
	case d.Phone == "":
		return fmt.Errorf("%w: missing phone", ErrIncompleteData)
	case d.Email == "":
		return fmt.Errorf("%w: missing email", ErrIncompleteData)
	case d.PreferredDatetime == "":
		return fmt.Errorf("%w: missing preferred_datetime", ErrIncompleteData)
	}
	return nil
}

// Record is one line of the booking journal.
type Record struct {
	ID                string  `json:"id"`
	CreatedUTC        string  `json:"created_utc"`
	Name              string  `json:"name"`
	Phone             string  `json:"phone"`
	Email             string  `json:"email"`
	PreferredDatetime string  `json:"preferred_datetime"`
	Notes             *string `json:"notes"`
}

func newRecord(id string, created time.Time, d Data) Record {
	rec := Record{
		ID:                id,
		CreatedUTC:        created.UTC().Format(createdLayout),
		Name:              d.Name,
		Phone:             d.Phone,
		Email:             d.Email,
		PreferredDatetime: d.PreferredDatetime,
	}
	if d.Notes != "" {
		notes := d.Notes
		rec.Notes = &notes
	}
	return rec
}

type EventLog struct {
	ID        int64
	EventType string
	BookingID *string
	Payload   []byte
	CreatedAt time.Time
}

// Sink persists a finished booking and returns its confirmation id.
type Sink interface {
	Persist(ctx context.Context, d Data) (string, error)
}
