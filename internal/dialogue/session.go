package dialogue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hackgods/conversational-booking/internal/form"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one conversation. Its form and in-form flag are never shared
// with another session.
type Session struct {
	ID        string
	InForm    bool
	Form      *form.Form
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionStore persists sessions between messages.
type SessionStore interface {
	Create(ctx context.Context) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// FormFactory builds the empty form a new or restored session starts from.
type FormFactory func() *form.Form

// sessionRecord is the stored shape of a Session.
type sessionRecord struct {
	ID        string        `json:"id"`
	InForm    bool          `json:"in_form"`
	Form      form.Snapshot `json:"form"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func toRecord(s *Session) sessionRecord {
	return sessionRecord{
		ID:        s.ID,
		InForm:    s.InForm,
		Form:      s.Form.Snapshot(),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func fromRecord(r sessionRecord, newForm FormFactory) (*Session, error) {
	f := newForm()
	if err := f.Restore(r.Form); err != nil {
		return nil, fmt.Errorf("restore session %s: %w", r.ID, err)
	}
	return &Session{
		ID:        r.ID,
		InForm:    r.InForm,
		Form:      f,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}
