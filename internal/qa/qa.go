package qa

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoDocuments      = errors.New("no documents loaded")
	ErrDocumentNotFound = errors.New("document not found")
	ErrEmptyDocument    = errors.New("document is empty")
)

// Citation points at the passage an answer was drawn from.
type Citation struct {
	SourceID string `json:"source"`
	Excerpt  string `json:"content"`
}

type Answer struct {
	Text      string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// Engine answers questions about the loaded documents.
type Engine interface {
	// Ready reports whether any documents are available.
	Ready(ctx context.Context) bool
	Ask(ctx context.Context, question string) (Answer, error)
}

type Document struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentStore holds plain-text source documents. Adding a document with a
// name that already exists replaces its content.
type DocumentStore interface {
	Add(ctx context.Context, name, content string) (Document, error)
	List(ctx context.Context) ([]Document, error)
	Count(ctx context.Context) (int, error)
}
