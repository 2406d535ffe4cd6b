package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hackgods/conversational-booking/internal/db"
	"github.com/jackc/pgx/v5"
)

type PgDocumentStore struct {
	db db.DBTX
}

func NewPgDocumentStore(conn db.DBTX) *PgDocumentStore {
	return &PgDocumentStore{db: conn}
}

func scanDocument(row pgx.Row) (Document, error) {
	var d Document
	if err := row.Scan(&d.ID, &d.Name, &d.Content, &d.CreatedAt); err != nil {
		return Document{}, err
	}
	return d, nil
}

func (s *PgDocumentStore) Add(ctx context.Context, name, content string) (Document, error) {
	if strings.TrimSpace(content) == "" {
		return Document{}, ErrEmptyDocument
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO documents (id, name, content, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (name) DO UPDATE SET content = EXCLUDED.content
		RETURNING id, name, content, created_at
	`, uuid.New(), name, content)

	doc, err := scanDocument(row)
	if err != nil {
		return Document{}, fmt.Errorf("insert document: %w", err)
	}
	return doc, nil
}

func (s *PgDocumentStore) List(ctx context.Context) ([]Document, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, content, created_at
		FROM documents
		ORDER BY created_at, name
	`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var result []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *PgDocumentStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}
