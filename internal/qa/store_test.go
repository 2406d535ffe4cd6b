package qa

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDocumentStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDocumentStore()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = s.Add(ctx, "empty.txt", "  \n")
	assert.ErrorIs(t, err, ErrEmptyDocument)

	first, err := s.Add(ctx, "faq.txt", "Opening hours are 9 to 5.")
	require.NoError(t, err)
	_, err = s.Add(ctx, "policy.md", "Refunds within 30 days.")
	require.NoError(t, err)

	replaced, err := s.Add(ctx, "faq.txt", "Opening hours are 8 to 6.")
	require.NoError(t, err)
	assert.Equal(t, first.ID, replaced.ID)

	docs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Opening hours are 8 to 6.", docs[0].Content)

	docs[0].Content = "mutated"
	again, _ := s.List(ctx)
	assert.Equal(t, "Opening hours are 8 to 6.", again[0].Content)
}

var documentColumns = []string{"id", "name", "content", "created_at"}

func TestPgDocumentStore_Add(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	now := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(pgxmock.AnyArg(), "faq.txt", "Opening hours are 9 to 5.").
		WillReturnRows(pgxmock.NewRows(documentColumns).AddRow(id, "faq.txt", "Opening hours are 9 to 5.", now))

	store := NewPgDocumentStore(mock)
	doc, err := store.Add(context.Background(), "faq.txt", "Opening hours are 9 to 5.")
	require.NoError(t, err)
	assert.Equal(t, id, doc.ID)
	assert.Equal(t, now, doc.CreatedAt)

	_, err = store.Add(context.Background(), "blank.txt", " ")
	assert.ErrorIs(t, err, ErrEmptyDocument)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgDocumentStore_ListAndCount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("FROM documents").
		WillReturnRows(pgxmock.NewRows(documentColumns).
			AddRow(uuid.New(), "a.txt", "alpha", now).
			AddRow(uuid.New(), "b.txt", "beta", now))
	mock.ExpectQuery("SELECT count").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))

	store := NewPgDocumentStore(mock)
	docs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "b.txt", docs[1].Name)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgDocumentStore_CountError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT count").WillReturnError(boom)

	_, err = NewPgDocumentStore(mock).Count(context.Background())
	assert.ErrorIs(t, err, boom)
}
