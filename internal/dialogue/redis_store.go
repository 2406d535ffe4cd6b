package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hackgods/conversational-booking/internal/form"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const DefaultSessionTTL = 24 * time.Hour

// RedisStore keeps sessions as JSON under session:<id>; every save refreshes
// the TTL.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	newForm FormFactory
	tracer  trace.Tracer
}

func NewRedisStore(client *redis.Client, ttl time.Duration, newForm FormFactory) *RedisStore {
	if client == nil {
		panic("dialogue: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if newForm == nil {
		newForm = func() *form.Form { return form.New() }
	}
	return &RedisStore{
		client:  client,
		ttl:     ttl,
		newForm: newForm,
		tracer:  otel.Tracer("conversational-booking.internal.dialogue.sessions"),
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func (s *RedisStore) Create(ctx context.Context) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "dialogue.create_session")
	defer span.End()

	now := time.Now().UTC()
	sess := &Session{ID: uuid.NewString(), Form: s.newForm(), CreatedAt: now, UpdatedAt: now}
	span.SetAttributes(attribute.String("session.id", sess.ID))

	data, err := json.Marshal(toRecord(sess))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("dialogue: marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("dialogue: create session: %w", err)
	}
	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "dialogue.load_session")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", id))

	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("dialogue: load session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("dialogue: decode session: %w", err)
	}
	return fromRecord(rec, s.newForm)
}

// Save overwrites an existing session. XX keeps an expired or deleted session
// from being resurrected.
func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	ctx, span := s.tracer.Start(ctx, "dialogue.save_session")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", sess.ID))

	data, err := json.Marshal(toRecord(sess))
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("dialogue: marshal session: %w", err)
	}
	ok, err := s.client.SetXX(ctx, sessionKey(sess.ID), data, s.ttl).Result()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("dialogue: save session: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "dialogue.delete_session")
	defer span.End()

	n, err := s.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("dialogue: delete session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}
