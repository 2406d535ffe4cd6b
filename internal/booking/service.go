package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hackgods/conversational-booking/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Service is the booking sink. The journal write is authoritative; the
// optional relational mirror is best effort.
type Service struct {
	journal *Journal
	repo    Repository
	ids     *IDGenerator
	metrics *metrics.Metrics
	logger  *zap.Logger
	tracer  trace.Tracer
}

type Option func(*Service)

// WithRepository mirrors every journaled booking into repo.
func WithRepository(repo Repository) Option {
	return func(s *Service) { s.repo = repo }
}

func WithIDGenerator(g *IDGenerator) Option {
	return func(s *Service) { s.ids = g }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func NewService(journal *Journal, opts ...Option) *Service {
	s := &Service{
		journal: journal,
		ids:     NewIDGenerator(nil),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("conversational-booking.internal.booking")
	}
	return s
}

// Persist writes the booking and returns its confirmation id.
func (s *Service) Persist(ctx context.Context, d Data) (string, error) {
	ctx, span := s.tracer.Start(ctx, "booking.persist")
	defer span.End()

	if err := d.Validate(); err != nil {
		span.RecordError(err)
		s.metrics.ObserveBooking("invalid")
		return "", err
	}

	id, created := s.ids.Next()
	rec := newRecord(id, created, d)
	span.SetAttributes(attribute.String("booking.id", id))

	if err := s.journal.Append(rec); err != nil {
		span.RecordError(err)
		s.metrics.ObserveBooking("failed")
		return "", fmt.Errorf("append booking %s: %w", id, err)
	}

	if s.repo != nil {
		if err := s.repo.CreateBooking(ctx, rec, d.SessionID); err != nil {
			span.RecordError(err)
			s.logger.Error("failed to mirror booking to postgres",
				zap.String("booking_id", id),
				zap.Error(err))
		}
	}

	s.metrics.ObserveBooking("persisted")
	s.logger.Info("booking persisted",
		zap.String("booking_id", id),
		zap.String("session_id", d.SessionID))
	return id, nil
}

// Get looks a booking up in the relational mirror.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	if s.repo == nil {
		return nil, ErrBookingNotFound
	}
	rec, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return rec, nil
}

// Replay persists a previously parked booking and records the replay event.
func (s *Service) Replay(ctx context.Context, p Parked) (string, error) {
	id, err := s.Persist(ctx, p.Data)
	if err != nil {
		return "", err
	}
	if s.repo != nil {
		bookingID := id
		payload, _ := json.Marshal(map[string]any{
			"parked_at": p.ParkedAt.UTC(),
			"reason":    p.Reason,
		})
		if err := s.repo.InsertEvent(ctx, EventLog{
			EventType: EventBookingReplayed,
			BookingID: &bookingID,
			Payload:   payload,
			CreatedAt: time.Now(),
		}); err != nil {
			s.logger.Warn("failed to insert replay event", zap.String("booking_id", id), zap.Error(err))
		}
	}
	return id, nil
}
