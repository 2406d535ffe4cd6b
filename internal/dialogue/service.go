package dialogue

import (
	"context"
	"errors"
	"time"

	redisclient "github.com/hackgods/conversational-booking/internal/redis"
	"go.uber.org/zap"
)

var ErrSessionBusy = errors.New("session is handling another message")

// saveTimeout bounds the final write of a turn. The write is detached from
// the turn's context so an expensive turn still records its outcome.
const saveTimeout = 5 * time.Second

type saveError struct{ err error }

func (e *saveError) Error() string { return "save session: " + e.err.Error() }
func (e *saveError) Unwrap() error { return e.err }

// Locker serialises work per session.
type Locker interface {
	WithSessionLock(ctx context.Context, sessionID string, fn func(ctx context.Context) error) error
}

// Service loads a session, runs one message through the orchestrator under
// the session lock, and saves the result.
type Service struct {
	store  SessionStore
	locker Locker
	orch   *Orchestrator
}

func NewService(store SessionStore, locker Locker, orch *Orchestrator) *Service {
	return &Service{store: store, locker: locker, orch: orch}
}

func (s *Service) StartSession(ctx context.Context) (*Session, error) {
	return s.store.Create(ctx)
}

func (s *Service) GetSession(ctx context.Context, id string) (*Session, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) EndSession(ctx context.Context, id string) error {
	return s.withSession(ctx, id, func(ctx context.Context, _ *Session) (bool, error) {
		return false, s.store.Delete(ctx, id)
	})
}

// Send handles one user message for session id. Once a completed form has
// been handed to the sink the response is returned even if the session
// cannot be saved, so the caller never loses a confirmation.
func (s *Service) Send(ctx context.Context, id, message string) (Response, error) {
	var resp Response
	err := s.withSession(ctx, id, func(ctx context.Context, sess *Session) (bool, error) {
		resp = s.orch.Handle(ctx, sess, message)
		return true, nil
	})
	var se *saveError
	if errors.As(err, &se) && resp.FormComplete {
		s.orch.logger.Error("booking finalized but session was not saved",
			zap.String("session_id", id),
			zap.String("confirmation_id", resp.ConfirmationID),
			zap.Error(se.err))
		return resp, nil
	}
	return resp, err
}

// ResetForm abandons the form in progress for session id.
func (s *Service) ResetForm(ctx context.Context, id string) (*Session, error) {
	var out *Session
	err := s.withSession(ctx, id, func(ctx context.Context, sess *Session) (bool, error) {
		s.orch.ResetForm(sess)
		out = sess
		return true, nil
	})
	return out, err
}

func (s *Service) withSession(ctx context.Context, id string, fn func(ctx context.Context, sess *Session) (save bool, err error)) error {
	err := s.locker.WithSessionLock(ctx, id, func(lockCtx context.Context) error {
		sess, err := s.store.Get(lockCtx, id)
		if err != nil {
			return err
		}
		save, err := fn(lockCtx, sess)
		if err != nil || !save {
			return err
		}
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(lockCtx), saveTimeout)
		defer cancel()
		if err := s.store.Save(saveCtx, sess); err != nil {
			return &saveError{err: err}
		}
		return nil
	})
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrSessionBusy
	}
	return err
}
