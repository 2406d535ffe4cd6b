package api

import (
	"context"
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hackgods/conversational-booking/internal/booking"
	"github.com/hackgods/conversational-booking/internal/dialogue"
	"github.com/hackgods/conversational-booking/internal/qa"
)

// SessionService is the conversation surface the handlers drive.
type SessionService interface {
	StartSession(ctx context.Context) (*dialogue.Session, error)
	GetSession(ctx context.Context, id string) (*dialogue.Session, error)
	EndSession(ctx context.Context, id string) error
	Send(ctx context.Context, id, message string) (dialogue.Response, error)
	ResetForm(ctx context.Context, id string) (*dialogue.Session, error)
}

type BookingLookup interface {
	Get(ctx context.Context, id string) (*booking.Record, error)
}

type handlers struct {
	sessions  SessionService
	documents qa.DocumentStore
	bookings  BookingLookup
	logger    *zap.Logger
}

func (h *handlers) createSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.StartSession(r.Context())
	if err != nil {
		h.handleSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateSessionResponse{SessionID: sess.ID})
}

func (h *handlers) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(sess))
}

func (h *handlers) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.sessions.Send(r.Context(), chi.URLParam(r, "id"), *req.Message)
	if err != nil {
		h.handleSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) resetForm(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.ResetForm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(sess))
}

func (h *handlers) endSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.EndSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleSessionError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) uploadDocument(w http.ResponseWriter, r *http.Request) {
	var req UploadDocumentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if !utf8.ValidString(req.Content) {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported_document", "only plain text documents are accepted")
		return
	}

	doc, err := h.documents.Add(r.Context(), req.Name, req.Content)
	if err != nil {
		if errors.Is(err, qa.ErrEmptyDocument) {
			writeError(w, http.StatusBadRequest, "empty_document", err.Error())
			return
		}
		h.internalError(w, r, "failed to store document", err)
		return
	}
	writeJSON(w, http.StatusCreated, DocumentResponse{ID: doc.ID.String(), Name: doc.Name, CreatedAt: doc.CreatedAt})
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	n, err := h.documents.Count(r.Context())
	if err != nil {
		h.internalError(w, r, "failed to count documents", err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{HasDocuments: n > 0, DocumentCount: n})
}

func (h *handlers) getBooking(w http.ResponseWriter, r *http.Request) {
	rec, err := h.bookings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, booking.ErrBookingNotFound) {
			writeError(w, http.StatusNotFound, "booking_not_found", err.Error())
			return
		}
		h.internalError(w, r, "failed to load booking", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handlers) handleSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, dialogue.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, dialogue.ErrSessionBusy):
		writeError(w, http.StatusConflict, "session_busy", "another message for this session is still being handled, please retry shortly")
	default:
		h.internalError(w, r, "session operation failed", err)
	}
}

func (h *handlers) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", msg)
}

func sessionResponse(s *dialogue.Session) SessionResponse {
	resp := SessionResponse{
		SessionID: s.ID,
		InForm:    s.InForm,
		Stage:     s.Form.Stage(),
		FormData:  s.Form.Data(),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.InForm {
		resp.CurrentField, _ = s.Form.CurrentField()
	}
	return resp
}
