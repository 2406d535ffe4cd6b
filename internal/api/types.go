package api

import (
	"time"

	"github.com/hackgods/conversational-booking/internal/form"
)

type SendMessageRequest struct {
	// Pointer so a missing field is rejected while "" still skips notes.
	Message *string `json:"message" validate:"required,max=4000"`
}

type UploadDocumentRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Content string `json:"content" validate:"required,max=1000000"`
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

type SessionResponse struct {
	SessionID    string                 `json:"session_id"`
	InForm       bool                   `json:"in_form"`
	Stage        form.Stage             `json:"stage"`
	CurrentField form.Field             `json:"current_field,omitempty"`
	FormData     map[form.Field]*string `json:"form_data"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

type DocumentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type StatusResponse struct {
	HasDocuments  bool `json:"has_documents"`
	DocumentCount int  `json:"document_count"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  []ValidationError `json:"fields,omitempty"`
}
