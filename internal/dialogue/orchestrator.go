package dialogue

import (
	"context"
	"time"

	"github.com/hackgods/conversational-booking/internal/booking"
	"github.com/hackgods/conversational-booking/internal/form"
	"github.com/hackgods/conversational-booking/internal/intent"
	"github.com/hackgods/conversational-booking/internal/metrics"
	"github.com/hackgods/conversational-booking/internal/qa"
	"go.uber.org/zap"
)

const (
	MsgNoDocuments   = "Please upload some documents first so I can help answer your questions."
	MsgFormStarted   = "I can help schedule that. I'll need a few details."
	MsgBookingFailed = "Thanks! I have all the details and will proceed with booking."
	MsgQAFailed      = "I'm sorry, I ran into a problem answering that question. Please try again."
	msgBookedPrefix  = "Your appointment is booked. Confirmation: "
)

// Routes, as counted in metrics.
const (
	RouteNoDocuments = "no_documents"
	RouteFormStart   = "form_start"
	RouteForm        = "form"
	RouteBooking     = "booking"
	RouteQA          = "qa"
)

// Response is the reply to one message.
type Response struct {
	Answer         string                 `json:"answer"`
	Citations      []qa.Citation          `json:"citations"`
	NeedsInfo      bool                   `json:"needs_info"`
	FormPrompt     string                 `json:"form_prompt,omitempty"`
	FormComplete   bool                   `json:"form_complete,omitempty"`
	FormData       map[form.Field]*string `json:"form_data,omitempty"`
	ConfirmationID string                 `json:"confirmation_id,omitempty"`
}

// Classifier decides what a message is asking for.
type Classifier interface {
	Classify(ctx context.Context, message string) intent.Intent
}

// ParkQueue keeps bookings the sink rejected for a later replay.
type ParkQueue interface {
	Park(ctx context.Context, p booking.Parked) error
}

// Orchestrator routes each message of a session to the form or to the
// question answering engine.
type Orchestrator struct {
	classifier Classifier
	sink       booking.Sink
	qa         qa.Engine
	queue      ParkQueue
	policy     form.FinalizePolicy
	metrics    *metrics.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

type Option func(*Orchestrator)

// WithQA sets the document answering engine. Without one every question is
// answered with MsgNoDocuments.
func WithQA(engine qa.Engine) Option {
	return func(o *Orchestrator) { o.qa = engine }
}

func WithParkQueue(q ParkQueue) Option {
	return func(o *Orchestrator) { o.queue = q }
}

func WithFinalizePolicy(p form.FinalizePolicy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func NewOrchestrator(classifier Classifier, sink booking.Sink, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		classifier: classifier,
		sink:       sink,
		policy:     form.FinalizeAfterNotes,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Handle processes one message and mutates sess. The caller must not run two
// Handle calls for the same session at once.
func (o *Orchestrator) Handle(ctx context.Context, sess *Session, message string) Response {
	defer func() { sess.UpdatedAt = o.now().UTC() }()

	if !sess.InForm && !o.documentsReady(ctx) {
		o.metrics.ObserveTurn(RouteNoDocuments)
		return newResponse(MsgNoDocuments)
	}

	// Intent does not matter once the form is open.
	if sess.InForm {
		return o.continueForm(ctx, sess, message)
	}

	if o.classifier.Classify(ctx, message).StartsForm() {
		sess.InForm = true
		o.metrics.ObserveTurn(RouteFormStart)
		resp := newResponse(MsgFormStarted)
		resp.NeedsInfo = true
		resp.FormPrompt = sess.Form.Start()
		return resp
	}

	return o.answer(ctx, message)
}

// ResetForm abandons any form in progress.
func (o *Orchestrator) ResetForm(sess *Session) {
	sess.Form.Reset()
	sess.InForm = false
	sess.UpdatedAt = o.now().UTC()
}

func (o *Orchestrator) documentsReady(ctx context.Context) bool {
	return o.qa != nil && o.qa.Ready(ctx)
}

func (o *Orchestrator) continueForm(ctx context.Context, sess *Session, message string) Response {
	reply := sess.Form.Consume(message)
	if !reply.Accepted && reply.Field != "" {
		o.metrics.ObserveRejection(string(reply.Field))
	}

	if sess.Form.Finalizable(o.policy) {
		return o.finalize(ctx, sess)
	}

	o.metrics.ObserveTurn(RouteForm)
	resp := newResponse(reply.Message)
	resp.NeedsInfo = true
	resp.FormPrompt = reply.Prompt
	return resp
}

// finalize hands the collected data to the sink. The session goes back to
// question answering whatever the outcome.
func (o *Orchestrator) finalize(ctx context.Context, sess *Session) Response {
	values := sess.Form.Data()
	defer o.ResetForm(sess)

	o.metrics.ObserveTurn(RouteBooking)
	resp := newResponse(MsgBookingFailed)
	resp.FormComplete = true
	resp.FormData = values

	data, err := booking.DataFromForm(values)
	if err != nil {
		o.logger.Error("completed form is missing data", zap.String("session_id", sess.ID), zap.Error(err))
		return resp
	}
	data.SessionID = sess.ID

	id, err := o.sink.Persist(ctx, data)
	if err != nil {
		o.logger.Error("booking sink failed",
			zap.String("session_id", sess.ID),
			zap.Error(err))
		o.park(ctx, data, err)
		return resp
	}

	resp.Answer = msgBookedPrefix + id
	resp.ConfirmationID = id
	return resp
}

func (o *Orchestrator) park(ctx context.Context, data booking.Data, cause error) {
	if o.queue == nil {
		return
	}
	p := booking.Parked{Data: data, Reason: cause.Error(), ParkedAt: o.now().UTC()}
	if err := o.queue.Park(ctx, p); err != nil {
		o.logger.Error("failed to park booking",
			zap.String("session_id", data.SessionID),
			zap.Error(err))
	}
}

func (o *Orchestrator) answer(ctx context.Context, question string) Response {
	o.metrics.ObserveTurn(RouteQA)
	ans, err := o.qa.Ask(ctx, question)
	if err != nil {
		o.logger.Warn("question answering failed", zap.Error(err))
		return newResponse(MsgQAFailed)
	}
	resp := newResponse(ans.Text)
	if ans.Citations != nil {
		resp.Citations = ans.Citations
	}
	return resp
}

func newResponse(answer string) Response {
	return Response{Answer: answer, Citations: []qa.Citation{}}
}
