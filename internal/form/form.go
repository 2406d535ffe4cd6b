package form

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hackgods/conversational-booking/internal/dateparse"
)

var (
	ErrInvalidSnapshot = errors.New("invalid form snapshot")
	ErrUnknownPolicy   = errors.New("unknown finalize policy")
)

type Stage string

const (
	StageNotStarted         Stage = "not_started"
	StageCollectingRequired Stage = "collecting_required"
	StageCollectingOptional Stage = "collecting_optional"
	StageComplete           Stage = "complete"
)

// FinalizePolicy decides when a form is ready to be turned into a booking.
type FinalizePolicy string

const (
	// FinalizeAfterNotes waits until the optional notes question was answered.
	FinalizeAfterNotes FinalizePolicy = "after_notes"
	// FinalizeRequiredOnly books as soon as every required field is set.
	FinalizeRequiredOnly FinalizePolicy = "required_only"
)

func ParseFinalizePolicy(s string) (FinalizePolicy, error) {
	switch FinalizePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FinalizeAfterNotes:
		return FinalizeAfterNotes, nil
	case FinalizeRequiredOnly:
		return FinalizeRequiredOnly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

const (
	msgDateUnparsed   = "I couldn't parse a date/time. Please try something like 'tomorrow 3pm' or 'next Monday 10:30'."
	msgDateTooFar     = "Please choose a date within the next two years."
	msgRequiredDone   = "Great, I have your details."
	msgAlreadyDone    = "Thanks! I have all the information I need."
	defaultMaxAheadYr = 2
)

// DateExtractor resolves free text into a date relative to ref.
type DateExtractor interface {
	Extract(text string, ref time.Time) (dateparse.Expression, error)
}

// Reply is the outcome of feeding one answer to the form. Prompt is the next
// question to ask, empty once nothing is left to collect.
type Reply struct {
	Field    Field
	Accepted bool
	Message  string
	Prompt   string
}

// Text joins the message and the follow-up prompt for display.
func (r Reply) Text() string {
	switch {
	case r.Prompt == "":
		return r.Message
	case r.Message == "":
		return r.Prompt
	}
	return r.Message + " " + r.Prompt
}

// Form collects the booking fields one at a time. A Form belongs to a single
// session and is not safe for concurrent use.
type Form struct {
	stage  Stage
	index  int
	values map[Field]string

	extractor DateExtractor
	now       func() time.Time
	maxYears  int
}

type Option func(*Form)

// WithClock sets the reference clock used to resolve relative dates.
func WithClock(now func() time.Time) Option {
	return func(f *Form) { f.now = now }
}

func WithDateExtractor(e DateExtractor) Option {
	return func(f *Form) { f.extractor = e }
}

// WithMaxYearsAhead bounds how far in the future a preferred date may be.
// Zero disables the bound.
func WithMaxYearsAhead(years int) Option {
	return func(f *Form) { f.maxYears = years }
}

func New(opts ...Option) *Form {
	f := &Form{
		stage:     StageNotStarted,
		values:    make(map[Field]string),
		extractor: dateparse.New(),
		now:       time.Now,
		maxYears:  defaultMaxAheadYr,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Form) Stage() Stage { return f.stage }

// CurrentField returns the field the next answer is for.
func (f *Form) CurrentField() (Field, bool) {
	switch f.stage {
	case StageNotStarted:
		return RequiredFields[0], true
	case StageCollectingRequired:
		return RequiredFields[f.index], true
	case StageCollectingOptional:
		return FieldNotes, true
	}
	return "", false
}

// Start begins collection and returns the first prompt. Starting a form that
// is already in progress repeats the current prompt without losing answers.
func (f *Form) Start() string {
	if f.stage == StageNotStarted {
		f.stage = StageCollectingRequired
		f.index = 0
	}
	if field, ok := f.CurrentField(); ok {
		return Prompt(field)
	}
	return msgAlreadyDone
}

// Consume validates answer against the current field. Accepted answers are
// stored and the form advances; rejected ones leave the state untouched and
// the same field is asked again.
func (f *Form) Consume(answer string) Reply {
	if f.stage == StageNotStarted {
		f.Start()
	}

	field, ok := f.CurrentField()
	if !ok {
		return Reply{Message: msgAlreadyDone}
	}

	res := f.validate(field, answer)
	if !res.Accepted {
		return Reply{Field: field, Message: res.Message, Prompt: Prompt(field)}
	}
	f.values[field] = res.Value

	if field == FieldNotes {
		f.stage = StageComplete
		return Reply{Field: field, Accepted: true, Message: acknowledge(field)}
	}

	f.index++
	if f.index < len(RequiredFields) {
		return Reply{
			Field:    field,
			Accepted: true,
			Message:  acknowledge(field),
			Prompt:   Prompt(RequiredFields[f.index]),
		}
	}

	f.stage = StageCollectingOptional
	return Reply{Field: field, Accepted: true, Message: msgRequiredDone, Prompt: Prompt(FieldNotes)}
}

func (f *Form) validate(field Field, answer string) ValidationResult {
	if field != FieldPreferredDatetime {
		return Validate(field, answer)
	}

	now := f.now()
	expr, err := f.extractor.Extract(answer, now)
	if err != nil {
		return Reject(msgDateUnparsed)
	}

	var maxAhead time.Duration
	if f.maxYears > 0 {
		maxAhead = now.AddDate(f.maxYears, 0, 0).Sub(now)
	}
	switch err := dateparse.ValidateRange(expr, now, maxAhead); {
	case errors.Is(err, dateparse.ErrDateInPast):
		return Reject(fmt.Sprintf("That date has already passed. How about %s?", dateparse.Suggestions(now)[0]))
	case errors.Is(err, dateparse.ErrDateTooFar):
		return Reject(msgDateTooFar)
	case err != nil:
		return Reject(msgDateUnparsed)
	}
	return Accept(expr.Date())
}

// IsComplete reports whether every required field holds a value.
func (f *Form) IsComplete() bool {
	for _, field := range RequiredFields {
		if _, ok := f.values[field]; !ok {
			return false
		}
	}
	return true
}

// Finalizable reports whether the form is ready for booking under p.
func (f *Form) Finalizable(p FinalizePolicy) bool {
	if p == FinalizeRequiredOnly {
		return f.IsComplete()
	}
	return f.stage == StageComplete
}

// Data returns a copy of every field; unset fields map to nil.
func (f *Form) Data() map[Field]*string {
	out := make(map[Field]*string, len(AllFields))
	for _, field := range AllFields {
		if v, ok := f.values[field]; ok {
			v := v
			out[field] = &v
		} else {
			out[field] = nil
		}
	}
	return out
}

// Value returns the stored value of field.
func (f *Form) Value(field Field) (string, bool) {
	v, ok := f.values[field]
	return v, ok
}

// Reset clears all values and returns the form to not_started.
func (f *Form) Reset() {
	f.stage = StageNotStarted
	f.index = 0
	f.values = make(map[Field]string)
}

// Snapshot is the serialisable state of a form.
type Snapshot struct {
	Stage  Stage            `json:"stage"`
	Index  int              `json:"index"`
	Values map[Field]string `json:"values,omitempty"`
}

func (f *Form) Snapshot() Snapshot {
	values := make(map[Field]string, len(f.values))
	for k, v := range f.values {
		values[k] = v
	}
	return Snapshot{Stage: f.stage, Index: f.index, Values: values}
}

// Restore replaces the form state with s after checking that it is
// consistent with the collection order.
func (f *Form) Restore(s Snapshot) error {
	if err := s.validate(); err != nil {
		return err
	}
	values := make(map[Field]string, len(s.Values))
	for k, v := range s.Values {
		values[k] = v
	}
	f.stage = s.Stage
	f.index = s.Index
	f.values = values
	return nil
}

func (s Snapshot) validate() error {
	for field := range s.Values {
		if !field.Valid() {
			return fmt.Errorf("%w: unknown field %q", ErrInvalidSnapshot, field)
		}
	}

	var filled int
	switch s.Stage {
	case StageNotStarted:
		filled = 0
	case StageCollectingRequired:
		if s.Index < 0 || s.Index >= len(RequiredFields) {
			return fmt.Errorf("%w: index %d out of range", ErrInvalidSnapshot, s.Index)
		}
		filled = s.Index
	case StageCollectingOptional, StageComplete:
		filled = len(RequiredFields)
	default:
		return fmt.Errorf("%w: unknown stage %q", ErrInvalidSnapshot, s.Stage)
	}

	for i, field := range RequiredFields {
		_, ok := s.Values[field]
		if ok != (i < filled) {
			return fmt.Errorf("%w: field %q does not match stage %q", ErrInvalidSnapshot, field, s.Stage)
		}
	}
	if _, ok := s.Values[FieldNotes]; ok && s.Stage != StageComplete {
		return fmt.Errorf("%w: notes set before completion", ErrInvalidSnapshot)
	}
	return nil
}

func (f *Form) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Snapshot())
}

func (f *Form) UnmarshalJSON(data []byte) error {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if f.values == nil {
		*f = *New()
	}
	return f.Restore(s)
}
