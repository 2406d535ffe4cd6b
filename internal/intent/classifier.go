package intent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hackgods/conversational-booking/internal/llm"
	"github.com/hackgods/conversational-booking/internal/metrics"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	SourcePrimary  = "primary"
	SourceFallback = "fallback"

	DefaultTimeout = 5 * time.Second
)

var ErrUnknownLabel = errors.New("intent: unrecognised label")

const classificationPrompt = `Classify the user's message into exactly one category.

qa: a question about the uploaded documents or general information.
appointment: the user wants to book, schedule or reserve an appointment or meeting.
contact: the user wants to be called, emailed or otherwise contacted.

Reply with only the label: qa, appointment or contact.

Message: %s`

// ClassifyFunc sends a prompt to an external classifier and returns its raw
// label.
type ClassifyFunc func(ctx context.Context, prompt string) (string, error)

// FromLLM adapts an LLM client into a ClassifyFunc.
func FromLLM(client llm.Client) ClassifyFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		req := llm.Prompt("", prompt)
		req.MaxTokens = 8
		req.Temperature = 0
		resp, err := client.Complete(ctx, req)
		if err != nil {
			return "", err
		}
		return resp.Text, nil
	}
}

// Classifier routes messages with an external classifier and falls back to
// KeywordFallback whenever that call fails, times out, or returns an unknown
// label. Classify never returns an error.
type Classifier struct {
	classify ClassifyFunc
	timeout  time.Duration
	breaker  *gobreaker.CircuitBreaker
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

type Option func(*Classifier)

func WithTimeout(d time.Duration) Option {
	return func(c *Classifier) { c.timeout = d }
}

func WithBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(c *Classifier) { c.breaker = cb }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Classifier) { c.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Classifier) { c.logger = l }
}

// New returns a classifier. A nil fn makes every call use the keyword
// fallback.
func New(fn ClassifyFunc, opts ...Option) *Classifier {
	c := &Classifier{
		classify: fn,
		timeout:  DefaultTimeout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = NewBreaker(DefaultBreakerConfig("intent-classifier", c.logger))
	}
	return c
}

func (c *Classifier) Classify(ctx context.Context, message string) Intent {
	if c.classify == nil {
		return c.fallback(message, nil)
	}

	label, err := c.callPrimary(ctx, message)
	if err != nil {
		return c.fallback(message, err)
	}
	i, ok := ParseLabel(label)
	if !ok {
		return c.fallback(message, fmt.Errorf("%w: %q", ErrUnknownLabel, label))
	}
	c.metrics.ObserveClassification(string(i), SourcePrimary)
	return i
}

func (c *Classifier) callPrimary(ctx context.Context, message string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return Execute(c.breaker, func() (string, error) {
		return c.await(ctx, fmt.Sprintf(classificationPrompt, message))
	})
}

type classifyResult struct {
	label string
	err   error
}

// await runs the classify call but stops waiting once ctx is done, whether or
// not the call itself honours ctx.
func (c *Classifier) await(ctx context.Context, prompt string) (string, error) {
	done := make(chan classifyResult, 1)
	go func() {
		label, err := c.classify(ctx, prompt)
		done <- classifyResult{label: label, err: err}
	}()
	select {
	case r := <-done:
		return r.label, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("classifier: %w", ctx.Err())
	}
}

func (c *Classifier) fallback(message string, cause error) Intent {
	i := KeywordFallback(message)
	if cause != nil {
		c.logger.Warn("intent classifier failed, using keyword fallback",
			zap.Error(cause),
			zap.String("intent", string(i)))
	}
	c.metrics.ObserveClassification(string(i), SourceFallback)
	return i
}
