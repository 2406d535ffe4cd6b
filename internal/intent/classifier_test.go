package intent

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hackgods/conversational-booking/internal/llm"
	"github.com/hackgods/conversational-booking/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func constant(label string, err error) ClassifyFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		return label, err
	}
}

func TestClassifier_Primary(t *testing.T) {
	var gotPrompt string
	c := New(func(ctx context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return " contact ", nil
	})

	assert.Equal(t, ContactRequest, c.Classify(context.Background(), "ring me on my mobile"))
	assert.Contains(t, gotPrompt, "Message: ring me on my mobile")
	assert.Contains(t, gotPrompt, "qa, appointment or contact")
}

func TestClassifier_FallsBack(t *testing.T) {
	tests := []struct {
		name    string
		fn      ClassifyFunc
		message string
		want    Intent
	}{
		{"error", constant("", errors.New("quota exceeded")), "I want to book", AppointmentRequest},
		{"unknown label", constant("maybe", nil), "what is covered?", DocumentQuestion},
		{"prose label", constant("This is an appointment", nil), "schedule please", AppointmentRequest},
		{"nil func", nil, "call me", AppointmentRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.fn)
			assert.Equal(t, tt.want, c.Classify(context.Background(), tt.message))
		})
	}
}

func TestClassifier_FallbackNeverReturnsContact(t *testing.T) {
	c := New(constant("", errors.New("down")))
	for _, msg := range []string{"contact me", "call me maybe", "email me", "hello"} {
		assert.NotEqual(t, ContactRequest, c.Classify(context.Background(), msg))
	}
}

func TestClassifier_Timeout(t *testing.T) {
	slow := func(ctx context.Context, prompt string) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Second):
			return "qa", nil
		}
	}
	c := New(slow, WithTimeout(20*time.Millisecond))

	start := time.Now()
	got := c.Classify(context.Background(), "book me in")
	assert.Equal(t, AppointmentRequest, got)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestClassifier_TimeoutIgnoredByCallback(t *testing.T) {
	deaf := func(ctx context.Context, prompt string) (string, error) {
		time.Sleep(200 * time.Millisecond)
		return "contact", nil
	}
	c := New(deaf, WithTimeout(20*time.Millisecond))

	start := time.Now()
	got := c.Classify(context.Background(), "what are your hours")
	assert.Equal(t, DocumentQuestion, got)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestClassifier_BreakerOpensAndSkipsPrimary(t *testing.T) {
	var calls atomic.Int32
	failing := func(ctx context.Context, prompt string) (string, error) {
		calls.Add(1)
		return "", errors.New("unavailable")
	}
	c := New(failing)

	for i := 0; i < 5; i++ {
		assert.Equal(t, DocumentQuestion, c.Classify(context.Background(), "what are your hours"))
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestClassifier_LogsAndCounts(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	c := New(constant("nonsense", nil), WithLogger(zap.New(core)), WithMetrics(m))
	c.Classify(context.Background(), "hi")

	require.Equal(t, 1, logs.Len())
	assert.True(t, strings.Contains(logs.All()[0].Message, "keyword fallback"))

	n, err := testutil.GatherAndCount(reg, "booking_assistant_intent_classifications_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

type fakeLLM struct {
	req  llm.Request
	text string
	err  error
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	f.req = req
	return llm.Response{Text: f.text}, f.err
}

func TestFromLLM(t *testing.T) {
	client := &fakeLLM{text: "appointment"}
	c := New(FromLLM(client))

	assert.Equal(t, AppointmentRequest, c.Classify(context.Background(), "can I come in on friday"))
	require.Len(t, client.req.Messages, 1)
	assert.Equal(t, llm.RoleUser, client.req.Messages[0].Role)
	assert.Equal(t, float32(0), client.req.Temperature)
	assert.Equal(t, int32(8), client.req.MaxTokens)

	client.err = errors.New("boom")
	assert.Equal(t, DocumentQuestion, c.Classify(context.Background(), "what is the policy"))
}
