package qa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hackgods/conversational-booking/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	req  llm.Request
	text string
	err  error
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	f.req = req
	return llm.Response{Text: f.text}, f.err
}

func seededStore(t *testing.T) *MemoryDocumentStore {
	t.Helper()
	s := NewMemoryDocumentStore()
	_, err := s.Add(context.Background(), "hours.txt", "The clinic is open Monday to Friday.\n\nParking is free for patients.")
	require.NoError(t, err)
	_, err = s.Add(context.Background(), "refunds.md", "Refunds are issued within 30 days of a cancelled treatment.")
	require.NoError(t, err)
	return s
}

func TestLLMEngine_Ready(t *testing.T) {
	e := NewLLMEngine(NewMemoryDocumentStore(), &fakeLLM{})
	assert.False(t, e.Ready(context.Background()))

	e = NewLLMEngine(seededStore(t), &fakeLLM{})
	assert.True(t, e.Ready(context.Background()))
}

func TestLLMEngine_AskRanksPassages(t *testing.T) {
	client := &fakeLLM{text: "Refunds take up to 30 days."}
	e := NewLLMEngine(seededStore(t), client, WithTopK(2))

	ans, err := e.Ask(context.Background(), "How do refunds work for a cancelled treatment?")
	require.NoError(t, err)
	assert.Equal(t, "Refunds take up to 30 days.", ans.Text)
	require.Len(t, ans.Citations, 2)
	assert.Equal(t, "refunds.md", ans.Citations[0].SourceID)
	assert.Equal(t, "hours.txt", ans.Citations[1].SourceID)

	require.Len(t, client.req.Messages, 1)
	prompt := client.req.Messages[0].Content
	assert.True(t, strings.HasPrefix(prompt, "Context from documents:\nRefunds are issued"))
	assert.True(t, strings.HasSuffix(prompt, "Question: How do refunds work for a cancelled treatment?"))
	assert.Equal(t, []string{systemPrompt}, client.req.System)
}

func TestLLMEngine_Errors(t *testing.T) {
	_, err := NewLLMEngine(NewMemoryDocumentStore(), &fakeLLM{}).Ask(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNoDocuments)

	boom := errors.New("model overloaded")
	_, err = NewLLMEngine(seededStore(t), &fakeLLM{err: boom}).Ask(context.Background(), "parking?")
	assert.ErrorIs(t, err, boom)
}

func TestExcerpt(t *testing.T) {
	short := strings.Repeat("a", excerptLimit)
	assert.Equal(t, short, excerpt(short))

	long := strings.Repeat("é", excerptLimit+1)
	got := excerpt(long)
	assert.Equal(t, strings.Repeat("é", excerptLimit)+"...", got)
}

func TestSplitPassages_WindowsLongParagraphs(t *testing.T) {
	long := strings.Repeat("x", 2100)
	passages := splitPassages([]Document{{Name: "big.txt", Content: long + "\r\n\r\nshort tail"}})

	require.Len(t, passages, 4)
	assert.Len(t, passages[0].text, chunkSize)
	assert.Equal(t, long[chunkSize-chunkOverlap:2*chunkSize-chunkOverlap], passages[1].text)
	assert.Equal(t, long[1600:], passages[2].text)
	assert.Equal(t, "short tail", passages[3].text)
}

func TestTopPassages_TiesKeepOrder(t *testing.T) {
	in := []passage{
		{source: "a", text: "nothing relevant"},
		{source: "b", text: "parking details"},
		{source: "c", text: "more nothing"},
	}
	got := topPassages("where is parking", in, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].source)
	assert.Equal(t, "a", got[1].source)
}
