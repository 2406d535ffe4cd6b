package qa

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/hackgods/conversational-booking/internal/llm"
	"github.com/hackgods/conversational-booking/internal/metrics"
	"go.uber.org/zap"
)

const (
	defaultTopK       = 4
	chunkSize         = 1000
	chunkOverlap      = 200
	excerptLimit      = 200
	defaultAskTimeout = 30 * time.Second
)

const systemPrompt = `You are a helpful AI assistant that can answer questions based on the provided documents and help users with appointment booking.

Instructions:
1. If the question can be answered using the provided context, give a comprehensive answer based on the documents.
2. If the user asks you to call them, contact them, or wants to book an appointment, respond that you'd be happy to help and ask for their contact information (name, phone number, and email).
3. Be conversational and helpful.
4. If you cannot answer based on the context, say so politely.`

// LLMEngine answers questions by picking the passages that share the most
// terms with the question and handing them to a language model as context.
type LLMEngine struct {
	store   DocumentStore
	client  llm.Client
	topK    int
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

type EngineOption func(*LLMEngine)

func WithTopK(k int) EngineOption {
	return func(e *LLMEngine) { e.topK = k }
}

func WithAskTimeout(d time.Duration) EngineOption {
	return func(e *LLMEngine) { e.timeout = d }
}

func WithEngineMetrics(m *metrics.Metrics) EngineOption {
	return func(e *LLMEngine) { e.metrics = m }
}

func WithEngineLogger(l *zap.Logger) EngineOption {
	return func(e *LLMEngine) { e.logger = l }
}

func NewLLMEngine(store DocumentStore, client llm.Client, opts ...EngineOption) *LLMEngine {
	e := &LLMEngine{
		store:   store,
		client:  client,
		topK:    defaultTopK,
		timeout: defaultAskTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *LLMEngine) Ready(ctx context.Context) bool {
	n, err := e.store.Count(ctx)
	if err != nil {
		e.logger.Warn("document count failed", zap.Error(err))
		return false
	}
	return n > 0
}

func (e *LLMEngine) Ask(ctx context.Context, question string) (Answer, error) {
	start := time.Now()
	answer, err := e.ask(ctx, question)
	status := "ok"
	if err != nil {
		status = "error"
	}
	e.metrics.ObserveQA(status, time.Since(start))
	return answer, err
}

func (e *LLMEngine) ask(ctx context.Context, question string) (Answer, error) {
	docs, err := e.store.List(ctx)
	if err != nil {
		return Answer{}, fmt.Errorf("load documents: %w", err)
	}
	if len(docs) == 0 {
		return Answer{}, ErrNoDocuments
	}

	passages := topPassages(question, splitPassages(docs), e.topK)

	var sb strings.Builder
	sb.WriteString("Context from documents:\n")
	for i, p := range passages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(p.text)
	}
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(question)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req := llm.Prompt(systemPrompt, sb.String())
	req.Temperature = 0
	resp, err := e.client.Complete(ctx, req)
	if err != nil {
		return Answer{}, fmt.Errorf("complete: %w", err)
	}

	citations := make([]Citation, 0, len(passages))
	for _, p := range passages {
		citations = append(citations, Citation{SourceID: p.source, Excerpt: excerpt(p.text)})
	}
	return Answer{Text: resp.Text, Citations: citations}, nil
}

type passage struct {
	source string
	text   string
	order  int
	score  int
}

// splitPassages breaks documents on blank lines; paragraphs longer than
// chunkSize runes become overlapping windows.
func splitPassages(docs []Document) []passage {
	var out []passage
	for _, d := range docs {
		for _, para := range strings.Split(strings.ReplaceAll(d.Content, "\r\n", "\n"), "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			for _, chunk := range window([]rune(para)) {
				out = append(out, passage{source: d.Name, text: chunk, order: len(out)})
			}
		}
	}
	return out
}

func window(r []rune) []string {
	if len(r) <= chunkSize {
		return []string{string(r)}
	}
	var chunks []string
	for start := 0; start < len(r); start += chunkSize - chunkOverlap {
		end := start + chunkSize
		if end > len(r) {
			end = len(r)
		}
		chunks = append(chunks, string(r[start:end]))
		if end == len(r) {
			break
		}
	}
	return chunks
}

// topPassages ranks passages by how many distinct question terms they
// contain; ties keep document order.
func topPassages(question string, passages []passage, k int) []passage {
	terms := tokenize(question)
	for i := range passages {
		words := tokenize(passages[i].text)
		for t := range terms {
			if _, ok := words[t]; ok {
				passages[i].score++
			}
		}
	}
	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].score > passages[j].score
	})
	if k > 0 && len(passages) > k {
		passages = passages[:k]
	}
	return passages
}

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "what": {}, "who": {}, "how": {},
	"does": {}, "can": {}, "you": {}, "your": {}, "with": {}, "this": {}, "that": {},
	"from": {}, "about": {}, "there": {}, "have": {}, "has": {}, "was": {}, "were": {},
}

func tokenize(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		out[f] = struct{}{}
	}
	return out
}

func excerpt(text string) string {
	r := []rune(text)
	if len(r) <= excerptLimit {
		return text
	}
	return string(r[:excerptLimit]) + "..."
}
