package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

type SimConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	BookingRatio  float64
	QuestionRatio float64
	AbandonRatio  float64
	SeedDocument  bool
}

// tally counts the outcomes of one kind of call.
type tally struct {
	mu        sync.Mutex
	ok        int
	busy      int
	failed    int
	latencies []time.Duration
}

func (t *tally) Record(latency time.Duration, ok, busy bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case ok:
		t.ok++
	case busy:
		t.busy++
	default:
		t.failed++
	}
	t.latencies = append(t.latencies, latency)
}

// percentile expects t.mu held and latencies sorted.
func (t *tally) percentile(p int) time.Duration {
	i := len(t.latencies) * p / 100
	if i >= len(t.latencies) {
		i = len(t.latencies) - 1
	}
	return t.latencies[i].Round(time.Millisecond)
}

type Metrics struct {
	Session   tally
	Question  tally
	FormTurn  tally
	Booking   tally
	Abandoned tally
}

type Simulator struct {
	config  SimConfig
	client  *http.Client
	metrics Metrics
}

// messageResponse mirrors the fields of the API reply the simulator checks.
type messageResponse struct {
	Answer         string `json:"answer"`
	NeedsInfo      bool   `json:"needs_info"`
	FormComplete   bool   `json:"form_complete"`
	ConfirmationID string `json:"confirmation_id"`
}

var questions = []string{
	"What are your opening hours?",
	"Where are you located?",
	"How early should I arrive?",
	"Can I book on a Saturday?",
	"How do I contact you?",
}

var dateAnswers = []string{
	"tomorrow 3pm",
	"next monday 10:30",
	"in 3 days",
	"next friday",
	"this week",
	"friday at 2pm",
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d booking=%.2f question=%.2f abandon=%.2f",
		cfg.Duration, cfg.Workers, cfg.BookingRatio, cfg.QuestionRatio, cfg.AbandonRatio)

	gofakeit.Seed(time.Now().UnixNano())

	sim := &Simulator{
		config: cfg,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}

	if cfg.SeedDocument {
		if err := sim.uploadDocument(context.Background()); err != nil {
			log.Fatalf("upload demo document: %v", err)
		}
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:    strings.TrimRight(getEnv("SIM_API_BASE_URL", "http://localhost:8080"), "/"),
		Duration:      envParsed("SIM_DURATION", 30*time.Second, time.ParseDuration),
		Workers:       envParsed("SIM_WORKERS", 10, strconv.Atoi),
		BookingRatio:  envParsed("SIM_BOOKING_RATIO", 0.5, parseFloat),
		QuestionRatio: envParsed("SIM_QUESTION_RATIO", 0.4, parseFloat),
		AbandonRatio:  envParsed("SIM_ABANDON_RATIO", 0.1, parseFloat),
		SeedDocument:  getEnv("SIM_SEED_DOCUMENT", "true") == "true",
	}

	// Normalize ratios
	total := cfg.BookingRatio + cfg.QuestionRatio + cfg.AbandonRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.QuestionRatio /= total
		cfg.AbandonRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

// worker plays one user at a time: open a session, then either ask a few
// questions, book an appointment, or start booking and give up.
func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for ctx.Err() == nil {
		sessionID, ok := s.createSession(ctx)
		if !ok {
			continue
		}

		r := rng.Float64()
		switch {
		case r < s.config.BookingRatio:
			s.doBooking(ctx, rng, sessionID)
		case r < s.config.BookingRatio+s.config.QuestionRatio:
			for i := 0; i < 1+rng.Intn(3); i++ {
				s.doQuestion(ctx, rng, sessionID)
			}
		default:
			s.doAbandon(ctx, sessionID)
		}

		s.endSession(ctx, sessionID)
	}
}

func (s *Simulator) createSession(ctx context.Context) (string, bool) {
	start := time.Now()
	var out struct {
		SessionID string `json:"session_id"`
	}
	status, err := s.call(ctx, http.MethodPost, "/sessions", nil, &out)
	ok := err == nil && status == http.StatusCreated && out.SessionID != ""
	s.metrics.Session.Record(time.Since(start), ok, false)
	return out.SessionID, ok
}

func (s *Simulator) doQuestion(ctx context.Context, rng *rand.Rand, sessionID string) {
	start := time.Now()
	_, status, err := s.send(ctx, sessionID, questions[rng.Intn(len(questions))])
	s.metrics.Question.Record(time.Since(start), err == nil && status == http.StatusOK, isConflict(status))
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand, sessionID string) {
	answers := []string{
		"I'd like to book an appointment",
		gofakeit.Name(),
		gofakeit.Phone(),
		gofakeit.Email(),
		dateAnswers[rng.Intn(len(dateAnswers))],
		"",
	}
	if rng.Intn(2) == 0 {
		answers[5] = "Prefer a " + strings.ToLower(gofakeit.Color()) + " room please"
	}

	start := time.Now()
	var last messageResponse
	for _, a := range answers {
		turnStart := time.Now()
		resp, status, err := s.send(ctx, sessionID, a)
		ok := err == nil && status == http.StatusOK
		s.metrics.FormTurn.Record(time.Since(turnStart), ok, isConflict(status))
		if !ok {
			s.metrics.Booking.Record(time.Since(start), false, isConflict(status))
			return
		}
		last = resp
	}
	s.metrics.Booking.Record(time.Since(start), last.ConfirmationID != "", false)
}

func (s *Simulator) doAbandon(ctx context.Context, sessionID string) {
	start := time.Now()
	_, status, err := s.send(ctx, sessionID, "can you schedule me in?")
	if err == nil && status == http.StatusOK {
		status, err = s.call(ctx, http.MethodDelete, "/sessions/"+sessionID+"/form", nil, nil)
	}
	s.metrics.Abandoned.Record(time.Since(start), err == nil && status == http.StatusOK, isConflict(status))
}

func (s *Simulator) endSession(ctx context.Context, sessionID string) {
	_, _ = s.call(ctx, http.MethodDelete, "/sessions/"+sessionID, nil, nil)
}

func (s *Simulator) uploadDocument(ctx context.Context) error {
	content := fmt.Sprintf("%s is open Monday to Friday, 9am to 5pm.\n\nWe are located at %s, %s.\n\nCall %s to reach the front desk. Please arrive ten minutes early.",
		gofakeit.Company(), gofakeit.Street(), gofakeit.City(), gofakeit.Phone())
	status, err := s.call(ctx, http.MethodPost, "/documents", map[string]string{
		"name":    "simulator-faq.txt",
		"content": content,
	}, nil)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return fmt.Errorf("unexpected status %d", status)
	}
	return nil
}

func (s *Simulator) send(ctx context.Context, sessionID, message string) (messageResponse, int, error) {
	var out messageResponse
	status, err := s.call(ctx, http.MethodPost, "/sessions/"+sessionID+"/messages", map[string]string{"message": message}, &out)
	return out, status, err
}

func (s *Simulator) call(ctx context.Context, method, path string, body, out any) (int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func isConflict(status int) bool {
	return status == http.StatusConflict || status == http.StatusTooManyRequests
}

func (s *Simulator) PrintReport() {
	fmt.Printf("\nsimulation report: %s, %d workers\n\n", s.config.Duration, s.config.Workers)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "operation\ttotal\tok\tbusy\tfailed\tp50\tp95")
	for _, row := range []struct {
		name string
		t    *tally
	}{
		{"create session", &s.metrics.Session},
		{"question", &s.metrics.Question},
		{"form turn", &s.metrics.FormTurn},
		{"booking", &s.metrics.Booking},
		{"abandoned form", &s.metrics.Abandoned},
	} {
		t := row.t
		t.mu.Lock()
		if n := len(t.latencies); n > 0 {
			sort.Slice(t.latencies, func(i, j int) bool { return t.latencies[i] < t.latencies[j] })
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
				row.name, n, t.ok, t.busy, t.failed, t.percentile(50), t.percentile(95))
		}
		t.mu.Unlock()
	}
	_ = w.Flush()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envParsed reads key with parse, keeping def when unset or malformed.
func envParsed[T any](key string, def T, parse func(string) (T, error)) T {
	if v, err := parse(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func parseFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
