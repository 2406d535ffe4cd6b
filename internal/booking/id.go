package booking

import (
	"fmt"
	"sync"
	"time"
)

// IDGenerator issues APPT-YYYYMMDD-HHMMSS-ffffff confirmation ids. Ids are
// strictly increasing within a process even when the clock stalls or steps
// back.
type IDGenerator struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns the id and the instant it encodes.
func (g *IDGenerator) Next() (string, time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.now().UTC().Truncate(time.Microsecond)
	if !t.After(g.last) {
		t = g.last.Add(time.Microsecond)
	}
	g.last = t
	return formatID(t), t
}

func formatID(t time.Time) string {
	return "APPT-" + t.Format("20060102-150405") + fmt.Sprintf("-%06d", t.Nanosecond()/1000)
}
