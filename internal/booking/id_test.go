package booking

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var idPattern = regexp.MustCompile(`^APPT-\d{8}-\d{6}-\d{6}$`)

func TestIDGenerator_Format(t *testing.T) {
	at := time.Date(2024, time.March, 10, 9, 45, 7, 123456789, time.FixedZone("X", 3600))
	g := NewIDGenerator(func() time.Time { return at })

	id, ts := g.Next()
	assert.Equal(t, "APPT-20240310-084507-123456", id)
	assert.Regexp(t, idPattern, id)
	assert.Equal(t, time.UTC, ts.Location())
}

func TestIDGenerator_MonotonicWhenClockStalls(t *testing.T) {
	at := time.Date(2024, time.March, 10, 9, 45, 7, 0, time.UTC)
	g := NewIDGenerator(func() time.Time { return at })

	first, _ := g.Next()
	second, _ := g.Next()
	assert.Equal(t, "APPT-20240310-094507-000000", first)
	assert.Equal(t, "APPT-20240310-094507-000001", second)

	at = at.Add(-time.Second)
	third, _ := g.Next()
	assert.Equal(t, "APPT-20240310-094507-000002", third)
}

func TestIDGenerator_UniqueUnderConcurrency(t *testing.T) {
	g := NewIDGenerator(nil)
	const workers, per = 8, 200

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*per)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				id, _ := g.Next()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Len(t, seen, workers*per)
}
