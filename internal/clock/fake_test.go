package clock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_AdvanceMovesTime(t *testing.T) {
	start := time.Date(2025, time.March, 15, 9, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)

	assert.Equal(t, start, c.Now())

	c.Advance(45 * 24 * time.Hour)
	assert.Equal(t, start.Add(45*24*time.Hour), c.Now())

	c.Advance(-time.Hour)
	assert.Equal(t, start.Add(45*24*time.Hour-time.Hour), c.Now())
}

func TestFakeClock_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	start := time.Date(2025, time.March, 15, 10, 0, 0, 0, loc)

	c := NewFakeClock(start)
	assert.Equal(t, time.UTC, c.Now().Location())
	assert.True(t, c.Now().Equal(start))
}

func TestFakeClock_ConcurrentReads(t *testing.T) {
	c := NewFakeClock(time.Date(2025, time.March, 15, 9, 0, 0, 0, time.UTC))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Advance(time.Minute)
		}()
		go func() {
			defer wg.Done()
			_ = c.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, time.Date(2025, time.March, 15, 9, 10, 0, 0, time.UTC), c.Now())
}
