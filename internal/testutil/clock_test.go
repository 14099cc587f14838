package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var start = time.Date(2026, 10, 19, 23, 59, 0, 0, time.UTC)

func TestFakeClock_Frozen(t *testing.T) {
	c := NewFakeClock(start)
	assert.Equal(t, start, c.Now())
	assert.Equal(t, start, c.Now())
}

func TestFakeClock_Advance(t *testing.T) {
	c := NewFakeClock(start)

	got := c.Advance(2 * time.Minute)
	assert.Equal(t, time.Date(2026, 10, 20, 0, 1, 0, 0, time.UTC), got)
	assert.Equal(t, got, c.Now())
}

func TestFakeClock_SetBackwards(t *testing.T) {
	c := NewFakeClock(start)
	earlier := start.Add(-48 * time.Hour)

	c.Set(earlier)
	assert.Equal(t, earlier, c.Now())
}

func TestFakeClock_ThreadSafe(t *testing.T) {
	c := NewFakeClock(start)
	const goroutines = 50

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Advance(time.Second)
			_ = c.Now()
		}()
	}
	wg.Wait()

	assert.Equal(t, start.Add(goroutines*time.Second), c.Now())
}
