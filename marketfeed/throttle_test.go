package marketfeed

import (
	"sync"
	"testing"
	"time"
)

// TestLatestWinsThrottle mirrors spec.md §8 scenario 1: three frames
// offered within the first second; the worker should emit exactly one,
// carrying the last-offered payload.
func TestLatestWinsThrottle(t *testing.T) {
	th := NewThrottle()
	done := make(chan struct{})

	var mu sync.Mutex
	var emitted [][]byte

	go th.Run(done, func(raw []byte) {
		mu.Lock()
		defer mu.Unlock()
		emitted = append(emitted, raw)
	})

	th.Offer([]byte("price-100"))
	time.Sleep(50 * time.Millisecond)
	th.Offer([]byte("price-101"))
	time.Sleep(50 * time.Millisecond)
	th.Offer([]byte("price-102"))

	time.Sleep(1200 * time.Millisecond)
	close(done)

	mu.Lock()
	defer mu.Unlock()
	if len(emitted) != 1 {
		t.Fatalf("emitted %d messages, want 1: %v", len(emitted), emitted)
	}
	if string(emitted[0]) != "price-102" {
		t.Errorf("emitted %q, want price-102 (latest-wins)", emitted[0])
	}
}

func TestThrottleSkipsEmptySlot(t *testing.T) {
	th := NewThrottle()
	done := make(chan struct{})
	defer close(done)

	emits := 0
	go th.Run(done, func(raw []byte) { emits++ })

	time.Sleep(1200 * time.Millisecond)
	if emits != 0 {
		t.Errorf("emits = %d with nothing offered, want 0", emits)
	}
}
