package processor

import (
	"testing"
	"time"
)

func TestRingPrunesEntriesOlderThan15Seconds(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	r := &ring{}

	r.add(tick{price: 10, volume: 2, ts: start}, start)
	r.add(tick{price: 20, volume: 3, ts: start.Add(5 * time.Second)}, start.Add(5*time.Second))

	mean, ok := r.meanPriceVolume()
	if !ok {
		t.Fatal("expected non-empty ring")
	}
	want := (10*2 + 20*3) / 2.0
	if mean != want {
		t.Errorf("mean = %v, want %v", mean, want)
	}

	now := start.Add(21 * time.Second)
	r.prune(now)
	if _, ok := r.meanPriceVolume(); ok {
		t.Error("expected ring to be empty after pruning past the 15s window")
	}
}

func TestRingRegistryTracksPerSymbol(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rr := newRingRegistry()

	rr.add("AAAA", tick{price: 10, volume: 1, ts: now}, now)
	rr.add("BBBB", tick{price: 5, volume: 1, ts: now}, now)

	seen := map[string]float64{}
	rr.forEachNonEmpty(now, func(symbol string, mean float64) {
		seen[symbol] = mean
	})

	if len(seen) != 2 {
		t.Fatalf("expected 2 symbols, got %d: %v", len(seen), seen)
	}
	if seen["AAAA"] != 10 || seen["BBBB"] != 5 {
		t.Errorf("unexpected means: %v", seen)
	}
}
