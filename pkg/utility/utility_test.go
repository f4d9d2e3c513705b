package utility

import (
	"sync"
	"testing"
)

func TestUtility_GetRunID(t *testing.T) {
	id1 := GetRunID()
	id2 := GetRunID()

	if id1 != id2 {
		t.Error("Expected same RunID")
	}

	if id1.Version() != 7 {
		t.Errorf("Expected UUID v7, got v%d", id1.Version())
	}
}

func TestUtility_ResetRunID(t *testing.T) {
	oldID := GetRunID()
	newID := ResetRunID()

	if oldID == newID {
		t.Error("ResetRunID didn't change ID")
	}

	if GetRunID() != newID {
		t.Error("GetRunID doesn't return new ID")
	}
}

func TestUtility_GetRunIDConcurrent(t *testing.T) {
	const goroutines = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)

	results := make([]RunID, goroutines)

	for i := 0; i < goroutines; i++ {
		go func(idx int) {
			defer wg.Done()
			results[idx] = GetRunID()
		}(i)
	}

	wg.Wait()

	first := results[0]
	for i, id := range results {
		if id != first {
			t.Errorf("Goroutine %d got different ID", i)
		}
	}
}

func TestUtility_CreateTraceIDUniqueness(t *testing.T) {
	const n = 10000
	ids := make(map[TraceID]bool, n)

	for i := 0; i < n; i++ {
		id := CreateTraceID()
		if ids[id] {
			t.Errorf("Duplicate TraceID: %d", id)
		}
		ids[id] = true
	}
}

func TestUtility_CreateTraceIDConcurrent(t *testing.T) {
	const goroutines = 50
	const idsPerGoroutine = 500

	ids := make(chan TraceID, goroutines*idsPerGoroutine)
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < idsPerGoroutine; j++ {
				ids <- CreateTraceID()
			}
		}()
	}

	wg.Wait()
	close(ids)

	seen := make(map[TraceID]bool)
	for id := range ids {
		seen[id] = true
	}

	if len(seen) != goroutines*idsPerGoroutine {
		t.Errorf("Expected %d unique IDs, got %d", goroutines*idsPerGoroutine, len(seen))
	}
}

func TestUtility_ParseTraceID(t *testing.T) {
	id := CreateTraceID()
	ts, machine, seq := ParseTraceID(id)

	if ts.IsZero() {
		t.Error("zero timestamp")
	}
	if machine > maxMachine {
		t.Errorf("machine %d out of range", machine)
	}
	if seq > maxSequence {
		t.Errorf("sequence %d out of range", seq)
	}
}

func TestUtility_IntToUint(t *testing.T) {
	if v, err := IntToUint(42); err != nil || v != 42 {
		t.Errorf("IntToUint(42) = %d, %v", v, err)
	}
	if _, err := IntToUint(-1); err == nil {
		t.Error("expected error for negative input")
	}
}

func BenchmarkUtility_CreateTraceID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = CreateTraceID()
	}
}
