package utils

import (
	"strings"
	"sync"
	"testing"
)

func TestGenerateJobID(t *testing.T) {
	id1 := GenerateJobID()
	id2 := GenerateJobID()

	if !strings.HasPrefix(id1, JobIDPrefix) {
		t.Errorf("GenerateJobID should start with %q: %s", JobIDPrefix, id1)
	}
	if id1 == id2 {
		t.Error("GenerateJobID should return unique IDs")
	}
	if _, err := ParseJobID(id1); err != nil {
		t.Errorf("expected generated ID to parse, got %v", err)
	}
}

func TestParseJobID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"valid", "job-0190a7c2-6d3e-7b2a-9c1f-3e4d5a6b7c8d", true},
		{"missing prefix", "0190a7c2-6d3e-7b2a-9c1f-3e4d5a6b7c8d", false},
		{"not a uuid", "job-1234", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJobID(tt.input)
			if (err == nil) != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, err)
			}
		})
	}
}

func TestGenerateTraceID(t *testing.T) {
	id := GenerateTraceID()
	// 16 bytes hex-encoded = 32 characters
	if len(id) != 32 {
		t.Errorf("GenerateTraceID should return 32 character hex string, got %d: %s", len(id), id)
	}
}

func TestJobIDConcurrency(t *testing.T) {
	numGoroutines := 50
	idsPerGoroutine := 50

	idChan := make(chan string, numGoroutines*idsPerGoroutine)
	var wg sync.WaitGroup

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < idsPerGoroutine; j++ {
				idChan <- GenerateJobID()
			}
		}()
	}

	wg.Wait()
	close(idChan)

	ids := make(map[string]bool)
	for id := range idChan {
		if ids[id] {
			t.Errorf("Duplicate job ID generated in concurrent test: %s", id)
		}
		ids[id] = true
	}

	expectedCount := numGoroutines * idsPerGoroutine
	if len(ids) != expectedCount {
		t.Errorf("Expected %d unique job IDs, got %d", expectedCount, len(ids))
	}
}
