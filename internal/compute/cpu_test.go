package compute

import (
	"sync/atomic"
	"testing"
)

func TestBackendsCoverRange(t *testing.T) {
	tests := []struct {
		name    string
		backend Backend
		n       int
	}{
		{"serial", Serial{}, 1000},
		{"serial empty", Serial{}, 0},
		{"cpu small", NewCPUBackend(4), 10},
		{"cpu large", NewCPUBackend(4).WithMinChunk(8), 1001},
		{"cpu single worker", NewCPUBackend(1), 500},
		{"cpu more workers than chunks", NewCPUBackend(64).WithMinChunk(16), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := make([]int32, tt.n)
			tt.backend.For(tt.n, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&hits[i], 1)
				}
			})
			for i, h := range hits {
				if h != 1 {
					t.Fatalf("index %d visited %d times", i, h)
				}
			}
		})
	}
}

func TestCPUBackendBarrier(t *testing.T) {
	b := NewCPUBackend(8).WithMinChunk(4)
	n := 256
	first := make([]float64, n)
	second := make([]float64, n)

	b.For(n, func(start, end int) {
		for i := start; i < end; i++ {
			first[i] = float64(i)
		}
	})
	// every slot of the first phase must be visible to the second
	b.For(n, func(start, end int) {
		for i := start; i < end; i++ {
			second[i] = first[n-1-i]
		}
	})

	for i := range second {
		if second[i] != float64(n-1-i) {
			t.Fatalf("slot %d: got %v", i, second[i])
		}
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "cpu", false},
		{"cpu", "cpu", false},
		{"serial", "serial", false},
		{"cuda", "", true},
	}

	for _, tt := range tests {
		b, err := New(tt.name, 2)
		if tt.wantErr {
			if err == nil {
				t.Errorf("New(%q): expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("New(%q): %v", tt.name, err)
		}
		if b.Name() != tt.want {
			t.Errorf("New(%q).Name() = %s, want %s", tt.name, b.Name(), tt.want)
		}
	}

	if NewCPUBackend(0).Workers() < 1 {
		t.Error("default worker count must be positive")
	}
}
