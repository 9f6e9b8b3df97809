// Bloom filter tests for the columnstore block-cache guard.
package irs

import "testing"

func TestBloomAddContains(t *testing.T) {
	b := newBloom()
	b.Add(3, 4096)
	if !b.Contains(3, 4096) {
		t.Error("Contains should return true for an added (column, offset) pair")
	}
}

func TestBloomMiss(t *testing.T) {
	b := newBloom()
	b.Add(3, 4096)
	if b.Contains(7, 8192) {
		t.Error("Contains should return false for an absent pair")
	}
}

func TestBloomReset(t *testing.T) {
	b := newBloom()
	b.Add(3, 4096)
	b.Reset()
	if b.Contains(3, 4096) {
		t.Error("Contains should return false after Reset")
	}
}

// TestBloomFPRate measures the false-positive rate with 1000 entries and
// 10000 probes against a 2% threshold (allowing for statistical noise
// around the filter's ~1% design point).
func TestBloomFPRate(t *testing.T) {
	b := newBloom()
	for i := range 1000 {
		b.Add(uint32(i), int64(i)*4096)
	}

	fp := 0
	tests := 10000
	for i := range tests {
		if b.Contains(uint32(i)+1_000_000, int64(i)*4096+1) {
			fp++
		}
	}

	rate := float64(fp) / float64(tests)
	if rate > 0.02 {
		t.Errorf("false positive rate %.4f exceeds 2%%", rate)
	}
}
