package irs

import "testing"

func TestSegmentNameHashDeterministic(t *testing.T) {
	for _, alg := range []int{AlgXXHash3, AlgFNV1a, AlgBlake2b} {
		a := segmentNameHash(42, alg)
		b := segmentNameHash(42, alg)
		if a != b {
			t.Errorf("alg %d: hash not deterministic: %q vs %q", alg, a, b)
		}
		if len(a) != 16 {
			t.Errorf("alg %d: hash length = %d, want 16", alg, len(a))
		}
	}
}

func TestSegmentNameHashDiffersByGeneration(t *testing.T) {
	for _, alg := range []int{AlgXXHash3, AlgFNV1a, AlgBlake2b} {
		a := segmentNameHash(1, alg)
		b := segmentNameHash(2, alg)
		if a == b {
			t.Errorf("alg %d: different generations produced the same hash", alg)
		}
	}
}

func TestSegmentNameHashDiffersByAlgorithm(t *testing.T) {
	a := segmentNameHash(7, AlgXXHash3)
	b := segmentNameHash(7, AlgFNV1a)
	c := segmentNameHash(7, AlgBlake2b)
	if a == b || a == c || b == c {
		t.Error("expected different algorithms to produce different hashes for the same generation")
	}
}

func TestNewSegmentNameHasUnderscorePrefix(t *testing.T) {
	name := newSegmentName(10, AlgXXHash3)
	if name[0] != '_' {
		t.Errorf("segment name %q should start with '_'", name)
	}
	if len(name) != 17 { // "_" + 16 hex chars
		t.Errorf("segment name %q has length %d, want 17", name, len(name))
	}
}

func TestSegmentNameHashUnknownAlgorithm(t *testing.T) {
	if got := segmentNameHash(1, 99); got != "" {
		t.Errorf("unknown algorithm should produce empty hash, got %q", got)
	}
}
