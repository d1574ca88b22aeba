package aistudio

import "testing"

func TestProgressEstimateAdvance(t *testing.T) {
	p := NewProgressEstimate(DefaultProgressCeiling)

	var got []int
	for i := 0; i < 25; i++ {
		got = append(got, p.Advance(DefaultProgressStep))
	}

	prev := 0
	for i, v := range got {
		if v < prev {
			t.Fatalf("estimate went backwards at %d: %v", i, got)
		}
		if v > DefaultProgressCeiling {
			t.Fatalf("estimate passed the ceiling: %d", v)
		}
		prev = v
	}
	if got[0] != 5 || got[1] != 10 {
		t.Errorf("Expected 5, 10 first, got %v", got[:2])
	}
	if got[len(got)-1] != DefaultProgressCeiling {
		t.Errorf("Expected saturation at %d, got %d", DefaultProgressCeiling, got[len(got)-1])
	}
}

func TestProgressEstimateUnevenStep(t *testing.T) {
	p := NewProgressEstimate(90)
	for i := 0; i < 12; i++ {
		p.Advance(7)
	}
	if p.Value() != 84 {
		t.Fatalf("Expected 84 before the ceiling, got %d", p.Value())
	}
	if v := p.Advance(7); v != 90 {
		t.Errorf("Expected overshooting step to clamp to 90, got %d", v)
	}
	if v := p.Advance(7); v != 90 {
		t.Errorf("Expected to stay at 90, got %d", v)
	}
}

func TestProgressEstimateComplete(t *testing.T) {
	p := NewProgressEstimate(DefaultProgressCeiling)
	p.Advance(5)
	p.Complete()
	if p.Value() != 100 {
		t.Fatalf("Expected 100 after Complete, got %d", p.Value())
	}
	if v := p.Advance(5); v != 100 {
		t.Errorf("Advance after Complete changed value to %d", v)
	}
}

func TestProgressEstimateFreeze(t *testing.T) {
	p := NewProgressEstimate(DefaultProgressCeiling)
	p.Advance(5)
	p.Advance(5)
	p.Freeze()
	if v := p.Advance(5); v != 10 {
		t.Errorf("Expected frozen value 10, got %d", v)
	}

	p.Reset()
	if p.Value() != 0 {
		t.Errorf("Expected 0 after Reset, got %d", p.Value())
	}
	if v := p.Advance(5); v != 5 {
		t.Errorf("Expected 5 after Reset and Advance, got %d", v)
	}
}

func TestProgressEstimateInvalidCeiling(t *testing.T) {
	for _, c := range []int{-1, 100, 150} {
		p := NewProgressEstimate(c)
		for i := 0; i < 50; i++ {
			p.Advance(5)
		}
		if p.Value() != DefaultProgressCeiling {
			t.Errorf("ceiling %d: expected fallback to %d, got %d", c, DefaultProgressCeiling, p.Value())
		}
	}
}
