package aistudio

const (
	DefaultProgressStep    = 5
	DefaultProgressCeiling = 95
)

// ProgressEstimate is a synthetic 0..100 completion estimate. The provider
// reports no real progress, so the value only moves forward, stays at or
// below the ceiling while work is in flight, and reaches 100 only through
// Complete. It is not safe for concurrent use; owners guard it.
type ProgressEstimate struct {
	value   int
	ceiling int
	frozen  bool
}

// NewProgressEstimate returns an estimate at 0 that saturates at ceiling.
// Ceilings outside 0..99 fall back to DefaultProgressCeiling.
func NewProgressEstimate(ceiling int) *ProgressEstimate {
	if ceiling < 0 || ceiling >= 100 {
		ceiling = DefaultProgressCeiling
	}
	return &ProgressEstimate{ceiling: ceiling}
}

// Value returns the current estimate
func (p *ProgressEstimate) Value() int {
	return p.value
}

// Reset sets the estimate back to 0 for a new submission
func (p *ProgressEstimate) Reset() {
	p.value = 0
	p.frozen = false
}

// Advance moves the estimate forward by step, never past the ceiling, and
// returns the new value. Advancing after Complete or Freeze is a no-op.
func (p *ProgressEstimate) Advance(step int) int {
	if p.frozen || step <= 0 {
		return p.value
	}
	if next := p.value + step; next < p.ceiling {
		p.value = next
	} else if p.value < p.ceiling {
		p.value = p.ceiling
	}
	return p.value
}

// Complete forces the estimate to 100 on confirmed success
func (p *ProgressEstimate) Complete() {
	p.value = 100
	p.frozen = true
}

// Freeze stops further movement without completing, used on failure
func (p *ProgressEstimate) Freeze() {
	p.frozen = true
}
