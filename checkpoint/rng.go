package checkpoint

// RNG is a small, explicitly serializable deterministic generator.
// Go's math/rand does not expose its internal state for round-tripping,
// so checkpoints carry this SplitMix64-based generator instead, mirroring
// the round-trip Python's random.getstate()/setstate() gives liq-sim.
type RNG struct {
	state uint64
}

// NewRNG seeds a generator deterministically from seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{state: seed}
}

// Uint64 returns the next pseudo-random value and advances the state.
func (r *RNG) Uint64() uint64 {
	r.state += 0x9E3779B97F4A7C15
	z := r.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Float64 returns a pseudo-random value in [0, 1).
func (r *RNG) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

// State returns the generator's current internal state, for checkpointing.
func (r *RNG) State() uint64 {
	return r.state
}

// Restore resets the generator's internal state to a previously saved value.
func (r *RNG) Restore(state uint64) {
	r.state = state
}
