package scene

// Random is the source of every random choice the simulation makes
type Random interface {
	// Float64 returns a value in [0, 1)
	Float64() float64
	// Intn returns a value in [0, n)
	Intn(n int) int
}

// RNG is a small deterministic random number generator
type RNG struct {
	state uint64
}

// NewRNG creates a new RNG with the given seed
func NewRNG(seed uint64) *RNG {
	return &RNG{state: seed}
}

// Uint64 returns a pseudo-random uint64
func (r *RNG) Uint64() uint64 {
	// LCG parameters from Numerical Recipes
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return r.state
}

// Float64 returns a pseudo-random float64 in [0, 1)
func (r *RNG) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

// Intn returns a pseudo-random int in [0, n)
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	// low bits of an LCG cycle quickly
	return int((r.Uint64() >> 33) % uint64(n))
}

// between returns a random int in [min, max). It returns min when the range is empty.
func between(rng Random, min, max int) int {
	if max <= min {
		return min
	}
	return min + rng.Intn(max-min)
}
