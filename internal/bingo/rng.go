package bingo

// Rand is a seeded linear congruential generator. It exists for one
// reason: board shuffles must replay identically for a stored seed, both
// at room creation and again whenever the item list is updated later.
// Historical games become unreplayable if the recurrence ever changes,
// so do not swap this for math/rand or anything statistically better.
type Rand struct {
	state int32
}

// NewRand seeds a generator from a string. The seed is folded with the
// polynomial rolling hash h = h*31 + byte, wrapped to 32 bits, and the
// absolute value becomes the initial state.
func NewRand(seed string) *Rand {
	var h int32
	for i := 0; i < len(seed); i++ {
		h = h*31 + int32(seed[i])
	}
	if h < 0 {
		h = -h
	}
	return &Rand{state: h}
}

// Next advances the generator and returns a float in [0,1).
// Recurrence: state = (state*9301 + 49297) mod 233280.
func (r *Rand) Next() float64 {
	r.state = int32((int64(r.state)*9301 + 49297) % 233280)
	return float64(r.state) / 233280
}
