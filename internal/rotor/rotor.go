// Package rotor owns the cipher state of a decoding session.
//
// The rotor is the uppercase alphabet A..Z arranged in a cycle. Its only
// observable state is the head offset k in [0, 26); rotating moves the head,
// the cyclic order itself never changes.
package rotor

// Size is the number of letters on the rotor.
const Size = 26

// Rotor is a Caesar-shift cipher state. The zero value has offset 0.
type Rotor struct {
	k int
}

func New() *Rotor {
	return &Rotor{}
}

// Rotate advances the head by n positions; negative n moves it back.
func (r *Rotor) Rotate(n int32) {
	r.k = normalize(r.k + int(n)%Size)
}

// Offset returns the current head position in [0, 26).
func (r *Rotor) Offset() int {
	return r.k
}

// Map decodes one byte at the current offset. Space and anything outside
// A..Z pass through unchanged.
func (r *Rotor) Map(in byte) byte {
	if in == ' ' || in < 'A' || in > 'Z' {
		return in
	}
	return byte((int(in-'A')+r.k)%Size) + 'A'
}

func normalize(v int) int {
	return (v%Size + Size) % Size
}
