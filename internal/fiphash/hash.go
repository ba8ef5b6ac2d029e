// Package fiphash implements the FIP deterministic path hash: an
// FNV-style mix of the source path, rendered as eight characters of a
// 61-symbol alphabet that excludes '0' (reserved as the "no hash"
// sentinel) and '_' (kept out so the alphabet size stays prime).
package fiphash

// alphabet is the 61-symbol output set: digits 1-9, then A-Z, then a-z.
const alphabet = "123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Size is the fixed width of a produced hash (FIP_PATH_SIZE).
const Size = 8

const (
	fnvOffset uint32 = 2166136261
	fnvPrime  uint32 = 16777619
)

// Create returns the 8-character path hash for path, or a string whose
// first byte is the sentinel '0' when path is empty.
func Create(path string) string {
	if path == "" {
		zero := make([]byte, Size)
		for i := range zero {
			zero[i] = '0'
		}
		return string(zero)
	}

	h := fnvOffset
	for i := 0; i < len(path); i++ {
		h ^= uint32(path[i])
		h *= fnvPrime
	}

	// Spread one 32-bit mix across Size output characters with a
	// second multiplicative pass per character so the alphabet digits
	// aren't simply the same nibble of h repeated.
	state := uint64(h)
	out := make([]byte, Size)
	for i := range out {
		state = state*6364136223846793005 + 1442695040888963407
		out[i] = alphabet[(state>>33)%uint64(len(alphabet))]
	}
	return string(out)
}
