package botrunner

import "math/rand"

// jitterRng is the package-level source for pacing delays. Mirrors
// internal/bot's seedable-global pattern so arena runs can be made
// reproducible end to end.
var jitterRng *rand.Rand

// SeedJitterRng sets a deterministic source for the pacing delay.
func SeedJitterRng(seed int64) {
	jitterRng = rand.New(rand.NewSource(seed))
}

// ResetJitterRng reverts to the default (non-deterministic) global source.
func ResetJitterRng() {
	jitterRng = nil
}

func jitterIntn(n int) int {
	if jitterRng != nil {
		return jitterRng.Intn(n)
	}
	return rand.Intn(n)
}
