package bot

import "math/rand"

// botRng is the package-level random source RandomStrategy draws from. When
// nil, the helpers below delegate to the global math/rand default. Use
// SeedBotRng for deterministic arena runs and benchmarks.
var botRng *rand.Rand

// SeedBotRng sets a deterministic random source for reproducible bot play.
func SeedBotRng(seed int64) {
	botRng = rand.New(rand.NewSource(seed))
}

// ResetBotRng reverts to the default (non-deterministic) global source.
func ResetBotRng() {
	botRng = nil
}

func botIntn(n int) int {
	if botRng != nil {
		return botRng.Intn(n)
	}
	return rand.Intn(n)
}
