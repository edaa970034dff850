package ingest

import (
	"math"
	"strings"
)

// EstimateTokens approximates the token cost of text as round(words / 0.75),
// the usual one-token-per-0.75-words heuristic. It is reported alongside the
// assembled context, never enforced as a cutoff.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	return int(math.Round(float64(words) / 0.75))
}
