// Package dedup implements the deduplication engine for ingested event
// candidates. All functions are pure and side-effect free: they operate on
// in-memory records, never touch storage, and never panic on malformed input.
package dedup

// Similarity weights for the combined score. Title dominates because it is
// the most stable field across sources; time is the noisiest.
const (
	titleWeight    = 0.5
	locationWeight = 0.3
	timeWeight     = 0.2
)

// Config holds the tunable matching thresholds. Operators adjust these per
// deployment to trade precision against recall; they are injected, never
// hard-coded at call sites.
type Config struct {
	// TitleThreshold is the single-dimension threshold for a title match.
	TitleThreshold float64

	// LocationThreshold is the single-dimension threshold for a location match.
	LocationThreshold float64

	// TimeToleranceMinutes bounds the window in which two start times are
	// considered similar at all.
	TimeToleranceMinutes int

	// TimeThreshold is the single-dimension threshold for a time match.
	TimeThreshold float64

	// CombinedThreshold is the weighted-sum threshold used when no single
	// dimension matches on its own.
	CombinedThreshold float64
}

// DefaultConfig returns thresholds tuned for mixed-quality municipal and
// commercial event feeds.
func DefaultConfig() Config {
	return Config{
		TitleThreshold:       0.85,
		LocationThreshold:    0.80,
		TimeToleranceMinutes: 30,
		TimeThreshold:        0.90,
		CombinedThreshold:    0.75,
	}
}
