package dedup

import "event-harvest/internal/domain/entity"

// QualityScore rates a candidate 0-100 on field completeness. The score is
// deterministic and monotonic: adding a signal never lowers it. Downstream it
// decides which of two near-identical candidates in the same run "wins", and
// flags low-quality ingests for review.
func QualityScore(c *entity.CandidateEvent) int {
	if c == nil {
		return 0
	}

	score := 0
	if c.Title != "" {
		score += 15
		if len(c.Title) >= 10 {
			score += 5
		}
	}
	if c.Description != "" {
		score += 10
		if len(c.Description) >= 100 {
			score += 5
		}
		if len(c.Description) >= 300 {
			score += 5
		}
	}
	if c.StartTime != nil {
		score += 15
	}
	if c.EndTime != nil {
		score += 10
	}
	if c.Location != "" {
		score += 10
		if len(c.Location) >= 10 {
			score += 5
		}
	}
	if c.ImageURL != "" {
		score += 5
	}
	if c.Price != "" {
		score += 5
	}
	if c.SourceURL != "" {
		score += 10
	}

	return score
}
