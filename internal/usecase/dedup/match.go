package dedup

import (
	"sort"

	"event-harvest/internal/domain/entity"
)

// MatchType names the dimension that drove a deduplication match.
type MatchType string

const (
	MatchTitle    MatchType = "title"
	MatchLocation MatchType = "location"
	MatchTime     MatchType = "time"
	MatchCombined MatchType = "combined"
)

// Match is a computed deduplication candidate pairing. It is never persisted;
// it only drives the create-vs-update decision.
type Match struct {
	EventID    string
	Similarity float64 // weighted combined similarity in [0,1]
	MatchType  MatchType
	Confidence float64 // the score of the dimension that triggered the match
}

// FindSimilarEvents scores the candidate against every existing record and
// returns the matches sorted by descending combined similarity. A single
// dimension exceeding its own threshold classifies the match by that
// dimension (taking priority over combined); otherwise the weighted sum must
// exceed CombinedThreshold. An empty corpus trivially yields no matches.
//
// Callers treat the top match as "this is the same event" (update path) and
// the absence of matches as the create path.
func FindSimilarEvents(candidate *entity.CandidateEvent, existing []*entity.Event, cfg Config) []Match {
	if candidate == nil || len(existing) == 0 {
		return nil
	}

	matches := make([]Match, 0, 4)
	for _, ev := range existing {
		if ev == nil {
			continue
		}

		titleSim := StringSimilarity(candidate.Title, ev.Title)
		locSim := StringSimilarity(candidate.Location, ev.Location)
		timeSim := TimeSimilarity(candidate.StartTime, ev.StartTime, cfg.TimeToleranceMinutes)
		combined := titleSim*titleWeight + locSim*locationWeight + timeSim*timeWeight

		m := Match{EventID: ev.ID, Similarity: combined}
		switch {
		case titleSim >= cfg.TitleThreshold:
			m.MatchType, m.Confidence = MatchTitle, titleSim
		case locSim >= cfg.LocationThreshold:
			m.MatchType, m.Confidence = MatchLocation, locSim
		case timeSim >= cfg.TimeThreshold:
			m.MatchType, m.Confidence = MatchTime, timeSim
		case combined >= cfg.CombinedThreshold:
			m.MatchType, m.Confidence = MatchCombined, combined
		default:
			continue
		}
		matches = append(matches, m)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	return matches
}
