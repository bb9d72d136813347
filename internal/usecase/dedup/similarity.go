package dedup

import "time"

// StringSimilarity returns a normalized edit-distance similarity in [0,1].
// Comparison is case- and whitespace-insensitive: two strings that differ
// only cosmetically score 1. Either string empty scores 0, never NaN.
func StringSimilarity(a, b string) float64 {
	na, nb := normalize(a), normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	dist := levenshtein([]rune(na), []rune(nb))
	longest := len([]rune(na))
	if l := len([]rune(nb)); l > longest {
		longest = l
	}
	return 1 - float64(dist)/float64(longest)
}

// TimeSimilarity returns 1 at zero difference, decaying linearly to 0 at the
// tolerance boundary and beyond. Nil inputs (unparsable dates upstream) score
// 0; this function never returns an error.
func TimeSimilarity(t1, t2 *time.Time, toleranceMinutes int) float64 {
	if t1 == nil || t2 == nil || toleranceMinutes <= 0 {
		return 0
	}

	diff := t1.Sub(*t2)
	if diff < 0 {
		diff = -diff
	}
	tolerance := time.Duration(toleranceMinutes) * time.Minute
	if diff >= tolerance {
		return 0
	}
	return 1 - float64(diff)/float64(tolerance)
}

// levenshtein computes the edit distance between two rune slices using the
// two-row dynamic programming formulation.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
