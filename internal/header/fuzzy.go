package header

// fuzzyPartialRatio approximates fuzzywuzzy's partial_ratio: it slides the
// shorter string across the longer one and returns the best Levenshtein-based
// similarity score found at any alignment, on a 0-100 scale. No fuzzy
// string-matching library appears anywhere in the reference corpus, so this
// is implemented directly against the standard library; see DESIGN.md for
// the justification.
func fuzzyPartialRatio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	shorter, longer := ra, rb
	if len(ra) > len(rb) {
		shorter, longer = rb, ra
	}

	if len(shorter) == len(longer) {
		return ratio(shorter, longer)
	}

	best := 0
	windowLen := len(shorter)
	for start := 0; start+windowLen <= len(longer); start++ {
		score := ratio(shorter, longer[start:start+windowLen])
		if score > best {
			best = score
		}
		if best == 100 {
			break
		}
	}
	return best
}

// ratio returns a Levenshtein-distance-derived similarity score on a 0-100
// scale for two equal-or-near-length rune slices.
func ratio(a, b []rune) int {
	dist := levenshtein(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 100
	}
	score := (1.0 - float64(dist)/float64(maxLen)) * 100
	if score < 0 {
		score = 0
	}
	return int(score)
}

// levenshtein computes classic edit distance with a two-row dynamic
// programming table.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			curr[j] = min3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
