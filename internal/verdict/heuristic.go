package verdict

import "strings"

// Keyword markers for the local deterministic fallback. Negative markers are
// matched before positive ones and a tie resolves to Fail: the heuristic
// exists to fail closed, not to be generous.
var (
	positiveMarkers = []string{
		"recommend",
		"excellent",
		"great",
		"strong",
		"positive",
		"reliable",
		"rehire",
		"would hire",
	}
	negativeMarkers = []string{
		"not recommend",
		"wouldn't recommend",
		"would not",
		"concern",
		"red flag",
		"negative",
		"terminated",
		"fired",
		"avoid",
		"poor",
		"unreliable",
	}
)

// Heuristic scores the summary text by keyword presence. It returns Fail
// when negative markers are at least as frequent as positive ones, and Fail
// when no marker matches at all.
func Heuristic(summary string) Verdict {
	text := strings.ToLower(summary)

	positives := 0
	for _, marker := range positiveMarkers {
		positives += strings.Count(text, marker)
	}

	negatives := 0
	for _, marker := range negativeMarkers {
		negatives += strings.Count(text, marker)
	}

	// "not recommend" also matches "recommend"; discount the overlap so a
	// purely negative phrase does not count as positive evidence.
	for _, marker := range negativeMarkers {
		if strings.Contains(marker, "recommend") {
			positives -= strings.Count(text, marker)
		}
	}

	if positives > negatives {
		return Pass
	}
	return Fail
}
