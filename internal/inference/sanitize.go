package inference

import (
	"regexp"
	"strings"
)

// BeliefsFallback replaces a response that held nothing but belief fragments.
const BeliefsFallback = "I can help with your plants."

var beliefLine = regexp.MustCompile(`^\{\s*"beliefs"`)

// StripBeliefs drops the belief-extraction JSON lines some upstream models
// interleave with their answer. Text without "beliefs" is returned unchanged.
func StripBeliefs(text string) string {
	if !strings.Contains(text, "beliefs") {
		return text
	}

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if beliefLine.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}

	out := strings.TrimSpace(strings.Join(kept, "\n"))
	if out == "" {
		return BeliefsFallback
	}
	return out
}
