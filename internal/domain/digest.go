package domain

import (
	"sort"
	"strings"
)

// NoAnswerMarker replaces the text of slots that were asked but never answered.
const NoAnswerMarker = "no answer"

const digestPreamble = "You are summarizing one user's workday from periodic check-in answers.\n" +
	"Write a single concise paragraph covering the main activities.\n\n" +
	"Check-ins:\n"

// BuildDigestPrompt turns a day's responses into the summarizer prompt.
// Returns false when there is nothing to summarize; callers must then skip
// the summarizer entirely rather than send it zero data points.
func BuildDigestPrompt(responses []Response) (string, bool) {
	if len(responses) == 0 {
		return "", false
	}

	ordered := make([]Response, len(responses))
	copy(ordered, responses)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Slot < ordered[j].Slot })

	var b strings.Builder
	b.WriteString(digestPreamble)
	for _, r := range ordered {
		text := r.Text
		if !r.Answered() {
			text = NoAnswerMarker
		}
		b.WriteString(r.Slot.String())
		b.WriteString(" - ")
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String(), true
}
