package domain

import (
	"strings"
	"testing"
)

func TestBuildDigestPrompt_Empty(t *testing.T) {
	if _, ok := BuildDigestPrompt(nil); ok {
		t.Fatal("no responses must yield nothing to summarize")
	}
}

func TestBuildDigestPrompt_OrderAndMarkers(t *testing.T) {
	prompt, ok := BuildDigestPrompt([]Response{
		{Slot: 14 * 60, Text: "code review"},
		{Slot: 9 * 60, Text: "standup"},
		{Slot: 10 * 60, Text: ""},
	})
	if !ok {
		t.Fatal("expected a prompt")
	}

	i9 := strings.Index(prompt, "09:00 - standup")
	i10 := strings.Index(prompt, "10:00 - "+NoAnswerMarker)
	i14 := strings.Index(prompt, "14:00 - code review")
	if i9 < 0 || i10 < 0 || i14 < 0 {
		t.Fatalf("missing lines in prompt:\n%s", prompt)
	}
	if !(i9 < i10 && i10 < i14) {
		t.Fatalf("lines out of slot order:\n%s", prompt)
	}
}
