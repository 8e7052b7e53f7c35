package service

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestJournalSuggestionFromEntries(t *testing.T) {
	svc := NewJournalService(&fakeNarrator{narrative: `"Try a short walk between study blocks."`})

	entries := []JournalEntry{
		{Date: "2026-08-28", Content: "<p>Midterms are piling up.</p>", Timestamp: 100},
		{Date: "2026-08-29", Content: "Slept badly again.", Timestamp: 200},
	}
	suggestion := svc.DailySuggestion(context.Background(), 1, entries)
	if suggestion != "Try a short walk between study blocks." {
		t.Fatalf("expected unquoted narrative, got %q", suggestion)
	}
}

func TestJournalSuggestionWithoutEntries(t *testing.T) {
	svc := NewJournalService(&fakeNarrator{narrative: "unused"})

	suggestion := svc.DailySuggestion(context.Background(), 1, nil)
	if !strings.Contains(suggestion, "Start writing") {
		t.Fatalf("expected the onboarding suggestion, got %q", suggestion)
	}

	// HTML-only entries reduce to nothing and behave like no entries.
	empty := []JournalEntry{{Date: "2026-08-29", Content: "<br/>", Timestamp: 1}}
	if got := svc.DailySuggestion(context.Background(), 1, empty); !strings.Contains(got, "Start writing") {
		t.Fatalf("expected the onboarding suggestion, got %q", got)
	}
}

func TestJournalSuggestionFallsBackOnNarratorFailure(t *testing.T) {
	svc := NewJournalService(&fakeNarrator{err: errors.New("llm timeout")})

	entries := []JournalEntry{{Date: "2026-08-29", Content: "long week", Timestamp: 1}}
	suggestion := svc.DailySuggestion(context.Background(), 1, entries)
	if !strings.Contains(suggestion, "grateful") {
		t.Fatalf("expected the fallback suggestion, got %q", suggestion)
	}
}
