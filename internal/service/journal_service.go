package service

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"

	"campuswell_backend/pkg/logger"

	"go.uber.org/zap"
)

const journalSuggestionSystem = "You are a supportive mental health assistant helping students reflect on their " +
	"journal entries. Provide thoughtful, personalized suggestions that encourage growth and self-awareness."

const journalSuggestionEmpty = "Start writing in your journal to receive personalized suggestions!"

const journalSuggestionFallback = "Take a moment today to reflect on what you're grateful for. " +
	"Consider writing about something positive that happened recently."

// JournalEntry is client-held journal content submitted for a
// suggestion. Entries are never persisted server-side.
type JournalEntry struct {
	Date      string `json:"date"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

type JournalService struct {
	Narrator NarrativeGenerator
}

func NewJournalService(narrator NarrativeGenerator) *JournalService {
	return &JournalService{Narrator: narrator}
}

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

func stripHTML(content string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(html.UnescapeString(content), ""))
}

// DailySuggestion builds a prompt from the ten most recent entries and
// asks the narrative collaborator for one short suggestion. Any failure
// degrades to a canned suggestion rather than an error.
func (s *JournalService) DailySuggestion(ctx context.Context, studentID uint, entries []JournalEntry) string {
	if len(entries) == 0 {
		return journalSuggestionEmpty
	}

	sorted := make([]JournalEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp > sorted[j].Timestamp })
	if len(sorted) > 10 {
		sorted = sorted[:10]
	}

	var blocks []string
	for _, entry := range sorted {
		plain := stripHTML(entry.Content)
		if plain == "" {
			continue
		}
		if len(plain) > 500 {
			plain = plain[:500]
		}
		blocks = append(blocks, fmt.Sprintf("Date: %s\nContent: %s", entry.Date, plain))
	}
	if len(blocks) == 0 {
		return journalSuggestionEmpty
	}

	prompt := "Based on the following journal entries from a student, provide a thoughtful, " +
		"personalized suggestion for today.\n\n" +
		"The suggestion should be encouraging, specific to the themes in the entries, " +
		"actionable, and at most three sentences.\n\n" +
		"Journal Entries:\n" + strings.Join(blocks, "\n\n---\n\n") + "\n\n" +
		"Provide a single, personalized suggestion for today based on these entries."

	suggestion, err := s.Narrator.GenerateNarrative(ctx, journalSuggestionSystem, prompt, 200)
	if err != nil {
		logger.Log.Warn("Journal suggestion generation failed, using fallback",
			zap.Uint("student_id", studentID),
			zap.Error(err))
		return journalSuggestionFallback
	}

	suggestion = strings.TrimSpace(suggestion)
	if len(suggestion) >= 2 && strings.HasPrefix(suggestion, `"`) && strings.HasSuffix(suggestion, `"`) {
		suggestion = suggestion[1 : len(suggestion)-1]
	}
	if suggestion == "" {
		return journalSuggestionFallback
	}
	return suggestion
}
