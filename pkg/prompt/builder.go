package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kiranshivaraju/answerhunter/pkg/models"
)

// MaxSourceChars bounds how much of each source's text is quoted in the draft prompt.
const MaxSourceChars = 1000

const (
	// DraftSystemPrompt is sent as the system message of the draft pass.
	DraftSystemPrompt = "You are a helpful assistant that provides accurate, well-sourced answers based on web search results."

	// RefineSystemPrompt is sent as the system message of the refinement pass.
	RefineSystemPrompt = "You are a careful editor who checks answers against their sources and returns an improved final answer."
)

// RefineChecklist is the critique applied to every draft, in order.
var RefineChecklist = []string{
	"Every claim is supported by at least one cited source.",
	"The answer is logically consistent and does not contradict itself.",
	"Uncertain or disputed points are hedged appropriately.",
	"The tone is balanced and free of unsupported opinion.",
}

// Builder renders the prompts for the two synthesis passes.
// All methods are pure functions with no side effects.
// Zero value is ready to use.
type Builder struct{}

// BuildDraftPrompt returns the user prompt for the first pass: the question followed by
// numbered sources, each quoted up to MaxSourceChars characters.
func (b Builder) BuildDraftPrompt(query string, evidence []models.EvidenceItem) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Based on the following web search results, please answer this question: %s\n\n", query)
	sb.WriteString("Search Results:\n")

	for i, item := range evidence {
		fmt.Fprintf(&sb, "\nSource %d: %s\nURL: %s\n%s\n", i+1, item.Title, item.URL, truncate(item.Content, MaxSourceChars))
	}

	sb.WriteString("\nInstructions:\n")
	sb.WriteString("- Weigh where the sources agree and base the answer on that consensus.\n")
	sb.WriteString("- Point out explicitly where sources disagree.\n")
	sb.WriteString("- Hedge any statement the sources do not firmly establish.\n")
	sb.WriteString("- Cite sources inline as [Source N] using the numbers above.\n")
	sb.WriteString("\nPlease provide a comprehensive answer based on these sources, citing them where appropriate.")

	return sb.String()
}

// BuildRefinePrompt returns the user prompt for the second pass. The draft is embedded
// unchanged between markers so the model can critique it against RefineChecklist.
func (b Builder) BuildRefinePrompt(query, draft string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Question: %s\n\n", query)
	sb.WriteString("Initial answer:\n<<<\n")
	sb.WriteString(draft)
	sb.WriteString("\n>>>\n\n")
	sb.WriteString("Review the initial answer against this checklist:\n")
	for i, item := range RefineChecklist {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, item)
	}
	sb.WriteString("\nKeep every valid [Source N] citation. ")
	sb.WriteString("Reply with the improved final answer only, without commentary on the changes.")

	return sb.String()
}

// truncate shortens s to at most maxChars runes.
func truncate(s string, maxChars int) string {
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}
	return s
}
