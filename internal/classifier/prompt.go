package classifier

import (
	"strings"

	"SocialListener/internal/domain"
)

const maxItemRunes = 4000

// BuildPrompt renders the classification prompt for one item. Output depends only on its inputs.
func BuildPrompt(item domain.RawItem, task TaskSpec, language string) string {
	var b strings.Builder
	b.WriteString(task.Instruction)
	b.WriteString("\n\nCategories (choose exactly one):\n")
	for _, c := range task.Categories {
		b.WriteString("- ")
		b.WriteString(string(c))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if title := strings.TrimSpace(item.Title); title != "" {
		b.WriteString("Title: ")
		b.WriteString(title)
		b.WriteString("\n")
	}
	b.WriteString("Text: \"")
	b.WriteString(truncate(strings.TrimSpace(item.Text), maxItemRunes))
	b.WriteString("\"\n\n")

	if language != "" {
		b.WriteString("Write the summary in ")
		b.WriteString(language)
		b.WriteString(".\n")
	}
	b.WriteString("Respond ONLY with a JSON object with the following structure:\n")
	b.WriteString(task.Schema)
	return b.String()
}

// BuildNarrativePrompt renders a free-text prompt over a list of input lines.
func BuildNarrativePrompt(task TaskSpec, lines []string, language string) string {
	var b strings.Builder
	b.WriteString(task.Instruction)
	b.WriteString("\n\n---\n")
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("---\n")

	if language != "" {
		b.WriteString("\nAnswer in ")
		b.WriteString(language)
		b.WriteString(".")
	}
	if task.Schema != "" {
		b.WriteString("\nRespond ONLY with a JSON object with the following structure:\n")
		b.WriteString(task.Schema)
	}
	return b.String()
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
