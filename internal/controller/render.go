package controller

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/memedex/models"
)

// Rendering is deliberately plain text: the chat transport owns markup and
// keyboards, this layer only guarantees the content of the single message
// each terminal outcome produces.

func renderWelcome() string {
	return "Hi! Send /meme_en <name> for an English meme or /meme_ru <name> for a Russian one."
}

func renderQueryPrompt(src models.Source) string {
	if src == models.SourceMemepedia {
		return "Send the name of the Russian meme to look up."
	}
	return "Send the name of the English meme to look up."
}

func renderDetail(d *models.Detail) string {
	return fmt.Sprintf("%s\n%s\n\n%s", d.Title, d.Summary, d.URL)
}

func renderSuggestions(items []models.ScoredCandidate, limit int) string {
	if len(items) > limit {
		items = items[:limit]
	}
	var b strings.Builder
	b.WriteString("Did you mean:\n")
	for _, sc := range items {
		b.WriteString("- ")
		b.WriteString(sc.Title)
		b.WriteByte('\n')
	}
	b.WriteString("\nReply with the exact name from the list above.")
	return b.String()
}

func renderSelectionReprompt() string {
	return "Please pick one of the suggested names, or start a new search."
}

func renderNotFound() string {
	return "Meme not found. Try another name."
}

func renderUnavailable() string {
	return "Something went wrong while searching. Please try again later."
}
