package usecase

import (
	"fmt"
	"strings"

	"news-chat/internal/domain"
)

// HistoryWindow is how many of the most recent turns are shown to the model.
const HistoryWindow = 10

// PromptInput contains the pieces that feed into the prompt builder.
type PromptInput struct {
	Query    string
	Articles []domain.Article
	History  []domain.Turn
}

// PromptBuilder renders the single prompt sent to the model.
type PromptBuilder interface {
	Build(input PromptInput) string
}

// NewsPromptBuilder lays out numbered articles, then recent conversation, then
// the answering rules and the question.
type NewsPromptBuilder struct {
	historyWindow int
}

func NewNewsPromptBuilder() *NewsPromptBuilder {
	return &NewsPromptBuilder{historyWindow: HistoryWindow}
}

func (b *NewsPromptBuilder) Build(input PromptInput) string {
	var sb strings.Builder

	sb.WriteString("You are a helpful news assistant. Use the news articles below to answer the user's question.\n\n")

	sb.WriteString("News articles:\n")
	if len(input.Articles) == 0 {
		sb.WriteString("(no articles found)\n")
	}
	for i, a := range input.Articles {
		fmt.Fprintf(&sb, "%d. Title: %s\n   Description: %s\n   URL: %s\n", i+1, a.Title, a.Description, a.Link)
	}

	sb.WriteString("\nConversation so far:\n")
	recent := RecentTurns(input.History, b.historyWindow)
	if len(recent) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, t := range recent {
		speaker := "User"
		if t.Role == domain.RoleAssistant {
			speaker = "Bot"
		}
		fmt.Fprintf(&sb, "%s: %s\n", speaker, t.Text)
	}

	sb.WriteString("\nInstructions:\n")
	sb.WriteString("- Answer only from the news articles above; do not use outside knowledge.\n")
	sb.WriteString("- If the articles do not contain enough information, say so plainly.\n")
	sb.WriteString("- Format the answer as bullet points, ending each point with the URL of the article it came from.\n\n")

	fmt.Fprintf(&sb, "Question: %s\nAnswer:", input.Query)

	return sb.String()
}

// RecentTurns returns the last n turns, or all of them when there are fewer.
func RecentTurns(history []domain.Turn, n int) []domain.Turn {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
