package command

import (
	"context"
	"slices"
	"strings"
)

// LocalParser recognizes commands by exact keyword match. Anything else is
// patient text.
type LocalParser struct {
	ResetKeywords []string
	QuitKeywords  []string
	ShowKeywords  []string
}

func NewLocalParser() *LocalParser {
	return &LocalParser{
		ResetKeywords: []string{"/reset", "/restart", "/new"},
		QuitKeywords:  []string{"/quit", "/exit", "/q"},
		ShowKeywords:  []string{"/show", "/status", "/results"},
	}
}

func (p *LocalParser) ParseCommand(ctx context.Context, input string) (Command, error) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	switch {
	case slices.Contains(p.ResetKeywords, normalized):
		return Reset, nil
	case slices.Contains(p.QuitKeywords, normalized):
		return Quit, nil
	case slices.Contains(p.ShowKeywords, normalized):
		return Show, nil
	}
	return None, nil
}
