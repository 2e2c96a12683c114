package usecase

import (
	"strings"
	"unicode"

	"github.com/retrodocs/digitizer/internal/core/domain"
)

// AnalyzeMarkdownQuality counts the structural features of a synthesized
// document. The report accompanies each final output so regressions in
// synthesis quality show up as metric shifts, not just prose differences.
func AnalyzeMarkdownQuality(content string) domain.QualityMetrics {
	lines := strings.Split(content, "\n")

	metrics := domain.QualityMetrics{
		TotalLines:          len(lines),
		TotalCharacters:     len(content),
		CodeBlockCount:      strings.Count(content, "```") / 2,
		ImageReferenceCount: strings.Count(content, "!["),
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#"):
			metrics.HeaderCount++
		case strings.HasPrefix(trimmed, "|"):
			metrics.TableRowCount++
		}
		if isListItem(trimmed) {
			metrics.ListItemCount++
		}
	}
	return metrics
}

func isListItem(trimmed string) bool {
	for _, prefix := range []string{"- ", "* ", "+ "} {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	// Ordered items: leading digits followed by ". " within the first few
	// characters, e.g. "1. " or "12. ".
	if trimmed == "" || !unicode.IsDigit(rune(trimmed[0])) {
		return false
	}
	head := trimmed
	if len(head) > 5 {
		head = head[:5]
	}
	return strings.Contains(head, ". ")
}
