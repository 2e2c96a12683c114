package chunking

import "strings"

const sectionMarker = "\n## "

// SectionSplitter cuts a Markdown document at second-level headings so each
// section fits in one cleanup call. The split is lossless: re-joining the
// sections reproduces the document's content.
type SectionSplitter struct{}

func NewSectionSplitter() *SectionSplitter {
	return &SectionSplitter{}
}

func (s *SectionSplitter) Split(markdown string) []string {
	if strings.TrimSpace(markdown) == "" {
		return nil
	}

	parts := strings.Split(markdown, sectionMarker)
	out := make([]string, 0, len(parts))
	if strings.TrimSpace(parts[0]) != "" {
		out = append(out, parts[0])
	}
	for _, part := range parts[1:] {
		out = append(out, "## "+part)
	}
	return out
}
