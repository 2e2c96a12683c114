package chunking

import "testing"

func TestSplitOnSecondLevelHeadings(t *testing.T) {
	s := NewSectionSplitter()

	doc := "intro paragraph\n## Setup\nplug it in\n## Usage\ntype BASIC"
	sections := s.Split(doc)

	want := []string{
		"intro paragraph",
		"## Setup\nplug it in",
		"## Usage\ntype BASIC",
	}
	if len(sections) != len(want) {
		t.Fatalf("got %d sections, want %d: %q", len(sections), len(want), sections)
	}
	for i := range want {
		if sections[i] != want[i] {
			t.Fatalf("section %d = %q, want %q", i, sections[i], want[i])
		}
	}
}

func TestSplitDropsBlankIntro(t *testing.T) {
	s := NewSectionSplitter()

	sections := s.Split("\n## Only Section\nbody")
	if len(sections) != 1 {
		t.Fatalf("got %d sections, want 1: %q", len(sections), sections)
	}
	if sections[0] != "## Only Section\nbody" {
		t.Fatalf("unexpected section %q", sections[0])
	}
}

func TestSplitDocumentWithoutHeadings(t *testing.T) {
	s := NewSectionSplitter()

	sections := s.Split("just a plain page of OCR text")
	if len(sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(sections))
	}
}

func TestSplitEmptyDocument(t *testing.T) {
	s := NewSectionSplitter()

	if sections := s.Split("  \n "); sections != nil {
		t.Fatalf("blank input should produce no sections, got %q", sections)
	}
}
