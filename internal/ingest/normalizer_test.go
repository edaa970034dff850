package ingest

import (
	"strings"
	"testing"
)

func TestNormalizeStripsCitations(t *testing.T) {
	got := Normalize(" (Smith et al., 2020) This is [1] a test.\n")
	if got != "This is a test." {
		t.Errorf("got %q, want %q", got, "This is a test.")
	}
}

func TestNormalizeBracketCitations(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"result [12] holds", "result holds"},
		{"result [3, 4, 5] holds", "result holds"},
		{"array[0] stays", "array stays"}, // numeric brackets are citation noise regardless of position
		{"see (Jones, 1999) here", "see here"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeRemovesURLsAndDOIs(t *testing.T) {
	got := Normalize("see https://example.com/paper?id=1 and doi:10.1000/xyz123 for details")
	if got != "see and for details" {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeDropsPageNumberLines(t *testing.T) {
	got := Normalize("First paragraph.\n\n42\n\nSecond paragraph.")
	if strings.Contains(got, "42") {
		t.Errorf("page number survived: %q", got)
	}
	if !strings.Contains(got, "First paragraph.") || !strings.Contains(got, "Second paragraph.") {
		t.Errorf("prose lost: %q", got)
	}
}

func TestNormalizeRejoinsHyphenatedWords(t *testing.T) {
	got := Normalize("the informa-\ntion content")
	if got != "the information content" {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeReflowsWrappedLines(t *testing.T) {
	got := Normalize("wrapped line one\nwrapped line two\n\nnew paragraph")
	want := "wrapped line one wrapped line two\n\nnew paragraph"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalizeCollapsesBlankRuns(t *testing.T) {
	got := Normalize("alpha beta\n\n\n\n\ngamma delta")
	if got != "alpha beta\n\ngamma delta" {
		t.Errorf("got %q", got)
	}
}

func TestNormalizeRemovesRules(t *testing.T) {
	got := Normalize("above the rule ----- below the rule")
	if strings.Contains(got, "-") {
		t.Errorf("rule survived: %q", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		" (Smith et al., 2020) This is [1] a test.\n",
		"wrapped\nlines\n\nwith paragraphs",
		"hyphen-\nated words and https://example.com links",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizeEmptyAndWhitespace(t *testing.T) {
	if got := Normalize(""); got != "" {
		t.Errorf("empty: got %q", got)
	}
	if got := Normalize("  \n\t \n "); got != "" {
		t.Errorf("whitespace: got %q", got)
	}
}

func TestMergeSingleNewlinesPreservesDoubles(t *testing.T) {
	got := mergeSingleNewlines("a\nb\n\nc\n\n\nd")
	want := "a b\n\nc\n\n\nd"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
