package parser

import (
	"strings"
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Go Style\ndescription: How we write Go\ntags:\n  - go\n  - style\ndifficulty: intermediate\n---\n# Go Style\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Matter.Title != "Go Style" {
		t.Errorf("title = %q, want %q", r.Matter.Title, "Go Style")
	}
	if r.Matter.Description != "How we write Go" {
		t.Errorf("description = %q", r.Matter.Description)
	}
	if len(r.Matter.Tags) != 2 || r.Matter.Tags[0] != "go" || r.Matter.Tags[1] != "style" {
		t.Errorf("tags = %v, want [go style]", r.Matter.Tags)
	}
	if r.Matter.Difficulty != "intermediate" {
		t.Errorf("difficulty = %q", r.Matter.Difficulty)
	}
	if r.Body != "# Go Style\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Matter.Title != "" {
		t.Errorf("expected empty matter, got title %q", r.Matter.Title)
	}
	if r.Body != string(input) {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_InvalidYAMLFails(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	_, err := Parse(input)
	if err == nil {
		t.Fatal("expected error for malformed front-matter")
	}
	if !strings.Contains(err.Error(), "front-matter") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParse_UnterminatedFrontmatterFails(t *testing.T) {
	input := []byte("---\ntitle: Oops\nno closing delimiter\n")
	_, err := Parse(input)
	if err == nil {
		t.Fatal("expected error for unterminated front-matter")
	}
}

func TestParse_UnknownKeysIgnored(t *testing.T) {
	input := []byte("---\ntitle: T\ncustom_field: whatever\n---\nBody\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Matter.Title != "T" {
		t.Errorf("title = %q, want %q", r.Matter.Title, "T")
	}
}

func TestFirstLine(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{"# Heading\nActual text", "Heading"},
		{"\n\nplain opener\nmore", "plain opener"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := FirstLine(tc.body); got != tc.want {
			t.Errorf("FirstLine(%q) = %q, want %q", tc.body, got, tc.want)
		}
	}
}
