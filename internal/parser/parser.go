// Package parser extracts YAML front-matter and the Markdown body from
// instruction documents.
package parser

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Matter is the recognized front-matter schema. Unknown keys are ignored.
type Matter struct {
	Title         string   `yaml:"title"`
	Description   string   `yaml:"description"`
	Tags          []string `yaml:"tags"`
	Language      string   `yaml:"language"`
	Framework     string   `yaml:"framework"`
	Compatibility []string `yaml:"compatibility"`
	Difficulty    string   `yaml:"difficulty"`
	Topics        []string `yaml:"topics"`
	Contributor   string   `yaml:"contributor"`
}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Matter Matter
	Body   string
}

// Parse splits front-matter (between leading --- delimiters) from the body.
// A file without front-matter is valid: the whole content is body. A file
// with a front-matter block that is not valid YAML is an error, because the
// indexer runs offline and a silently skipped document would produce an
// incomplete catalog with no diagnostic.
func Parse(data []byte) (*Result, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return &Result{Body: string(data)}, nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, fmt.Errorf("parser: unterminated front-matter block")
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var m Matter
	if err := yaml.Unmarshal(yamlBlock, &m); err != nil {
		return nil, fmt.Errorf("parser: invalid front-matter: %w", err)
	}

	return &Result{Matter: m, Body: body}, nil
}

// FirstLine returns the first non-empty, non-heading-marker line of body,
// used as the default description when front-matter omits one.
func FirstLine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(strings.TrimLeft(line, "# "))
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
