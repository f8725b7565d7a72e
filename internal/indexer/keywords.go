package indexer

import (
	"regexp"
	"strings"
)

// Fixed keyword lists scanned against document bodies to derive discovery
// tags. The scan is a best-effort heuristic: a keyword appearing in ordinary
// prose ("let it go") still matches, and that is accepted behavior because
// tags are discovery aids, not ground truth.
var (
	languageKeywords = []string{
		"Python", "JavaScript", "TypeScript", "Java", "Kotlin", "Swift",
		"Go", "Rust", "Ruby", "PHP", "C", "C++", "C#", "Scala", "Haskell",
		"Elixir", "Erlang", "Dart", "Lua", "Perl", "R", "SQL", "Shell",
		"Bash", "PowerShell", "HTML", "CSS", "Zig", "Clojure", "F#",
	}
	architectureKeywords = []string{
		"x86", "x64", "ARM", "ARM64", "RISC-V", "WebAssembly", "WASM",
		"AVR", "MIPS", "PowerPC",
	}
	libraryKeywords = []string{
		"React", "Vue", "Angular", "Svelte", "Next.js", "Nuxt", "Astro",
		"Express", "NestJS", "Django", "Flask", "FastAPI", "Rails",
		"Laravel", "Symfony", "Spring", "Quarkus", ".NET", "Flutter",
		"SwiftUI", "Jetpack Compose", "TensorFlow", "PyTorch", "Pandas",
		"NumPy", "jQuery", "Bootstrap", "Tailwind", "Redux", "GraphQL",
		"PostgreSQL", "MySQL", "SQLite", "MongoDB", "Redis", "Kafka",
		"Docker", "Kubernetes", "Terraform",
	}
)

type keywordMatcher struct {
	tag string
	re  *regexp.Regexp
}

var matchers = buildMatchers()

func buildMatchers() []keywordMatcher {
	var out []keywordMatcher
	for _, list := range [][]string{languageKeywords, architectureKeywords, libraryKeywords} {
		for _, kw := range list {
			out = append(out, keywordMatcher{tag: kw, re: wholeWordRe(kw)})
		}
	}
	return out
}

// wholeWordRe builds a case-insensitive whole-word pattern. \b does not work
// for keywords that start or end with non-word characters (C++, .NET), so the
// boundaries are expressed as explicit non-word-or-edge groups.
func wholeWordRe(keyword string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(^|[^\w.+#])` + regexp.QuoteMeta(keyword) + `($|[^\w.+#])`)
}

// ScanTags returns every keyword whose whole-word pattern matches anywhere in
// body, in list order.
func ScanTags(body string) []string {
	var out []string
	for _, m := range matchers {
		if m.re.MatchString(body) {
			out = append(out, m.tag)
		}
	}
	return out
}

// normalizeTag lowercases a tag for set membership so that "React" from the
// keyword scan and "react" from front-matter collapse to one tag.
func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
