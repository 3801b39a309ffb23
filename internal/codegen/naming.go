package codegen

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	snakeWordRe  = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	snakeLowerRe = regexp.MustCompile(`([a-z0-9])([A-Z])`)
)

// SnakeCase converts a camelCase or PascalCase name to snake_case.
//
//	SnakeCase("systemTime")  == "system_time"
//	SnakeCase("HTTPHeaders") == "http_headers"
func SnakeCase(name string) string {
	s := snakeWordRe.ReplaceAllString(name, "${1}_${2}")
	s = snakeLowerRe.ReplaceAllString(s, "${1}_${2}")
	return strings.ToLower(s)
}

// ScreamingSnake is SnakeCase upper-cased.
func ScreamingSnake(name string) string {
	return strings.ToUpper(SnakeCase(name))
}

// Capitalize upper-cases the first character only.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// LowerFirst lower-cases the first character only.
func LowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

var rustKeywords = map[string]bool{
	"as": true, "async": true, "await": true, "box": true, "break": true,
	"const": true, "continue": true, "crate": true, "dyn": true, "else": true,
	"enum": true, "extern": true, "false": true, "fn": true, "for": true,
	"if": true, "impl": true, "in": true, "let": true, "loop": true,
	"match": true, "mod": true, "move": true, "mut": true, "pub": true,
	"ref": true, "return": true, "static": true, "struct": true, "trait": true,
	"true": true, "type": true, "unsafe": true, "use": true, "where": true,
	"while": true, "yield": true,
}

// rustField returns the snake_case field identifier, escaping keywords.
func rustField(name string) string {
	s := SnakeCase(name)
	if rustKeywords[s] {
		return "r#" + s
	}
	return s
}

// indentLines prefixes every non-empty line with prefix.
func indentLines(prefix string, lines []string) []string {
	if prefix == "" {
		return lines
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		if l == "" {
			out[i] = l
			continue
		}
		out[i] = prefix + l
	}
	return out
}

// splitLines splits text into lines, dropping one trailing newline.
func splitLines(text string) []string {
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
