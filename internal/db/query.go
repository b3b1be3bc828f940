package db

import (
	"fmt"
	"strconv"
	"strings"
)

// TagMatch builds a TAG clause matching any of values: @field:{a | b}.
func TagMatch(field string, values ...string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = tagEscaper.Replace(v)
	}
	return fmt.Sprintf("@%s:{%s}", field, strings.Join(escaped, " | "))
}

// NumericRange builds an inclusive NUMERIC clause: @field:[from to].
func NumericRange(field string, from, to float64) string {
	return fmt.Sprintf("@%s:[%s %s]", field, formatBound(from), formatBound(to))
}

// TextAll builds a TEXT clause requiring every term (intersection).
// Terms containing whitespace are matched as exact phrases.
func TextAll(field string, terms []string) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		if t == "" {
			continue
		}
		if strings.ContainsAny(t, " \t") {
			words := strings.Fields(t)
			for i, w := range words {
				words[i] = queryEscaper.Replace(w)
			}
			parts = append(parts, `"`+strings.Join(words, " ")+`"`)
			continue
		}
		parts = append(parts, queryEscaper.Replace(t))
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("@%s:(%s)", field, strings.Join(parts, " "))
}

// And joins clauses into an intersection, skipping empty ones.
// An empty result becomes MatchAll.
func And(clauses ...string) string {
	parts := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if c != "" && c != MatchAll {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		return MatchAll
	}
	return strings.Join(parts, " ")
}

// Not negates a clause.
func Not(clause string) string {
	if clause == "" {
		return ""
	}
	return "-" + clause
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var tagEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"/", "\\/",
	"?", "\\?",
	"|", "\\|",
	" ", "\\ ",
)

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`:`, `\:`,
)
