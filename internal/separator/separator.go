// Package separator maps human-friendly field separator names to the
// literal characters written between CSV fields.
package separator

import "strings"

// specialChars holds the named separators. Names are matched case-insensitively;
// escape spellings like `\t` are matched verbatim.
var specialChars = map[string]string{
	"tab":       "\t",
	`\t`:        "\t",
	"comma":     ",",
	"semicolon": ";",
	"pipe":      "|",
	"space":     " ",
	"colon":     ":",
	`\b`:        "\b",
	`\v`:        "\v",
	`\f`:        "\f",
	`\r`:        "\r",
}

// IsSpecial reports whether token names an entry in the separator table.
func IsSpecial(token string) bool {
	_, ok := lookup(token)
	return ok
}

// Resolve returns the literal separator for token. Tokens that are not in the
// table are returned unchanged, so raw characters such as "," or ";" work as-is.
func Resolve(token string) string {
	if sep, ok := lookup(token); ok {
		return sep
	}
	return token
}

func lookup(token string) (string, bool) {
	if sep, ok := specialChars[token]; ok {
		return sep, true
	}
	sep, ok := specialChars[strings.ToLower(strings.TrimSpace(token))]
	return sep, ok
}
