package domain

import (
	"strings"

	"golang.org/x/net/html"
)

// CleanHTML unescapes entities, strips markup and trims whitespace.
// Empty or markup-only input yields "".
func CleanHTML(s string) string {
	if s == "" {
		return ""
	}
	z := html.NewTokenizer(strings.NewReader(html.UnescapeString(s)))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}
