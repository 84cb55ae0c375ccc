package html

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

var markdownOptions = md.Options{
	HeadingStyle:     "atx",
	BulletListMarker: "-",
	CodeBlockStyle:   "fenced",
	Fence:            "```",
	EmDelimiter:      "*",
	StrongDelimiter:  "**",
}

// ToMarkdown converts a content fragment to Markdown. Scripts and styles are
// dropped; relative links are kept as written.
func ToMarkdown(fragment string) (string, error) {
	opts := markdownOptions
	conv := md.NewConverter("", true, &opts)
	conv.Remove("script", "style", "template")

	out, err := conv.ConvertString(fragment)
	if err != nil {
		return "", fmt.Errorf("convert fragment: %w", err)
	}
	return strings.TrimSpace(out) + "\n", nil
}
