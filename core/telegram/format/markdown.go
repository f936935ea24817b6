package format

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MarkdownV1 denotes Telegram markdown version 1.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram markdown version 2.
	MarkdownV2 = 2
)

const mdV2Specials = "_*[]()~`>#+-=|{}.!\\"

var (
	reV1     = regexp.MustCompile("([_*`\\[])")
	reV2     = regexp.MustCompile("([" + escapeClass(mdV2Specials) + "])")
	reV2Code = regexp.MustCompile("([`\\\\])")
)

// EscapeMarkdown escapes special characters for MarkdownV1 or V2.
// For V2, entityType "pre" or "code" only escapes backticks and backslashes.
func EscapeMarkdown(text string, version int, entityType string) (string, error) {
	switch version {
	case MarkdownV1:
		return reV1.ReplaceAllString(text, `\$1`), nil
	case MarkdownV2:
		switch strings.ToLower(entityType) {
		case "pre", "code":
			return reV2Code.ReplaceAllString(text, `\$1`), nil
		}
		return reV2.ReplaceAllString(text, `\$1`), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// MD escapes user supplied text for the legacy Markdown parse mode.
func MD(text string) string {
	return reV1.ReplaceAllString(text, `\$1`)
}

// escapeClass backslash-escapes every rune so the set is safe inside [...].
func escapeClass(chars string) string {
	var b strings.Builder
	for _, r := range chars {
		b.WriteByte('\\')
		b.WriteRune(r)
	}
	return b.String()
}
