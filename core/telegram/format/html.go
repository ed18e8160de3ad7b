package format

import "html"

// EscapeHTML escapes user-supplied text for Telegram HTML parse mode.
func EscapeHTML(text string) string {
	if text == "" {
		return ""
	}
	return html.EscapeString(text)
}
