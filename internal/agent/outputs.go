package agent

import "strings"

// parseIntent pulls the intent keyword out of the model's reply, which
// may be the bare keyword or a sentence containing it. Unknown wins when
// nothing recognizable is present.
func parseIntent(content string) string {
	lower := strings.ToLower(content)
	// order_book first: a reply mentioning both usually explains an
	// order in terms of a found book.
	if strings.Contains(lower, "order_book") {
		return "order_book"
	}
	if strings.Contains(lower, "search_book") {
		return "search_book"
	}
	return "unknown"
}
