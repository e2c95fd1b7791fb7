package confirm

import (
	"fmt"
	"strings"
)

const (
	openTag  = "<confirm>"
	closeTag = "</confirm>"

	// Placeholder marks where the renderer substitutes the order card.
	Placeholder = "{{order-card}}"
)

// ExtractBlock finds the first closed confirmation block in assistant text.
// It returns the raw payload between the tags and the text with the block
// replaced by Placeholder. Only the first closed block is processed; a
// second block in the same message stays in the text untouched. If the
// close tag is missing the text is returned verbatim with found=false, so
// output we cannot understand is never mangled.
func ExtractBlock(text string) (payload, rendered string, found bool) {
	start := strings.Index(text, openTag)
	if start < 0 {
		return "", text, false
	}
	rest := text[start+len(openTag):]
	end := strings.Index(rest, closeTag)
	if end < 0 {
		return "", text, false
	}
	payload = rest[:end]
	rendered = text[:start] + Placeholder + rest[end+len(closeTag):]
	return payload, rendered, true
}

// FormatBlock renders a record as a confirmation block in the loose format
// the assistant emits: unquoted keys, quoted values.
func FormatBlock(r Record) string {
	return fmt.Sprintf(`%s{
book_title: %q,
quantity: %q,
customer_name: %q,
phone: %q,
address: %q,
book_id: %q,
author: %q,
category: %q,
price: %q
}%s`, openTag, r.BookTitle, r.Quantity, r.CustomerName, r.Phone, r.Address,
		r.BookID, r.Author, r.Category, r.Price, closeTag)
}
