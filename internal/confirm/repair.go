package confirm

import (
	"regexp"
	"strings"
)

// The repair pipeline recovers common near-miss payload formats the
// upstream generator emits. Each rule is an independent rewrite; the order
// is load-bearing: braces must exist before keys are quoted, keys must be
// quoted before bare values are, the trailing comma is stripped last.

var (
	whitespaceRun = regexp.MustCompile(`\s+`)

	// key: "value…key2: "value2"  — an ellipsis swallowed the separating
	// comma between two pairs, usually the closing quote with it. Both
	// truncation shapes collapse to `", key2:`.
	ellipsisJoin = regexp.MustCompile(`"?\x{2026}+\s*"?\s*([A-Za-z_][A-Za-z0-9_]*)\s*:`)

	bareKey = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)

	// An unquoted scalar value up to the next structural character.
	bareValue = regexp.MustCompile(`:\s*([^"{}\[\],\s][^"{}\[\],]*?)\s*([,}])`)

	trailingComma = regexp.MustCompile(`,\s*}`)
)

func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return whitespaceRun.ReplaceAllString(s, " ")
}

func repairEllipsisJoin(s string) string {
	return ellipsisJoin.ReplaceAllString(s, `", $1:`)
}

func quoteBareKeys(s string) string {
	return bareKey.ReplaceAllString(s, `$1"$2":`)
}

func quoteBareValues(s string) string {
	return bareValue.ReplaceAllString(s, `: "$1"$2`)
}

func ensureBraces(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		s = "{" + s
	}
	if !strings.HasSuffix(s, "}") {
		s = s + "}"
	}
	return s
}

func stripTrailingComma(s string) string {
	return trailingComma.ReplaceAllString(s, "}")
}

// Repair runs the full rewrite pipeline over a raw payload and returns a
// candidate for strict JSON decoding. Best effort: the result is not
// guaranteed to be valid JSON, the caller falls back to per-field
// extraction when it is not.
func Repair(raw string) string {
	s := collapseWhitespace(raw)
	s = repairEllipsisJoin(s)
	s = ensureBraces(s)
	s = quoteBareKeys(s)
	s = quoteBareValues(s)
	s = stripTrailingComma(s)
	return s
}
