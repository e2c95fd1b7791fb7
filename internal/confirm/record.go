package confirm

import "strings"

// Record is the normalized order intent carried by a confirmation block.
// Every field is always present as a string; empty means "not provided".
// Numeric coercion happens at request-build time, never here, so the UI
// layer can render values without seeing parse artifacts.
type Record struct {
	BookID       string `json:"book_id"`
	BookTitle    string `json:"book_title"`
	Author       string `json:"author"`
	Category     string `json:"category"`
	Quantity     string `json:"quantity"`
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Price        string `json:"price"`
}

// Empty reports whether no usable field survived parsing. A record with
// only the quantity default set still counts as empty.
func (r Record) Empty() bool {
	return r.BookID == "" && r.BookTitle == "" && r.Author == "" &&
		r.Category == "" && r.CustomerName == "" && r.Phone == "" &&
		r.Address == "" && r.Price == "" &&
		(r.Quantity == "" || r.Quantity == "1")
}

// sentinels the upstream generator emits in place of a missing value.
var sentinels = map[string]bool{
	`""`:        true,
	`''`:        true,
	"None":      true,
	"null":      true,
	"undefined": true,
}

// normalizeField strips ellipses and surrounding quotes, trims whitespace
// and collapses sentinel "empty" strings to the true empty string.
// Running it twice on an already-normalized value is a no-op.
func normalizeField(v string) string {
	v = strings.ReplaceAll(v, "…", "")
	v = strings.TrimSpace(v)
	for len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			v = strings.TrimSpace(v[1 : len(v)-1])
			continue
		}
		break
	}
	if sentinels[v] {
		return ""
	}
	return v
}

// normalize applies field normalization to the whole record and fills the
// quantity default. Called once per parse, after either tier produced the
// field source.
func (r Record) normalize() Record {
	r.BookID = normalizeField(r.BookID)
	r.BookTitle = normalizeField(r.BookTitle)
	r.Author = normalizeField(r.Author)
	r.Category = normalizeField(r.Category)
	r.Quantity = normalizeField(r.Quantity)
	r.CustomerName = normalizeField(r.CustomerName)
	r.Phone = normalizeField(r.Phone)
	r.Address = normalizeField(r.Address)
	r.Price = normalizeField(r.Price)
	if r.Quantity == "" {
		r.Quantity = "1"
	}
	return r
}
