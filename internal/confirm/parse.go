package confirm

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Alias keys per field, canonical key first, then known alternate and
// localized spellings in priority order. The first non-empty value wins.
var fieldAliases = map[string][]string{
	"book_id":       {"book_id", "id", "ma_sach"},
	"book_title":    {"book_title", "title", "ten_sach"},
	"author":        {"author", "tac_gia"},
	"category":      {"category", "genre", "the_loai"},
	"quantity":      {"quantity", "so_luong"},
	"customer_name": {"customer_name", "name", "ten_khach_hang", "ho_ten"},
	"phone":         {"phone", "phone_number", "so_dien_thoai", "sdt"},
	"address":       {"address", "dia_chi"},
	"price":         {"price", "gia"},
}

// One pattern per alias key, kept in the alias declaration order so the
// canonical key wins over aliases even when the alias appears earlier in
// the payload.
var fieldPatterns = buildFieldPatterns()

func buildFieldPatterns() map[string][]*regexp.Regexp {
	patterns := make(map[string][]*regexp.Regexp, len(fieldAliases))
	for field, keys := range fieldAliases {
		for _, key := range keys {
			// Tolerates an optional opening brace or quote before the
			// value and terminates at the next structural character or
			// end of string. The leading class keeps "id" from matching
			// inside "book_id".
			expr := `(?i)(?:^|[\s{,"'])` + key +
				`["']?\s*:\s*["'{]?\s*([^"',}]*)`
			patterns[field] = append(patterns[field], regexp.MustCompile(expr))
		}
	}
	return patterns
}

// Parsing tiers, for instrumentation.
const (
	TierStrict = "strict"
	TierRegex  = "regex"
)

// ParseRecord turns a raw confirmation payload into a Record. It never
// fails: a payload neither tier can make sense of yields an empty record,
// which the consumer renders as an "could not process order" notice.
//
// Tier 1 repairs the payload and attempts a strict structured decode.
// Tier 2 extracts each field independently by alias-aware regex. First
// success wins; post-processing is identical for both tiers.
func ParseRecord(raw string) Record {
	rec, _ := ParseRecordTier(raw)
	return rec
}

// ParseRecordTier additionally reports which tier produced the record.
func ParseRecordTier(raw string) (Record, string) {
	if strings.TrimSpace(raw) == "" {
		return Record{}.normalize(), TierRegex
	}

	repaired := Repair(raw)
	if gjson.Valid(repaired) {
		if obj := gjson.Parse(repaired); obj.IsObject() {
			return recordFromObject(obj).normalize(), TierStrict
		}
	}

	return recordFromRegex(collapseWhitespace(raw)).normalize(), TierRegex
}

func recordFromObject(obj gjson.Result) Record {
	get := func(field string) string {
		for _, key := range fieldAliases[field] {
			if v := obj.Get(key); v.Exists() && v.String() != "" {
				return v.String()
			}
		}
		return ""
	}
	return Record{
		BookID:       get("book_id"),
		BookTitle:    get("book_title"),
		Author:       get("author"),
		Category:     get("category"),
		Quantity:     get("quantity"),
		CustomerName: get("customer_name"),
		Phone:        get("phone"),
		Address:      get("address"),
		Price:        get("price"),
	}
}

func recordFromRegex(payload string) Record {
	get := func(field string) string {
		for _, p := range fieldPatterns[field] {
			if m := p.FindStringSubmatch(payload); m != nil && strings.TrimSpace(m[1]) != "" {
				return m[1]
			}
		}
		return ""
	}
	return Record{
		BookID:       get("book_id"),
		BookTitle:    get("book_title"),
		Author:       get("author"),
		Category:     get("category"),
		Quantity:     get("quantity"),
		CustomerName: get("customer_name"),
		Phone:        get("phone"),
		Address:      get("address"),
		Price:        get("price"),
	}
}
