package ingest

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// normalizeSpace collapses runs of whitespace into single spaces and trims.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// HTMLToText converts HTML to plain text, collapsing whitespace.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return normalizeSpace(html)
	}
	return normalizeSpace(doc.Text())
}

// appendUnique appends a string if it is not already present
// (case-insensitive).
func appendUnique(list []string, v string) []string {
	vClean := strings.TrimSpace(v)
	if vClean == "" {
		return list
	}
	for _, existing := range list {
		if strings.EqualFold(existing, vClean) {
			return list
		}
	}
	return append(list, vClean)
}

// categoryHints maps badge text seen on Korean notice boards onto the
// canonical category set. Checked in order: the specific categories win
// over the generic ones.
var categoryHints = []struct {
	hint     string
	category string
}{
	{"장학", "scholarship"},
	{"채용", "recruitment"},
	{"모집", "recruitment"},
	{"학사", "academic"},
	{"행사", "event"},
	{"일반", "general"},
	{"공지", "general"},
	{"안내", "general"},
}

func normalizeCategory(text string) string {
	text = normalizeSpace(text)
	if text == "" {
		return ""
	}
	for _, h := range categoryHints {
		if strings.Contains(text, h.hint) {
			return h.category
		}
	}
	return ""
}
