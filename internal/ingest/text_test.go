package ingest

import (
	"strings"
	"testing"
)

func TestHTMLToText_CollapsesWhitespace(t *testing.T) {
	html := `<div><p>장학금   신청</p>
	<p>마감:  12.17</p></div>`

	out := HTMLToText(html)
	if out != "장학금 신청 마감: 12.17" {
		t.Fatalf("unexpected text: %q", out)
	}
}

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]string{
		"[장학]":    "scholarship",
		"장학 공지":   "scholarship", // specific hint wins over generic
		"교직원 채용":  "recruitment",
		"학사 일정":   "academic",
		"일반":      "general",
		"전혀 다른 것": "",
		"":        "",
	}
	for in, want := range cases {
		if got := normalizeCategory(in); got != want {
			t.Fatalf("normalizeCategory(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestDateFragmentsFromText(t *testing.T) {
	text := "신청 기간: 2025년 11월 3일 ~ 11월 30일 오후 6시, 발표 12/15(월), 문의는 행정실"

	fragments := dateFragmentsFromText(text)
	if len(fragments) == 0 {
		t.Fatal("expected date fragments")
	}

	joined := strings.Join(fragments, " | ")
	for _, want := range []string{"2025년 11월 3일", "11월 30일", "12/15(월)"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected fragment containing %q, got %s", want, joined)
		}
	}
}

func TestSourceIDFromURL(t *testing.T) {
	cases := map[string]string{
		"https://see.snu.ac.kr/board/view?articleNo=1234":   "1234",
		"https://www.yonsei.ac.kr/notice.jsp?idx=77&page=2": "77",
		"https://example.ac.kr/board/notice/9910":           "9910",
	}
	for in, want := range cases {
		if got := sourceIDFromURL(in); got != want {
			t.Fatalf("sourceIDFromURL(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestParsePostedAt(t *testing.T) {
	if parsePostedAt("2025-11-03") == nil {
		t.Fatal("expected ISO listing date to parse")
	}
	if parsePostedAt("2025.11.03") == nil {
		t.Fatal("expected dotted listing date to parse")
	}
	if parsePostedAt("새 글") != nil {
		t.Fatal("expected non-date text to be nil")
	}
}
