package eligibility

import (
	"testing"
	"time"

	"github.com/hyeon/campus-notices/internal/models"
)

func TestMapAt_ExplicitEnum(t *testing.T) {
	now := time.Now()

	cases := []struct {
		raw  string
		want models.Eligibility
	}{
		{"ELIGIBLE", models.Eligible},
		{"eligible", models.Eligible},
		{" borderline ", models.Borderline},
		{"INELIGIBLE", models.Ineligible},
	}
	for _, tc := range cases {
		res := MapAt(map[string]any{"eligibility": tc.raw}, "1", now)
		if res.Eligibility == nil || *res.Eligibility != tc.want {
			t.Fatalf("eligibility %q: expected %s, got %v", tc.raw, tc.want, res.Eligibility)
		}
	}

	// Unknown enum value: undetermined, not an error.
	res := MapAt(map[string]any{"eligibility": "MAYBE"}, "1", now)
	if res.Eligibility != nil {
		t.Fatalf("unknown enum must map to nil, got %v", *res.Eligibility)
	}
}

func TestMapAt_LegacyBooleanFlag(t *testing.T) {
	now := time.Now()

	res := MapAt(map[string]any{"eligible": true}, "1", now)
	if res.Eligibility == nil || *res.Eligibility != models.Eligible {
		t.Fatalf("eligible=true must map to ELIGIBLE, got %v", res.Eligibility)
	}

	res = MapAt(map[string]any{"eligible": false}, "1", now)
	if res.Eligibility == nil || *res.Eligibility != models.Ineligible {
		t.Fatalf("eligible=false must map to INELIGIBLE, got %v", res.Eligibility)
	}

	res = MapAt(map[string]any{}, "1", now)
	if res.Eligibility != nil {
		t.Fatalf("absent flag must map to nil, got %v", *res.Eligibility)
	}
}

func TestMapAt_ReasonsFallbackChain(t *testing.T) {
	now := time.Now()

	res := MapAt(map[string]any{
		"reasons":     []any{"학점 기준 충족"},
		"raw_reasons": []any{"gpa_ok"},
		"reason":      "single",
	}, "1", now)
	if len(res.Reasons) != 1 || res.Reasons[0] != "학점 기준 충족" {
		t.Fatalf("human-readable reasons must win, got %v", res.Reasons)
	}

	res = MapAt(map[string]any{
		"reasons":     []any{},
		"raw_reasons": []any{"gpa_ok"},
	}, "1", now)
	if len(res.Reasons) != 1 || res.Reasons[0] != "gpa_ok" {
		t.Fatalf("empty reasons must fall back to raw, got %v", res.Reasons)
	}

	res = MapAt(map[string]any{"reason": "재학생 대상 아님"}, "1", now)
	if len(res.Reasons) != 1 || res.Reasons[0] != "재학생 대상 아님" {
		t.Fatalf("single reason must be wrapped, got %v", res.Reasons)
	}

	res = MapAt(map[string]any{}, "1", now)
	if res.Reasons == nil || len(res.Reasons) != 0 {
		t.Fatalf("no reasons must yield empty non-nil slice, got %v", res.Reasons)
	}
}

func TestMapAt_ListFieldsNeverNil(t *testing.T) {
	res := MapAt(map[string]any{}, "7", time.Now())

	for name, list := range map[string][]string{
		"reasons":      res.Reasons,
		"pass":         res.CriteriaResults.Pass,
		"fail":         res.CriteriaResults.Fail,
		"verify":       res.CriteriaResults.Verify,
		"missing_info": res.MissingInfo,
		"reason_codes": res.ReasonCodes,
	} {
		if list == nil {
			t.Fatalf("%s must default to empty slice, not nil", name)
		}
	}
}

func TestMapAt_MistypedFieldsCoerced(t *testing.T) {
	res := MapAt(map[string]any{
		"reasons":          "not a list",
		"missing_info":     42,
		"reason_codes":     []any{"A1", 2, "B2"},
		"criteria_results": "broken",
	}, "7", time.Now())

	if len(res.Reasons) != 0 || len(res.MissingInfo) != 0 {
		t.Fatalf("mistyped fields must coerce to empty, got %v / %v", res.Reasons, res.MissingInfo)
	}
	if len(res.ReasonCodes) != 2 {
		t.Fatalf("non-string elements must be dropped, got %v", res.ReasonCodes)
	}
	if len(res.CriteriaResults.Pass) != 0 {
		t.Fatalf("broken criteria_results must coerce to empty buckets, got %v", res.CriteriaResults)
	}
}

func TestMapAt_CriteriaAndRaw(t *testing.T) {
	now := time.Date(2025, time.November, 3, 10, 0, 0, 0, time.UTC)
	payload := map[string]any{
		"eligibility": "BORDERLINE",
		"criteria_results": map[string]any{
			"pass":   []any{"재학생"},
			"fail":   []any{"학점"},
			"verify": []any{"소득분위"},
		},
	}

	res := MapAt(payload, "9", now)
	if res.NoticeID != "9" {
		t.Fatalf("unexpected notice id: %s", res.NoticeID)
	}
	if !res.CheckedAt.Equal(now) {
		t.Fatalf("checkedAt must be stamped at mapping time, got %s", res.CheckedAt)
	}
	if len(res.CriteriaResults.Pass) != 1 || len(res.CriteriaResults.Fail) != 1 || len(res.CriteriaResults.Verify) != 1 {
		t.Fatalf("unexpected criteria buckets: %+v", res.CriteriaResults)
	}
	if res.Raw["eligibility"] != "BORDERLINE" {
		t.Fatal("raw payload must be retained untouched")
	}
}
