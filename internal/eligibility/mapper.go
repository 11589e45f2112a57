// Package eligibility maps the backend's qualification judgment for a notice
// into a stable display contract and hosts the thin client that performs the
// verification call.
package eligibility

import (
	"strings"
	"time"

	"github.com/hyeon/campus-notices/internal/models"
)

// Map normalizes a raw verification payload into an EligibilityResult. The
// backend's shapes are heterogeneous: the verdict may be an explicit enum or
// a legacy boolean flag, reasons may arrive under several keys, and any list
// field may be missing or mistyped. The result is always well formed — every
// list field is non-nil — even for an empty or partial payload.
func Map(payload map[string]any, noticeID string) models.EligibilityResult {
	return MapAt(payload, noticeID, time.Now())
}

// MapAt is Map with an explicit mapping time. CheckedAt is stamped locally
// rather than trusted from the backend; mapping happens synchronously right
// after the verification call resolves, so local time is the check time.
func MapAt(payload map[string]any, noticeID string, now time.Time) models.EligibilityResult {
	if payload == nil {
		payload = map[string]any{}
	}

	return models.EligibilityResult{
		NoticeID:    noticeID,
		Eligibility: mapVerdict(payload),
		CheckedAt:   now,
		Reasons:     mapReasons(payload),
		CriteriaResults: models.CriteriaResults{
			Pass:   criteriaList(payload, "pass"),
			Fail:   criteriaList(payload, "fail"),
			Verify: criteriaList(payload, "verify"),
		},
		MissingInfo: stringList(payload["missing_info"]),
		ReasonCodes: stringList(payload["reason_codes"]),
		Raw:         payload,
	}
}

// mapVerdict resolves the verdict from the explicit enum field, falling back
// to the legacy boolean flag. Absence of both means undetermined (nil).
func mapVerdict(payload map[string]any) *models.Eligibility {
	if s, ok := payload["eligibility"].(string); ok {
		switch models.Eligibility(strings.ToUpper(strings.TrimSpace(s))) {
		case models.Eligible:
			return verdict(models.Eligible)
		case models.Borderline:
			return verdict(models.Borderline)
		case models.Ineligible:
			return verdict(models.Ineligible)
		}
	}

	if b, ok := payload["eligible"].(bool); ok {
		if b {
			return verdict(models.Eligible)
		}
		return verdict(models.Ineligible)
	}

	return nil
}

func verdict(e models.Eligibility) *models.Eligibility {
	return &e
}

// mapReasons prefers the human-readable reasons array, then the raw reasons
// array, then a single reason string wrapped in a one-element slice.
func mapReasons(payload map[string]any) []string {
	if reasons := stringList(payload["reasons"]); len(reasons) > 0 {
		return reasons
	}
	if reasons := stringList(payload["raw_reasons"]); len(reasons) > 0 {
		return reasons
	}
	if s, ok := payload["reason"].(string); ok && strings.TrimSpace(s) != "" {
		return []string{s}
	}
	return []string{}
}

func criteriaList(payload map[string]any, bucket string) []string {
	results, ok := payload["criteria_results"].(map[string]any)
	if !ok {
		return []string{}
	}
	return stringList(results[bucket])
}

// stringList coerces an arbitrary payload value into a non-nil string slice,
// dropping non-string elements.
func stringList(v any) []string {
	out := []string{}
	items, ok := v.([]any)
	if !ok {
		return out
	}
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
