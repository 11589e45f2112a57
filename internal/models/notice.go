package models

import (
	"encoding/json"
	"time"
)

// Notice is a single university announcement as stored locally after ingest.
// QualificationAI carries the raw AI-extracted metadata exactly as produced
// upstream; its shape is unstable (see internal/keydate), so it is kept as
// raw JSON rather than a typed struct.
type Notice struct {
	ID              int64           `json:"id"`
	SourceDomain    string          `json:"source_domain"`
	SourceID        string          `json:"source_id"`
	Title           string          `json:"title"`
	ExternalURL     string          `json:"external_url"`
	Category        string          `json:"category"`
	Body            string          `json:"body"`
	Summary         string          `json:"summary"`
	QualificationAI json.RawMessage `json:"qualification_ai"`
	StartAtAI       *time.Time      `json:"start_at_ai"`
	EndAtAI         *time.Time      `json:"end_at_ai"`
	PostedAt        *time.Time      `json:"posted_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// GeneralCategory marks purely informational notices. Eligibility
// verification is skipped for these — there is nothing to qualify for.
const GeneralCategory = "general"

// IsGeneral reports whether the notice is informational only.
func (n Notice) IsGeneral() bool {
	return n.Category == GeneralCategory || n.Category == ""
}

// KeyDateEntry is one display-ready dated item derived from a notice's
// qualification metadata. DateText is always the verbatim source fragment;
// ParsedAt is nil when the fragment could not be confidently resolved, and
// consumers must degrade (no automated save, prompt for manual entry).
type KeyDateEntry struct {
	ID        string     `json:"id"`
	TypeLabel string     `json:"type_label"`
	DateText  string     `json:"date_text"`
	ParsedAt  *time.Time `json:"parsed_at"`
}

// Event sources.
const (
	EventSourceManual = "manual"
	EventSourceAuto   = "auto"
)

// CalendarEvent is a user-saved deadline. ID is a locally generated token;
// identity for duplicate detection is (NoticeID, StartAt) instead, enforced
// by the calendar store at write time rather than by storage.
type CalendarEvent struct {
	ID        string     `json:"id"`
	NoticeID  string     `json:"notice_id"`
	Title     string     `json:"title"`
	StartAt   time.Time  `json:"start_date"`
	EndAt     *time.Time `json:"end_date"`
	CreatedAt time.Time  `json:"created_at"`
	Source    string     `json:"source"`
}

// Eligibility verdicts as judged by the backend.
type Eligibility string

const (
	Eligible   Eligibility = "ELIGIBLE"
	Borderline Eligibility = "BORDERLINE"
	Ineligible Eligibility = "INELIGIBLE"
)

// CriteriaResults buckets individual criteria by outcome. Slices are always
// non-nil so presentation code never null-checks.
type CriteriaResults struct {
	Pass   []string `json:"pass"`
	Fail   []string `json:"fail"`
	Verify []string `json:"verify"`
}

// EligibilityResult is the stable display contract produced from a raw
// backend verification payload. Raw keeps the untouched payload for
// forward-compatibility and debugging.
type EligibilityResult struct {
	NoticeID        string          `json:"notice_id"`
	Eligibility     *Eligibility    `json:"eligibility"`
	CheckedAt       time.Time       `json:"checked_at"`
	Reasons         []string        `json:"reasons"`
	CriteriaResults CriteriaResults `json:"criteria_results"`
	MissingInfo     []string        `json:"missing_info"`
	ReasonCodes     []string        `json:"reason_codes"`
	Raw             map[string]any  `json:"raw"`
}
