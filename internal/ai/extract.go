package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

// KeyDateItem is one dated item the model found in a notice.
type KeyDateItem struct {
	Type string `json:"type"`
	Date string `json:"date"`
	ISO  string `json:"iso"`
}

// QualificationData is the structured metadata extracted from a notice body.
// KeyDates keeps the original text fragments; ISO fields are filled only
// when the model is confident about the concrete timestamp.
type QualificationData struct {
	KeyDates      []KeyDateItem `json:"key_dates"`
	StartISO      string        `json:"start_iso"`
	EndISO        string        `json:"end_iso"`
	Category      string        `json:"category"`
	Qualification string        `json:"qualification"`
	Summary       string        `json:"summary"`
}

// ExtractQualification asks the model for structured qualification metadata.
// Korean announcements mix formats freely, so the prompt insists on keeping
// date fragments verbatim — downstream parsing owns interpretation.
func (c *OllamaClient) ExtractQualification(ctx context.Context, title, url, text string) (*QualificationData, error) {
	prompt := fmt.Sprintf(`You are an assistant for a Korean university notice board. Extract key information from the following announcement into JSON.

Input:
Title: %s
URL: %s
Text:
%s

Instructions:
1. key_dates: every deadline, interview date, result announcement or other significant date. "type" is a short Korean label (예: "서류 마감", "면접"), "date" is the EXACT date text copied verbatim from the announcement, "iso" is the ISO 8601 timestamp only when the text states it unambiguously, else null.
2. start_iso / end_iso: the application window boundaries in ISO 8601 when explicitly stated, else null.
3. category: one of "scholarship", "recruitment", "academic", "event", "general".
4. qualification: the eligibility/qualification wording copied from the text, condensed.
5. summary: 1-2 neutral Korean sentences.

JSON Schema:
{
	"key_dates": [{"type": "string", "date": "string", "iso": "ISO 8601 or null"}],
	"start_iso": "ISO 8601 or null",
	"end_iso": "ISO 8601 or null",
	"category": "string",
	"qualification": "string",
	"summary": "string"
}

Respond ONLY with the JSON object.`, title, url, text)

	// JSON mode first; models that ignore it get a plain-text retry with
	// robust extraction.
	resp, err := c.GenerateCompletion(ctx, prompt, true)
	if err == nil {
		if data, parseErr := parseQualificationResponse(resp); parseErr == nil {
			return data, nil
		} else {
			log.Printf("JSON mode failed parsing: %v. Retrying with text mode...", parseErr)
		}
	} else {
		log.Printf("JSON mode generation failed: %v. Retrying with text mode...", err)
	}

	resp, err = c.GenerateCompletion(ctx, prompt, false)
	if err != nil {
		return nil, err
	}

	data, err := parseQualificationResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse LLM JSON after retry: %w", err)
	}

	return data, nil
}

func parseQualificationResponse(resp string) (*QualificationData, error) {
	cleaned := strings.TrimSpace(resp)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	if jsonStr, ok := extractFirstJSONObject(cleaned); ok {
		cleaned = jsonStr
	}

	var data QualificationData
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// extractFirstJSONObject finds the first outermost balanced {...}, skipping
// any chatter the model wrapped around it.
func extractFirstJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		char := s[i]

		if escaped {
			escaped = false
			continue
		}
		if char == '\\' {
			escaped = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			if char == '{' {
				depth++
			} else if char == '}' {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}

	return "", false
}
