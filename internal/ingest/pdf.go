package ingest

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	rpdf "rsc.io/pdf"
)

// dateSnippetRegexes match the date notations Korean announcement PDFs use.
// Matches are collected as raw fragments; interpretation belongs to the
// keydate parser.
var dateSnippetRegexes = []*regexp.Regexp{
	regexp.MustCompile(`20\d{2}\s*[년.\-/]\s*\d{1,2}\s*[월.\-/]\s*\d{1,2}\s*일?`),
	regexp.MustCompile(`\d{1,2}\s*월\s*\d{1,2}\s*일(\s*(오전|오후)?\s*\d{1,2}\s*시(\s*\d{1,2}\s*분)?)?`),
	regexp.MustCompile(`\d{1,2}\s*[./]\s*\d{1,2}\s*\(\S\)`),
}

// extractPDFText walks every page of the document. rsc.io/pdf panics on some
// malformed files, so the walk runs behind a recover.
func extractPDFText(content []byte) (text string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("pdf parser panic: %v", recovered)
			text = ""
		}
	}()

	reader, err := rpdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		for _, fragment := range page.Content().Text {
			builder.WriteString(fragment.S)
			builder.WriteString(" ")
		}
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// DateFragmentsFromPDF returns the unique date-text fragments found in a PDF
// attachment, for feeding into AI extraction alongside the notice body.
func DateFragmentsFromPDF(content []byte) []string {
	text, err := extractPDFText(content)
	if err != nil {
		return nil
	}
	return dateFragmentsFromText(text)
}

func dateFragmentsFromText(text string) []string {
	var fragments []string
	for _, expr := range dateSnippetRegexes {
		for _, match := range expr.FindAllString(text, -1) {
			fragments = appendUnique(fragments, normalizeSpace(match))
		}
	}
	return fragments
}
