package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hyeon/campus-notices/internal/ai"
	"github.com/hyeon/campus-notices/internal/db"
	"github.com/hyeon/campus-notices/internal/models"
)

// Pipeline runs fetch → AI extraction → upsert for configured sources.
type Pipeline struct {
	Store    *db.Store
	Fetcher  *BoardFetcher
	AI       *ai.OllamaClient
	Registry *Registry
}

func NewPipeline(pool *pgxpool.Pool, aiClient *ai.OllamaClient, registry *Registry) *Pipeline {
	return &Pipeline{
		Store:    db.NewStore(pool),
		Fetcher:  NewBoardFetcher(),
		AI:       aiClient,
		Registry: registry,
	}
}

// IngestSource crawls one source and saves its notices.
func (p *Pipeline) IngestSource(ctx context.Context, sourceID string) (IngestionStats, error) {
	stats := IngestionStats{SourceID: sourceID}

	src := p.Registry.Find(sourceID)
	if src == nil {
		return stats, fmt.Errorf("unknown source: %s", sourceID)
	}

	log.Printf("Starting ingestion for source %s (%s)", src.ID, src.Domain)

	raws, err := p.Fetcher.FetchBoard(ctx, *src)
	if err != nil {
		return stats, fmt.Errorf("fetch error: %w", err)
	}
	stats.Found = len(raws)

	for _, raw := range raws {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if err := p.saveNotice(ctx, raw); err != nil {
			stats.Errors++
			log.Printf("Failed to save %q: %v", raw.Title, err)
			continue
		}
		stats.Saved++
	}

	log.Printf("Ingestion complete for %s: %d/%d saved, %d errors", sourceID, stats.Saved, stats.Found, stats.Errors)
	return stats, nil
}

// IngestAll runs every configured source, continuing past per-source
// failures.
func (p *Pipeline) IngestAll(ctx context.Context) []IngestionStats {
	var all []IngestionStats
	for _, src := range p.Registry.Sources {
		stats, err := p.IngestSource(ctx, src.ID)
		if err != nil {
			log.Printf("Source %s failed: %v", src.ID, err)
		}
		all = append(all, stats)
	}
	return all
}

func (p *Pipeline) saveNotice(ctx context.Context, raw RawNotice) error {
	notice := models.Notice{
		SourceDomain: raw.SourceDomain,
		SourceID:     raw.SourceID,
		Title:        raw.Title,
		ExternalURL:  raw.ExternalURL,
		Category:     raw.Category,
		Body:         raw.Body,
		PostedAt:     raw.PostedAt,
	}
	if notice.Category == "" {
		notice.Category = models.GeneralCategory
	}

	if p.AI != nil && strings.TrimSpace(raw.Body) != "" {
		p.enrichNotice(ctx, raw, &notice)
	}

	_, err := p.Store.UpsertNotice(ctx, notice)
	return err
}

// enrichNotice attaches AI-extracted qualification metadata. Extraction is
// best effort: any failure leaves the notice unenriched rather than blocking
// the save.
func (p *Pipeline) enrichNotice(ctx context.Context, raw RawNotice, notice *models.Notice) {
	text := raw.Body
	if fragments := p.attachmentDateFragments(ctx, raw.PDFLinks); len(fragments) > 0 {
		text += "\n첨부파일 일정: " + strings.Join(fragments, "; ")
	}

	data, err := p.AI.ExtractQualification(ctx, raw.Title, raw.ExternalURL, text)
	if err != nil {
		log.Printf("AI extraction failed for %q: %v", raw.Title, err)
		return
	}

	if encoded, err := json.Marshal(data); err == nil {
		notice.QualificationAI = encoded
	}
	if data.Summary != "" {
		notice.Summary = data.Summary
	}
	if data.Category != "" {
		notice.Category = data.Category
	}
	if t, ok := parseISOTimestamp(data.StartISO); ok {
		notice.StartAtAI = &t
	}
	if t, ok := parseISOTimestamp(data.EndISO); ok {
		notice.EndAtAI = &t
	}
}

// attachmentDateFragments downloads PDF attachments and scans them for date
// fragments the detail page body may not contain (timetables are routinely
// published only as attachments).
func (p *Pipeline) attachmentDateFragments(ctx context.Context, links []string) []string {
	var fragments []string
	for _, link := range links {
		content, err := fetchPDF(ctx, link)
		if err != nil {
			log.Printf("attachment fetch failed for %s: %v", link, err)
			continue
		}
		for _, fragment := range DateFragmentsFromPDF(content) {
			fragments = appendUnique(fragments, fragment)
		}
	}
	return fragments
}

func fetchPDF(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
}

func parseISOTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "null") {
		return time.Time{}, false
	}
	for _, format := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(format, raw, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
