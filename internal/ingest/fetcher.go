package ingest

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

// BoardFetcher scrapes a configured notice board with polite rate limiting
// and bounded retries.
type BoardFetcher struct {
	UserAgent      string
	MaxRetries     int
	RequestTimeout time.Duration
	DomainDelay    time.Duration
}

func NewBoardFetcher() *BoardFetcher {
	return &BoardFetcher{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		MaxRetries:     3,
		RequestTimeout: 30 * time.Second,
		DomainDelay:    1 * time.Second,
	}
}

func (f *BoardFetcher) buildCollector(domain string) *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(f.UserAgent),
		colly.AllowedDomains(domain),
		colly.AllowURLRevisit(),
		colly.DetectCharset(),
	)

	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 2,
		Delay:       f.DomainDelay,
	})
	c.SetRequestTimeout(f.RequestTimeout)

	c.OnError(func(r *colly.Response, err error) {
		if r.Request.Ctx.GetAny("retries") == nil {
			r.Request.Ctx.Put("retries", 0)
		}
		retries := r.Request.Ctx.GetAny("retries").(int)
		if retries < f.MaxRetries {
			r.Request.Ctx.Put("retries", retries+1)
			log.Printf("[ingest] Retry %d/%d for %s: %v", retries+1, f.MaxRetries, r.Request.URL, err)
			time.Sleep(time.Duration(retries+1) * time.Second)
			r.Request.Retry()
		}
	})

	return c
}

// FetchBoard crawls the source's list pages and detail pages, returning raw
// notices. Context cancellation stops pagination between pages.
func (f *BoardFetcher) FetchBoard(ctx context.Context, src SourceConfig) ([]RawNotice, error) {
	if len(src.Seeds) == 0 {
		return nil, fmt.Errorf("source %s has no seed urls", src.ID)
	}

	c := f.buildCollector(src.Domain)
	detail := c.Clone()

	var notices []RawNotice
	index := map[string]int{} // external URL -> notices index
	pages := 0

	c.OnHTML(src.Selectors.Container, func(e *colly.HTMLElement) {
		link := e.ChildAttr(src.Selectors.Link, "href")
		if link == "" {
			return
		}
		absURL := e.Request.AbsoluteURL(link)

		title := normalizeSpace(e.ChildText(src.Selectors.Link))
		if src.Selectors.Title != "" {
			title = normalizeSpace(e.ChildText(src.Selectors.Title))
		}
		if title == "" {
			return
		}

		n := RawNotice{
			SourceDomain: src.Domain,
			SourceID:     sourceIDFromURL(absURL),
			Title:        title,
			ExternalURL:  absURL,
			Category:     src.Category,
		}
		if src.Selectors.Date != "" {
			n.PostedAt = parsePostedAt(e.ChildText(src.Selectors.Date))
		}

		index[absURL] = len(notices)
		notices = append(notices, n)
		detail.Visit(absURL)
	})

	if src.Pagination.Next != "" {
		c.OnHTML(src.Pagination.Next, func(e *colly.HTMLElement) {
			maxPages := src.MaxPages
			if maxPages <= 0 {
				maxPages = 1
			}
			if pages >= maxPages || ctx.Err() != nil {
				return
			}
			pages++
			c.Visit(e.Request.AbsoluteURL(e.Attr("href")))
		})
	}

	detail.OnHTML("html", func(e *colly.HTMLElement) {
		i, ok := index[e.Request.URL.String()]
		if !ok {
			return
		}
		body, _ := e.DOM.Find(src.Selectors.Content).Html()
		notices[i].RawHTML = body
		notices[i].Body = HTMLToText(body)
		if src.Selectors.Category != "" {
			if cat := normalizeCategory(e.DOM.Find(src.Selectors.Category).Text()); cat != "" {
				notices[i].Category = cat
			}
		}
		if src.Selectors.PDFLinks != "" {
			e.ForEach(src.Selectors.PDFLinks, func(_ int, a *colly.HTMLElement) {
				if href := a.Attr("href"); href != "" {
					notices[i].PDFLinks = append(notices[i].PDFLinks, a.Request.AbsoluteURL(href))
				}
			})
		}
	})

	for _, seed := range src.Seeds {
		if err := c.Visit(seed); err != nil {
			log.Printf("[ingest] seed visit failed for %s: %v", seed, err)
		}
	}
	c.Wait()
	detail.Wait()

	return notices, nil
}

// sourceIDFromURL derives a stable per-board id from the detail URL: the
// board's article id parameter when present, else the trailing path segment.
func sourceIDFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	for _, key := range []string{"articleNo", "article_no", "idx", "id", "seq", "no"} {
		if v := u.Query().Get(key); v != "" {
			return v
		}
	}

	path := strings.TrimRight(u.Path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// parsePostedAt handles the compact date stamps boards put in listings.
func parsePostedAt(text string) *time.Time {
	text = normalizeSpace(text)
	for _, format := range []string{"2006-01-02", "2006.01.02", "2006/01/02", "06.01.02"} {
		if t, err := time.ParseInLocation(format, text, time.Local); err == nil {
			return &t
		}
	}
	return nil
}
