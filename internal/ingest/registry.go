package ingest

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Registry holds the configuration for all notice-board sources.
type Registry struct {
	Sources []SourceConfig `yaml:"sources"`
}

// SourceConfig defines a single university notice board.
type SourceConfig struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Domain   string   `yaml:"domain"`
	Category string   `yaml:"category,omitempty"` // default category for this board
	Seeds    []string `yaml:"seed_urls"`
	MaxPages int      `yaml:"max_pages,omitempty"`

	Selectors  SelectorConfig   `yaml:"selectors"`
	Pagination PaginationConfig `yaml:"pagination,omitempty"`
}

// SelectorConfig holds the CSS selectors for a board's list and detail pages.
type SelectorConfig struct {
	Container string `yaml:"container"`           // list item wrapper
	Link      string `yaml:"link"`                // anchor within the item
	Title     string `yaml:"title,omitempty"`     // defaults to the link text
	Date      string `yaml:"date,omitempty"`      // posted-at text in the listing
	Content   string `yaml:"content"`             // detail page body
	Category  string `yaml:"category,omitempty"`  // detail page category badge
	PDFLinks  string `yaml:"pdf_links,omitempty"` // attachment anchors
}

type PaginationConfig struct {
	Next string `yaml:"next,omitempty"` // CSS selector for the next page link
}

// LoadRegistry reads the source registry, preferring SOURCES_CONFIG on disk
// over the embedded default.
func LoadRegistry() (*Registry, error) {
	var data []byte
	var err error

	if path := os.Getenv("SOURCES_CONFIG"); path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = sourcesYAML.ReadFile("config/sources.yaml")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sources config: %w", err)
	}

	var reg Registry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse sources config: %w", err)
	}

	return &reg, nil
}

// Find returns the source with the given id, or nil.
func (r *Registry) Find(id string) *SourceConfig {
	for i := range r.Sources {
		if r.Sources[i].ID == id {
			return &r.Sources[i]
		}
	}
	return nil
}
