// Package models defines the domain types for Ansuz.
package models

import "time"

// Record is one catalog entry derived from a single Markdown source file.
type Record struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Category      string   `json:"category"`
	Subcategories []string `json:"subcategories"`
	Content       string   `json:"content"`
	Filename      string   `json:"filename"`
	Tags          []string `json:"tags"`
	Metadata      Metadata `json:"metadata"`
}

// Metadata holds auxiliary descriptive fields for a record. Informational
// only; the filtering pipeline never looks at it.
type Metadata struct {
	Language      string    `json:"language,omitempty"`
	Framework     string    `json:"framework,omitempty"`
	Compatibility []string  `json:"compatibility,omitempty"`
	Difficulty    string    `json:"difficulty,omitempty"`
	Topics        []string  `json:"topics,omitempty"`
	LastModified  time.Time `json:"last_modified"`
	Contributor   string    `json:"contributor,omitempty"`
}

// HasTag reports whether the record carries the given tag.
func (r *Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// TagCount is a tag paired with the number of records that carry it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// UsageCount pairs a record filename with its cumulative open/select count.
type UsageCount struct {
	Filename string `json:"filename"`
	Count    int    `json:"count"`
}

// FileInfo is a lightweight representation returned by content listings.
type FileInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LinkPreview is cached title/description metadata for an external reference
// link. Failed fetches are stored too (Failed=true) so they are not retried.
type LinkPreview struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Failed      bool      `json:"failed"`
	FetchedAt   time.Time `json:"fetched_at"`
}
