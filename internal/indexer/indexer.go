// Package indexer transforms a directory tree of Markdown instruction files
// into the flat, filterable catalog consumed by the query engine.
package indexer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// Build walks the content root and derives one Record per Markdown file.
// Records are sorted by last-modified time, descending (ties keep walk
// order). Any unreadable file or malformed front-matter aborts the build:
// the output is the sole data source for clients, and a silently skipped
// document would produce a confusing, incomplete catalog.
func Build(store storage.Provider, logger *slog.Logger) ([]models.Record, error) {
	metas, err := store.List("")
	if err != nil {
		return nil, err
	}

	records := make([]models.Record, 0, len(metas))
	seen := make(map[string]string, len(metas))

	for _, m := range metas {
		data, err := store.Read(m.Path)
		if err != nil {
			return nil, fmt.Errorf("indexer: read %s: %w", m.Path, err)
		}
		rec, err := buildRecord(m, data)
		if err != nil {
			return nil, fmt.Errorf("indexer: %s: %w", m.Path, err)
		}

		// Filename is the external identity for favorites, usage stats, and
		// deep links. Collisions silently merge two documents' statistics
		// under one key; warn so operators can see it, but emit both.
		if prev, ok := seen[rec.Filename]; ok {
			logger.Warn("indexer: duplicate filename",
				slog.String("filename", rec.Filename),
				slog.String("path", m.Path),
				slog.String("previous", prev))
		}
		seen[rec.Filename] = m.Path

		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Metadata.LastModified.After(records[j].Metadata.LastModified)
	})

	return records, nil
}

// buildRecord derives a single Record from file metadata and raw content.
func buildRecord(m models.FileInfo, data []byte) (models.Record, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return models.Record{}, err
	}

	rel := path.Clean(m.Path)
	dir, file := path.Split(rel)
	segments := strings.FieldsFunc(dir, func(r rune) bool { return r == '/' })

	category := ""
	var subcategories []string
	if len(segments) > 0 {
		category = segments[0]
		subcategories = segments[1:]
	}

	title := res.Matter.Title
	if title == "" {
		title = strings.TrimSuffix(file, ".md")
	}
	description := res.Matter.Description
	if description == "" {
		description = parser.FirstLine(res.Body)
	}

	return models.Record{
		ID:            strings.TrimSuffix(strings.ReplaceAll(rel, "/", "-"), ".md"),
		Title:         title,
		Description:   description,
		Category:      category,
		Subcategories: subcategories,
		Content:       res.Body,
		Filename:      file,
		Tags:          deriveTags(category, subcategories, res.Matter.Tags, res.Body),
		Metadata: models.Metadata{
			Language:      res.Matter.Language,
			Framework:     res.Matter.Framework,
			Compatibility: res.Matter.Compatibility,
			Difficulty:    res.Matter.Difficulty,
			Topics:        res.Matter.Topics,
			LastModified:  m.UpdatedAt,
			Contributor:   res.Matter.Contributor,
		},
	}, nil
}

// deriveTags builds the record's tag set: category, subcategories, explicit
// front-matter tags, then keyword-scan hits from the body. Order is first
// appearance; membership is case-insensitive.
func deriveTags(category string, subcategories, explicit []string, body string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(tag string) {
		norm := normalizeTag(tag)
		if norm == "" {
			return
		}
		if _, dup := seen[norm]; dup {
			return
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}

	add(category)
	for _, s := range subcategories {
		add(s)
	}
	for _, t := range explicit {
		add(t)
	}
	for _, t := range ScanTags(body) {
		add(t)
	}
	return out
}

// WriteFile serializes records to a single JSON file via tmp-file, fsync,
// and rename so a crashed build never leaves a truncated catalog behind.
func WriteFile(outPath string, records []models.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("indexer: marshal catalog: %w", err)
	}

	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("indexer: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ansuz-catalog-*")
	if err != nil {
		return fmt.Errorf("indexer: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("indexer: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("indexer: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("indexer: close temp: %w", err)
	}
	if err := os.Rename(tmpName, outPath); err != nil {
		return fmt.Errorf("indexer: rename: %w", err)
	}
	success = true
	return nil
}

// Fingerprint returns a digest of the record set, used to skip catalog
// rewrites and change broadcasts when a rebuild produced identical output.
func Fingerprint(records []models.Record) string {
	data, err := json.Marshal(records)
	if err != nil {
		return ""
	}
	return checksum.Sum(data)
}
