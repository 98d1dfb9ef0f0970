// ABOUTME: Document is one input file of the corpus, split into ordered chunks
// ABOUTME: Also carries the per-document build status reported by the index command
package models

import "errors"

// Document is a loaded input file
type Document struct {
	Path    string  `json:"path"`
	Title   string  `json:"title"`
	Content string  `json:"-"`
	Chunks  []Chunk `json:"chunks,omitempty"`
}

// Validate checks if the Document has valid data
func (d *Document) Validate() error {
	if d.Title == "" {
		return errors.New("document title cannot be empty")
	}
	if d.Content == "" {
		return errors.New("document content cannot be empty")
	}
	return nil
}

// DocumentStatus describes the outcome of building one document's indexes
type DocumentStatus struct {
	Title       string `json:"title" yaml:"title"`
	Path        string `json:"path" yaml:"path"`
	CacheDir    string `json:"cache_dir" yaml:"cache_dir"`
	Chunks      int    `json:"chunks" yaml:"chunks"`
	CacheReused bool   `json:"cache_reused" yaml:"cache_reused"`
}
