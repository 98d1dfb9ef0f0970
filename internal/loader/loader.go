// ABOUTME: Reads corpus files into documents, dispatching on file extension
// ABOUTME: Titles are derived from the file stem and sanitized for use as cache keys and tool names
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/harper/orpheo/internal/models"
)

var (
	// ErrBinaryContent is returned for files containing NUL bytes
	ErrBinaryContent = errors.New("binary content is not supported")
	// ErrEmptyDocument is returned for files with no text after parsing
	ErrEmptyDocument = errors.New("document is empty")
)

// Load reads path and returns a document with its title and text content.
// Chunks are filled in by the chunk engine.
func Load(path string) (*models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrBinaryContent)
	}
	if !utf8.Valid(data) {
		data = bytes.ToValidUTF8(data, []byte("�"))
	}

	content, err := parse(strings.ToLower(filepath.Ext(path)), data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyDocument)
	}

	return &models.Document{
		Path:    path,
		Title:   TitleFromPath(path),
		Content: content,
	}, nil
}

func parse(ext string, data []byte) (string, error) {
	switch ext {
	case ".srt", ".vtt":
		return parseTranscript(string(data)), nil
	case ".json":
		return flattenJSON(data)
	case ".csv":
		return parseCSV(data)
	default:
		return normalizeNewlines(string(data)), nil
	}
}

// TitleFromPath returns the sanitized file stem
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	return SanitizeTitle(strings.TrimSuffix(base, filepath.Ext(base)))
}

// SanitizeTitle replaces spaces and hyphens with underscores. Other
// characters, non-Latin letters included, are kept so distinct stems stay
// distinct. Applying it twice yields the same result.
func SanitizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "." || title == ".." {
		// never let a title name a parent or current directory
		return strings.Repeat("_", len(title))
	}
	return titleReplacer.Replace(title)
}

var titleReplacer = strings.NewReplacer(" ", "_", "-", "_")

// Supported reports whether the loader has a dedicated parser for path.
// Unsupported extensions are still read as plain text.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".srt", ".vtt", ".json", ".csv":
		return true
	}
	return false
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
