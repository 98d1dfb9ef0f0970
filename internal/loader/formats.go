// ABOUTME: Format-specific text extraction for transcripts, JSON metadata and CSV
// ABOUTME: Each parser returns plain text lines ready for chunking
package loader

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// parseTranscript strips cue numbers, timestamps and WEBVTT headers.
// Consecutive duplicate lines from rolling auto-captions are collapsed.
func parseTranscript(raw string) string {
	var lines []string
	var last string
	inNote := false

	for _, line := range strings.Split(normalizeNewlines(raw), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			inNote = false
			continue
		case inNote:
			continue
		case strings.HasPrefix(line, "WEBVTT"):
			continue
		case strings.HasPrefix(line, "NOTE"):
			inNote = true
			continue
		case strings.Contains(line, "-->"):
			continue
		case isCueNumber(line):
			continue
		}
		line = stripTags(line)
		if line == "" || line == last {
			continue
		}
		lines = append(lines, line)
		last = line
	}
	return strings.Join(lines, "\n")
}

func isCueNumber(line string) bool {
	_, err := strconv.Atoi(line)
	return err == nil
}

// stripTags removes inline <c>, <i> and timestamp tags from caption text
func stripTags(line string) string {
	if !strings.Contains(line, "<") {
		return line
	}
	var b strings.Builder
	depth := 0
	for _, r := range line {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// flattenJSON renders nested metadata as sorted "key.path: value" lines
func flattenJSON(data []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}

	var lines []string
	flatten("", v, &lines)
	return strings.Join(lines, "\n"), nil
}

func flatten(prefix string, v any, lines *[]string) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flatten(joinKey(prefix, k), val[k], lines)
		}
	case []any:
		for i, item := range val {
			flatten(joinKey(prefix, strconv.Itoa(i)), item, lines)
		}
	case nil:
		return
	default:
		text := strings.TrimSpace(fmt.Sprint(val))
		if text == "" {
			return
		}
		if prefix == "" {
			*lines = append(*lines, text)
			return
		}
		*lines = append(*lines, prefix+": "+text)
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// parseCSV renders each row as "header: value; header: value"
func parseCSV(data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("invalid CSV: %w", err)
	}
	if len(records) == 0 {
		return "", nil
	}

	header := records[0]
	var lines []string
	for _, row := range records[1:] {
		parts := make([]string, 0, len(row))
		for i, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			if i < len(header) && header[i] != "" {
				parts = append(parts, header[i]+": "+cell)
			} else {
				parts = append(parts, cell)
			}
		}
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, "; "))
		}
	}
	return strings.Join(lines, "\n"), nil
}
