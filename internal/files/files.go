// ABOUTME: Corpus directory helpers: recursive listing, merging files and renaming away spaces
// ABOUTME: Per-entry failures are logged and skipped rather than aborting the walk
package files

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harper/orpheo/internal/logging"
)

// ListAllFiles returns every regular file under dir, sorted
func ListAllFiles(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	sort.Strings(out)
	return out, nil
}

// Within reports whether path is dir or lies underneath it
func Within(path, dir string) bool {
	if dir == "" {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// MergeFiles concatenates every file under dir into output, each under a header line
func MergeFiles(dir, output string, logger *slog.Logger) (int, error) {
	logger = logging.OrDefault(logger)

	paths, err := ListAllFiles(dir)
	if err != nil {
		return 0, err
	}

	absOut, _ := filepath.Abs(output)
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", output, err)
	}
	defer f.Close()

	merged := 0
	for _, path := range paths {
		if abs, _ := filepath.Abs(path); abs == absOut {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable file", "path", path, "error", err)
			continue
		}
		if _, err := fmt.Fprintf(f, "--- Content from %s ---\n%s\n\n", path, data); err != nil {
			return merged, fmt.Errorf("failed to write %s: %w", output, err)
		}
		merged++
	}

	if err := f.Close(); err != nil {
		return merged, fmt.Errorf("failed to close %s: %w", output, err)
	}
	return merged, nil
}

// RenameRemoveSpaces replaces spaces with underscores in every name under dir.
// Directories are renamed before the files inside them. Returns the number of renames.
func RenameRemoveSpaces(dir string, logger *slog.Logger) (int, error) {
	logger = logging.OrDefault(logger)

	if _, err := os.Stat(dir); err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", dir, err)
	}

	renamed := renameDirs(dir, logger)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("skipping entry", "path", path, "error", err)
			return nil
		}
		if d.IsDir() || !strings.Contains(d.Name(), " ") {
			return nil
		}
		if renameEntry(path, logger) {
			renamed++
		}
		return nil
	})
	return renamed, err
}

// renameDirs renames directories top-down so children are walked under their new names
func renameDirs(dir string, logger *slog.Logger) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("failed to read directory", "path", dir, "error", err)
		return 0
	}

	renamed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if strings.Contains(e.Name(), " ") && renameEntry(path, logger) {
			renamed++
			path = filepath.Join(dir, strings.ReplaceAll(e.Name(), " ", "_"))
		}
		renamed += renameDirs(path, logger)
	}
	return renamed
}

func renameEntry(path string, logger *slog.Logger) bool {
	target := filepath.Join(filepath.Dir(path), strings.ReplaceAll(filepath.Base(path), " ", "_"))
	if _, err := os.Lstat(target); err == nil {
		logger.Warn("rename target exists, skipping", "path", path, "target", target)
		return false
	}
	if err := os.Rename(path, target); err != nil {
		logger.Warn("rename failed", "path", path, "error", err)
		return false
	}
	logger.Debug("renamed", "from", path, "to", target)
	return true
}
