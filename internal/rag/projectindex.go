package rag

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

var indexIgnorePatterns = []string{
	"__pycache__", "node_modules", ".git", "venv", ".venv",
	".pyc", ".log", "dist", "build", ".next", ".cache",
}

type indexedFile struct {
	relPath    string
	name       string
	importance int // 0 low, 1 medium, 2 high, 3 critical
}

// GenerateProjectIndex builds a compact module/file overview of a project's
// document directory, with key files surfaced first. Returns "" when the
// directory does not exist or holds nothing indexable.
func GenerateProjectIndex(root string) string {
	modules := map[string][]indexedFile{}
	total := 0

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		for _, pattern := range indexIgnorePatterns {
			if strings.Contains(rel, pattern) {
				return nil
			}
		}
		module := "root"
		if parts := strings.SplitN(filepath.ToSlash(rel), "/", 2); len(parts) > 1 {
			module = parts[0]
		}
		modules[module] = append(modules[module], indexedFile{
			relPath:    rel,
			name:       d.Name(),
			importance: fileImportance(rel, d.Name()),
		})
		total++
		return nil
	})

	if total == 0 {
		return ""
	}

	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := []string{"# PROJECT STRUCTURE\n"}
	for _, name := range names {
		files := modules[name]
		lines = append(lines, fmt.Sprintf("\n## %s/", name))
		lines = append(lines, fmt.Sprintf("- %d files", len(files)))

		var important []indexedFile
		for _, f := range files {
			if f.importance >= 2 {
				important = append(important, f)
			}
		}
		if len(important) > 0 {
			sort.Slice(important, func(i, j int) bool {
				if important[i].importance != important[j].importance {
					return important[i].importance > important[j].importance
				}
				return important[i].relPath < important[j].relPath
			})
			lines = append(lines, "- key files:")
			if len(important) > 8 {
				important = important[:8]
			}
			for _, f := range important {
				lines = append(lines, fmt.Sprintf("  - `%s`", f.name))
			}
		}
	}
	lines = append(lines, fmt.Sprintf("\nTotal: %d files", total))

	return strings.Join(lines, "\n")
}

// IndexedDocument is one ingested document summarized for the project
// overview handed to the model.
type IndexedDocument struct {
	Filename   string
	ChunkCount int
	TokenCount int
}

// GenerateDocumentIndex builds the same kind of overview as
// GenerateProjectIndex, but from ingested documents instead of a directory
// tree. Returns "" when nothing has been ingested.
func GenerateDocumentIndex(docs []IndexedDocument) string {
	if len(docs) == 0 {
		return ""
	}
	sorted := make([]IndexedDocument, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool {
		ii := fileImportance(sorted[i].Filename, sorted[i].Filename)
		ij := fileImportance(sorted[j].Filename, sorted[j].Filename)
		if ii != ij {
			return ii > ij
		}
		return sorted[i].Filename < sorted[j].Filename
	})

	totalChunks := 0
	lines := []string{"# PROJECT STRUCTURE\n"}
	for _, doc := range sorted {
		totalChunks += doc.ChunkCount
		lines = append(lines, fmt.Sprintf("- `%s` (%d chunks, ~%d tokens)",
			doc.Filename, doc.ChunkCount, doc.TokenCount))
	}
	lines = append(lines, fmt.Sprintf("\nTotal: %d documents, %d chunks", len(sorted), totalChunks))
	return strings.Join(lines, "\n")
}

func fileImportance(relPath, name string) int {
	lower := strings.ToLower(name)
	pathLower := strings.ToLower(filepath.ToSlash(relPath))
	switch {
	case containsAny(lower, []string{"main.", "app.", "config.", "settings.", "__init__."}):
		return 3
	case containsAny(pathLower, []string{"models.", "routes.", "api.", "/core/", "/services/"}):
		return 2
	case containsAny(pathLower, []string{"utils.", "helpers.", "/utils/", "/helpers/"}):
		return 1
	default:
		return 0
	}
}
