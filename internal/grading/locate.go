package grading

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocatedFile is a file found under a submission root.
type LocatedFile struct {
	RelPath   string // slash separated, relative to the root
	Misplaced bool   // not the bare expected name at the root
}

// Locator searches a submission directory for expected files.
//
// The search is depth first in lexicographic order. Within a directory the
// direct child is checked before any subdirectory is entered, so a file at the
// root always wins over a nested copy. Hidden directories are not entered.
// The first match is returned; later matches are ignored.
type Locator struct {
	Root string
}

func (l Locator) Find(name string) (LocatedFile, error) {
	root := l.Root
	if root == "" {
		root = "."
	}
	rel, ok := l.search(root, "", name)
	if !ok {
		return LocatedFile{}, ErrNotFound
	}
	return LocatedFile{
		RelPath:   rel,
		Misplaced: strings.Contains(rel, "/") || rel != name,
	}, nil
}

// Abs joins a located file's relative path onto the root.
func (l Locator) Abs(f LocatedFile) string {
	return filepath.Join(l.Root, filepath.FromSlash(f.RelPath))
}

func (l Locator) search(dir, rel, name string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		if e.Name() == name && e.Type().IsRegular() {
			return joinRel(rel, name), true
		}
	}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if found, ok := l.search(filepath.Join(dir, e.Name()), joinRel(rel, e.Name()), name); ok {
			return found, true
		}
	}
	return "", false
}

func joinRel(rel, name string) string {
	if rel == "" {
		return name
	}
	return rel + "/" + name
}
