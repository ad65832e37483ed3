// Package scan walks a project tree and turns source files into the
// knowledge-base records the index stores: file metadata, symbols, call
// edges, domains, temporary-code markers, and naming conventions.
package scan

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ctxprimer/ctxprimer/internal/conventions"
	"github.com/ctxprimer/ctxprimer/internal/index"
)

// maxFileSize caps how much of a file the scanner will read. Bigger files
// are almost always generated or vendored.
const maxFileSize = 1 << 20

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	".ctxprimer":   true,
	"__pycache__":  true,
}

// Options configure a scan.
type Options struct {
	// Ignore holds extra glob patterns (matched against slash-separated
	// paths relative to the root) to exclude.
	Ignore []string
}

// Project walks root and produces the full scan result. Unreadable files
// are logged and skipped; only a failure to walk the tree itself is fatal.
func Project(ctx context.Context, root string, opts Options) (index.ScanResult, error) {
	var res index.ScanResult
	langCounts := make(map[string]int)
	domainFiles := make(map[string][]string)
	symbolNames := make(map[string][]string)

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if p == root {
				return nil
			}
			if skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if ignored(rel, opts.Ignore) {
			return nil
		}

		lang := LanguageOf(p)
		if lang == "" {
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > maxFileSize {
			return nil
		}

		content, err := os.ReadFile(p)
		if err != nil {
			log.Printf("WARNING: skipping unreadable file %s: %v", rel, err)
			return nil
		}

		ann := ParseAnnotations(string(content))
		file := index.FileRecord{
			Path:       rel,
			Language:   lang,
			Domain:     ann.Domain,
			Purpose:    ann.Purpose,
			LockLevel:  ann.LockLevel,
			LockReason: ann.LockReason,
		}
		res.Files = append(res.Files, file)
		langCounts[lang]++
		if ann.Domain != "" {
			domainFiles[ann.Domain] = append(domainFiles[ann.Domain], rel)
		}
		for _, h := range ann.Hacks {
			res.Hacks = append(res.Hacks, index.HackRecord{
				File: rel, Reason: h.Reason, Expires: h.Expires,
			})
		}

		symbols, edges := ExtractSymbols(ctx, lang, rel, content)
		res.Symbols = append(res.Symbols, symbols...)
		res.Edges = append(res.Edges, edges...)
		for _, s := range symbols {
			symbolNames[s.Kind] = append(symbolNames[s.Kind], s.Name)
		}
		return nil
	})
	if err != nil {
		return index.ScanResult{}, err
	}

	res.PrimaryLanguage = dominantLanguage(langCounts)
	res.Domains = buildDomains(domainFiles)
	for _, d := range conventions.Detect(symbolNames) {
		res.Conventions = append(res.Conventions, index.ConventionRecord{
			Kind: d.Kind, Style: d.Style, Confidence: d.Confidence,
		})
	}
	return res, nil
}

func ignored(rel string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, _ := path.Match(pat, rel); ok {
			return true
		}
		// Also match against the base name so "*.gen.go" works anywhere.
		if ok, _ := path.Match(pat, path.Base(rel)); ok {
			return true
		}
	}
	return false
}

// dominantLanguage is the language with the most indexed files. Ties break
// alphabetically so repeated scans of the same tree agree.
func dominantLanguage(counts map[string]int) string {
	best, bestCount := "", 0
	for lang, c := range counts {
		if c > bestCount || (c == bestCount && lang < best) {
			best, bestCount = lang, c
		}
	}
	return best
}

func buildDomains(domainFiles map[string][]string) []index.DomainRecord {
	names := make([]string, 0, len(domainFiles))
	for name := range domainFiles {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]index.DomainRecord, 0, len(names))
	for _, name := range names {
		out = append(out, index.DomainRecord{
			Name:      name,
			FileCount: len(domainFiles[name]),
		})
	}
	return out
}
