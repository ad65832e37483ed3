package scan

import (
	"regexp"
	"strings"
)

// Annotations are the structured facts a file declares about itself in
// comments. The indexer is the only consumer; the compiler never sees them.
type Annotations struct {
	LockLevel  string
	LockReason string
	Domain     string
	Purpose    string
	Hacks      []HackAnnotation
}

// HackAnnotation is one @ctx:hack marker.
type HackAnnotation struct {
	Reason  string
	Expires string // YYYY-MM-DD, empty when open-ended
}

// Lock levels accepted by @ctx:lock.
var lockLevels = map[string]bool{
	"frozen":            true,
	"restricted":        true,
	"approval-required": true,
	"tests-required":    true,
	"docs-required":     true,
}

var (
	lockRe    = regexp.MustCompile(`@ctx:lock\s+([a-z-]+)(?:\s*-\s*(.+))?`)
	domainRe  = regexp.MustCompile(`@ctx:domain\s+([A-Za-z0-9_./-]+)`)
	purposeRe = regexp.MustCompile(`@ctx:purpose\s+(.+)`)
	hackRe    = regexp.MustCompile(`@ctx:hack\s+(.+)`)
	expiresRe = regexp.MustCompile(`\s+expires=(\d{4}-\d{2}-\d{2})\s*$`)
)

// ParseAnnotations extracts @ctx: annotations from file content. Only the
// first lock, domain, and purpose count; hacks accumulate. Lines with a
// malformed lock level are ignored rather than failing the scan.
func ParseAnnotations(content string) Annotations {
	var a Annotations
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, "@ctx:") {
			continue
		}
		if a.LockLevel == "" {
			if m := lockRe.FindStringSubmatch(line); m != nil && lockLevels[m[1]] {
				a.LockLevel = m[1]
				a.LockReason = strings.TrimSpace(m[2])
			}
		}
		if a.Domain == "" {
			if m := domainRe.FindStringSubmatch(line); m != nil {
				a.Domain = m[1]
			}
		}
		if a.Purpose == "" {
			if m := purposeRe.FindStringSubmatch(line); m != nil {
				a.Purpose = strings.TrimSpace(m[1])
			}
		}
		if m := hackRe.FindStringSubmatch(line); m != nil {
			h := HackAnnotation{Reason: strings.TrimSpace(m[1])}
			if em := expiresRe.FindStringSubmatch(h.Reason); em != nil {
				h.Expires = em[1]
				h.Reason = strings.TrimSpace(expiresRe.ReplaceAllString(h.Reason, ""))
			}
			if h.Reason != "" {
				a.Hacks = append(a.Hacks, h)
			}
		}
	}
	return a
}
