package scan

import "testing"

func TestParseAnnotations(t *testing.T) {
	content := `// @ctx:lock frozen - security review pending
// @ctx:domain auth
// @ctx:purpose token issuing and validation
package auth

// @ctx:hack hardcoded issuer URL expires=2026-09-01
func IssueToken() {}

// @ctx:hack retry loop papers over flaky upstream
func retry() {}
`
	a := ParseAnnotations(content)
	if a.LockLevel != "frozen" || a.LockReason != "security review pending" {
		t.Errorf("lock = %q/%q", a.LockLevel, a.LockReason)
	}
	if a.Domain != "auth" {
		t.Errorf("domain = %q", a.Domain)
	}
	if a.Purpose != "token issuing and validation" {
		t.Errorf("purpose = %q", a.Purpose)
	}
	if len(a.Hacks) != 2 {
		t.Fatalf("got %d hacks, want 2", len(a.Hacks))
	}
	if a.Hacks[0].Reason != "hardcoded issuer URL" || a.Hacks[0].Expires != "2026-09-01" {
		t.Errorf("hack[0] = %+v", a.Hacks[0])
	}
	if a.Hacks[1].Expires != "" {
		t.Errorf("hack without expires = %+v", a.Hacks[1])
	}
}

func TestParseAnnotationsLockWithoutReason(t *testing.T) {
	a := ParseAnnotations("# @ctx:lock restricted\n")
	if a.LockLevel != "restricted" || a.LockReason != "" {
		t.Errorf("lock = %q/%q", a.LockLevel, a.LockReason)
	}
}

func TestParseAnnotationsRejectsUnknownLevel(t *testing.T) {
	a := ParseAnnotations("// @ctx:lock supersecret - nope\n")
	if a.LockLevel != "" {
		t.Errorf("unknown lock level accepted: %q", a.LockLevel)
	}
}

func TestParseAnnotationsFirstLockWins(t *testing.T) {
	a := ParseAnnotations("// @ctx:lock frozen - first\n// @ctx:lock restricted - second\n")
	if a.LockLevel != "frozen" || a.LockReason != "first" {
		t.Errorf("lock = %q/%q, want the first annotation", a.LockLevel, a.LockReason)
	}
}

func TestParseAnnotationsEmpty(t *testing.T) {
	a := ParseAnnotations("package main\n\nfunc main() {}\n")
	if a.LockLevel != "" || a.Domain != "" || len(a.Hacks) != 0 {
		t.Errorf("clean file produced annotations: %+v", a)
	}
}
