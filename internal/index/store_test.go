package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), ".ctxprimer", "index.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleScan() ScanResult {
	return ScanResult{
		PrimaryLanguage: "go",
		Files: []FileRecord{
			{Path: "internal/auth/token.go", Language: "go", Domain: "auth",
				Purpose: "token issuing and validation", LockLevel: "frozen", LockReason: "security review pending"},
			{Path: "internal/auth/session.go", Language: "go", Domain: "auth"},
			{Path: "internal/billing/invoice.go", Language: "go", Domain: "billing", LockLevel: "restricted", LockReason: "revenue-critical"},
		},
		Symbols: []SymbolRecord{
			{Name: "IssueToken", Kind: "function", File: "internal/auth/token.go", Line: 14, Signature: "func IssueToken(u User) (string, error)"},
			{Name: "ValidateToken", Kind: "function", File: "internal/auth/token.go", Line: 42},
			{Name: "NewSession", Kind: "function", File: "internal/auth/session.go", Line: 9},
		},
		Edges: []CallEdge{
			{Caller: "NewSession", Callee: "IssueToken", File: "internal/auth/session.go"},
			{Caller: "IssueToken", Callee: "ValidateToken", File: "internal/auth/token.go"},
		},
		Domains: []DomainRecord{
			{Name: "auth", Description: "authentication and sessions", FileCount: 2},
			{Name: "billing", FileCount: 1},
		},
		Hacks: []HackRecord{
			{File: "internal/billing/invoice.go", Reason: "hardcoded tax rate", Expires: "2020-01-01"},
		},
		Conventions: []ConventionRecord{
			{Kind: "function", Style: "PascalCase", Confidence: 0.97},
		},
	}
}

func TestSaveScanAndFileInfo(t *testing.T) {
	s := testStore(t)
	if err := s.SaveScan(sampleScan()); err != nil {
		t.Fatalf("SaveScan: %v", err)
	}

	d, err := s.FileInfo("internal/auth/token.go")
	if err != nil {
		t.Fatalf("FileInfo: %v", err)
	}
	if d.LockLevel != "frozen" || d.LockReason != "security review pending" {
		t.Errorf("lock fields = %q/%q", d.LockLevel, d.LockReason)
	}
	if d.Domain != "auth" || d.Purpose == "" {
		t.Errorf("file metadata = %+v", d.FileRecord)
	}
	if len(d.Symbols) != 2 {
		t.Fatalf("got %d symbols, want 2", len(d.Symbols))
	}
	if d.Symbols[0].Name != "IssueToken" {
		t.Errorf("symbols not ordered by line: %v", d.Symbols)
	}

	if _, err := s.FileInfo("no/such/file.go"); err == nil {
		t.Error("unindexed file should error")
	}
}

func TestSymbolInfoCallGraph(t *testing.T) {
	s := testStore(t)
	if err := s.SaveScan(sampleScan()); err != nil {
		t.Fatalf("SaveScan: %v", err)
	}

	details, err := s.SymbolInfo("IssueToken")
	if err != nil {
		t.Fatalf("SymbolInfo: %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("got %d definitions", len(details))
	}
	d := details[0]
	if d.Signature == "" || d.Line != 14 {
		t.Errorf("definition = %+v", d.SymbolRecord)
	}
	if len(d.Callers) != 1 || d.Callers[0] != "NewSession" {
		t.Errorf("callers = %v", d.Callers)
	}
	if len(d.Callees) != 1 || d.Callees[0] != "ValidateToken" {
		t.Errorf("callees = %v", d.Callees)
	}

	if _, err := s.SymbolInfo("Nonexistent"); err == nil {
		t.Error("unknown symbol should error")
	}
}

func TestDomainInfo(t *testing.T) {
	s := testStore(t)
	if err := s.SaveScan(sampleScan()); err != nil {
		t.Fatalf("SaveScan: %v", err)
	}

	d, err := s.DomainInfo("auth")
	if err != nil {
		t.Fatalf("DomainInfo: %v", err)
	}
	if d.FileCount != 2 || len(d.Files) != 2 {
		t.Errorf("domain = %+v", d)
	}
}

func TestLockFor(t *testing.T) {
	s := testStore(t)
	if err := s.SaveScan(sampleScan()); err != nil {
		t.Fatalf("SaveScan: %v", err)
	}

	level, reason, err := s.LockFor("internal/auth/token.go")
	if err != nil {
		t.Fatalf("LockFor: %v", err)
	}
	if level != "frozen" || reason == "" {
		t.Errorf("lock = %q/%q", level, reason)
	}

	level, _, err = s.LockFor("internal/auth/session.go")
	if err != nil || level != "normal" {
		t.Errorf("unlocked file = %q, %v; want normal", level, err)
	}
	level, _, err = s.LockFor("never/indexed.go")
	if err != nil || level != "normal" {
		t.Errorf("unindexed file = %q, %v; want normal", level, err)
	}
}

func TestSaveScanReplacesButKeepsAttempts(t *testing.T) {
	s := testStore(t)
	if err := s.SaveScan(sampleScan()); err != nil {
		t.Fatalf("SaveScan: %v", err)
	}
	id, err := s.StartAttempt("websocket reconnect loop")
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	// Second scan with fewer files.
	second := ScanResult{
		PrimaryLanguage: "go",
		Files:           []FileRecord{{Path: "main.go", Language: "go"}},
	}
	if err := s.SaveScan(second); err != nil {
		t.Fatalf("SaveScan (second): %v", err)
	}

	if _, err := s.FileInfo("internal/auth/token.go"); err == nil {
		t.Error("old files should be gone after re-index")
	}
	if _, err := s.FileInfo("main.go"); err != nil {
		t.Errorf("new file missing: %v", err)
	}

	attempts, err := s.OpenAttempts()
	if err != nil {
		t.Fatalf("OpenAttempts: %v", err)
	}
	if len(attempts) != 1 || attempts[0].ID != id {
		t.Errorf("attempts lost across re-index: %v", attempts)
	}
}

func TestAttemptLifecycle(t *testing.T) {
	s := testStore(t)

	id, err := s.StartAttempt("nil pointer in renderer")
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if err := s.FailAttempt(id, "tried nil check in Render, crash moved"); err != nil {
		t.Fatalf("FailAttempt: %v", err)
	}
	if err := s.FailAttempt(id, "tried lazy init, still crashes"); err != nil {
		t.Fatalf("FailAttempt: %v", err)
	}

	open, err := s.OpenAttempts()
	if err != nil {
		t.Fatalf("OpenAttempts: %v", err)
	}
	if len(open) != 1 {
		t.Fatalf("got %d open attempts", len(open))
	}
	if open[0].Failures != 2 || len(open[0].Notes) != 2 {
		t.Errorf("attempt = %+v", open[0])
	}

	if err := s.ResolveAttempt(id); err != nil {
		t.Fatalf("ResolveAttempt: %v", err)
	}
	open, _ = s.OpenAttempts()
	if len(open) != 0 {
		t.Error("resolved attempt should not be open")
	}

	if err := s.ResolveAttempt(id); err == nil {
		t.Error("double resolve should error")
	}
	if err := s.FailAttempt("nope", ""); err == nil {
		t.Error("failing unknown attempt should error")
	}
}

func TestSnapshot(t *testing.T) {
	s := testStore(t)
	if err := s.SaveScan(sampleScan()); err != nil {
		t.Fatalf("SaveScan: %v", err)
	}
	if _, err := s.StartAttempt("flaky test"); err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	snap, err := s.Snapshot([]string{"shell"})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Unavailable {
		t.Error("live snapshot should not be marked unavailable")
	}
	if snap.PrimaryLanguage != "go" {
		t.Errorf("PrimaryLanguage = %q", snap.PrimaryLanguage)
	}
	if snap.ProtectedCount() != 2 || snap.FrozenCount() != 1 {
		t.Errorf("protected = %d frozen = %d", snap.ProtectedCount(), snap.FrozenCount())
	}
	if len(snap.Domains) != 2 || snap.Domains[0].Name != "auth" {
		t.Errorf("domains = %v (want auth first by file count)", snap.Domains)
	}
	if len(snap.Hacks) != 1 || !snap.Hacks[0].Expired {
		t.Errorf("hacks = %+v (expiry 2020-01-01 is long past)", snap.Hacks)
	}
	if len(snap.FailedAttempts) != 1 {
		t.Errorf("attempts = %v", snap.FailedAttempts)
	}
	if len(snap.Conventions) != 1 || snap.Conventions[0].Style != "PascalCase" {
		t.Errorf("conventions = %v", snap.Conventions)
	}
	if len(snap.Capabilities) != 1 || snap.Capabilities[0] != "shell" {
		t.Errorf("capabilities = %v", snap.Capabilities)
	}
}

func TestHackAgeAndExpiry(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	h := HackRecord{
		File: "x.go", Reason: "stub", Expires: "2026-08-01",
		CreatedAt: "2026-07-24 12:00:00",
	}
	p := h.toPrimer(now)
	if p.AgeDays != 30 {
		t.Errorf("AgeDays = %d, want 30", p.AgeDays)
	}
	if !p.Expired {
		t.Error("hack past its expiry should be expired")
	}

	h.Expires = "2027-01-01"
	if h.toPrimer(now).Expired {
		t.Error("hack before its expiry should not be expired")
	}
	h.Expires = ""
	if h.toPrimer(now).Expired {
		t.Error("hack without expiry never expires")
	}
}

func TestIndexStats(t *testing.T) {
	s := testStore(t)
	if err := s.SaveScan(sampleScan()); err != nil {
		t.Fatalf("SaveScan: %v", err)
	}
	if _, err := s.StartAttempt("flaky cache test"); err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	st, err := s.IndexStats()
	if err != nil {
		t.Fatalf("IndexStats: %v", err)
	}
	if st.PrimaryLanguage != "go" || st.IndexedAt == "" {
		t.Errorf("meta = %+v", st)
	}
	if st.Files != 3 || st.Symbols != 3 || st.Domains != 2 {
		t.Errorf("counts = %+v", st)
	}
	if st.ProtectedFiles != 2 || st.OpenHacks != 1 || st.OpenAttempts != 1 {
		t.Errorf("risk counts = %+v", st)
	}
}

func TestLoadSnapshotMissingCache(t *testing.T) {
	snap := LoadSnapshot(filepath.Join(t.TempDir(), "nope", "index.db"), []string{"shell"})
	if !snap.Unavailable {
		t.Error("missing cache should yield unavailable snapshot")
	}
	if len(snap.Capabilities) != 1 {
		t.Error("capabilities should survive a missing cache")
	}
}

func TestLoadSnapshotCorruptCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.db")
	if err := os.WriteFile(path, []byte(strings.Repeat("not a database ", 100)), 0o644); err != nil {
		t.Fatal(err)
	}
	snap := LoadSnapshot(path, nil)
	if !snap.Unavailable {
		t.Error("corrupt cache should yield unavailable snapshot")
	}
}
