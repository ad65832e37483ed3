// Package index persists the scanned project knowledge base.
//
// It uses SQLite to store files, symbols, call edges, domains, lock
// constraints, temporary-code markers, debugging attempts, and detected
// naming conventions. The store is the single source of truth for both the
// query commands and the primer's project snapshot.
package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ctxprimer/ctxprimer/internal/primer"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Types ───────────────────────────────────────────────────────────────────

// FileRecord is one indexed source file.
type FileRecord struct {
	Path       string `json:"path"`
	Language   string `json:"language,omitempty"`
	Domain     string `json:"domain,omitempty"`
	Purpose    string `json:"purpose,omitempty"`
	LockLevel  string `json:"lockLevel,omitempty"`
	LockReason string `json:"lockReason,omitempty"`
}

// SymbolRecord is one extracted symbol.
type SymbolRecord struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"` // function, method, type, constant, variable
	File      string `json:"file"`
	Line      int    `json:"line"`
	Signature string `json:"signature,omitempty"`
}

// CallEdge records that a function references another symbol.
type CallEdge struct {
	Caller string `json:"caller"`
	Callee string `json:"callee"`
	File   string `json:"file"`
}

// DomainRecord is a named architectural area with its member file count.
type DomainRecord struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	FileCount   int    `json:"fileCount"`
}

// HackRecord is an open temporary-code marker.
type HackRecord struct {
	File      string `json:"file"`
	Reason    string `json:"reason"`
	Expires   string `json:"expires,omitempty"` // YYYY-MM-DD
	CreatedAt string `json:"createdAt"`
}

// AttemptRecord is a tracked debugging attempt.
type AttemptRecord struct {
	ID        string   `json:"id"`
	Problem   string   `json:"problem"`
	Status    string   `json:"status"` // open or resolved
	Failures  int      `json:"failures"`
	Notes     []string `json:"notes,omitempty"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

// ConventionRecord is a detected naming convention for one symbol kind.
type ConventionRecord struct {
	Kind       string  `json:"kind"`
	Style      string  `json:"style"`
	Confidence float64 `json:"confidence"`
}

// ScanResult is everything a project scan produces, saved atomically.
type ScanResult struct {
	PrimaryLanguage string
	Files           []FileRecord
	Symbols         []SymbolRecord
	Edges           []CallEdge
	Domains         []DomainRecord
	Hacks           []HackRecord
	Conventions     []ConventionRecord
}

// FileDetail is the full query view of one file.
type FileDetail struct {
	FileRecord
	Symbols []SymbolRecord `json:"symbols,omitempty"`
}

// SymbolDetail is the full query view of one symbol.
type SymbolDetail struct {
	SymbolRecord
	Callers []string `json:"callers,omitempty"`
	Callees []string `json:"callees,omitempty"`
}

// DomainDetail is the full query view of one domain.
type DomainDetail struct {
	DomainRecord
	Files []string `json:"files,omitempty"`
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the knowledge-base cache backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the index database at the given path, applies the
// performance pragmas, and runs migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("index: create cache dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("index: open database: %w", err)
	}

	// SQLite performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("index: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("index: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS files (
			path        TEXT PRIMARY KEY,
			language    TEXT,
			domain      TEXT,
			purpose     TEXT,
			lock_level  TEXT,
			lock_reason TEXT,
			indexed_at  TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_files_domain ON files(domain);
		CREATE INDEX IF NOT EXISTS idx_files_lock   ON files(lock_level);

		CREATE TABLE IF NOT EXISTS symbols (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			name      TEXT NOT NULL,
			kind      TEXT NOT NULL,
			file      TEXT NOT NULL,
			line      INTEGER NOT NULL DEFAULT 0,
			signature TEXT,
			FOREIGN KEY (file) REFERENCES files(path) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
		CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file);
		CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);

		CREATE TABLE IF NOT EXISTS call_edges (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			caller TEXT NOT NULL,
			callee TEXT NOT NULL,
			file   TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_edges_caller ON call_edges(caller);
		CREATE INDEX IF NOT EXISTS idx_edges_callee ON call_edges(callee);

		CREATE TABLE IF NOT EXISTS domains (
			name        TEXT PRIMARY KEY,
			description TEXT,
			file_count  INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS hacks (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			file       TEXT NOT NULL,
			reason     TEXT NOT NULL,
			expires    TEXT,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS attempts (
			id         TEXT PRIMARY KEY,
			problem    TEXT NOT NULL,
			status     TEXT NOT NULL DEFAULT 'open',
			failures   INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_attempts_status ON attempts(status);

		CREATE TABLE IF NOT EXISTS attempt_notes (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			attempt_id TEXT NOT NULL,
			note       TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (attempt_id) REFERENCES attempts(id) ON DELETE CASCADE
		);

		CREATE TABLE IF NOT EXISTS conventions (
			kind       TEXT PRIMARY KEY,
			style      TEXT NOT NULL,
			confidence REAL NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Scan persistence ────────────────────────────────────────────────────────

// SaveScan replaces the indexed view of the project in one transaction.
// Attempts survive re-indexing; everything derived from source does not.
func (s *Store) SaveScan(res ScanResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("index: begin save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"call_edges", "symbols", "files", "domains", "hacks", "conventions"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("index: clear %s: %w", table, err)
		}
	}

	for _, f := range res.Files {
		if _, err := tx.Exec(
			`INSERT INTO files (path, language, domain, purpose, lock_level, lock_reason)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			f.Path, nullableString(f.Language), nullableString(f.Domain),
			nullableString(f.Purpose), nullableString(f.LockLevel), nullableString(f.LockReason),
		); err != nil {
			return fmt.Errorf("index: insert file %s: %w", f.Path, err)
		}
	}
	for _, sym := range res.Symbols {
		if _, err := tx.Exec(
			`INSERT INTO symbols (name, kind, file, line, signature) VALUES (?, ?, ?, ?, ?)`,
			sym.Name, sym.Kind, sym.File, sym.Line, nullableString(sym.Signature),
		); err != nil {
			return fmt.Errorf("index: insert symbol %s: %w", sym.Name, err)
		}
	}
	for _, e := range res.Edges {
		if _, err := tx.Exec(
			`INSERT INTO call_edges (caller, callee, file) VALUES (?, ?, ?)`,
			e.Caller, e.Callee, e.File,
		); err != nil {
			return fmt.Errorf("index: insert edge %s->%s: %w", e.Caller, e.Callee, err)
		}
	}
	for _, d := range res.Domains {
		if _, err := tx.Exec(
			`INSERT INTO domains (name, description, file_count) VALUES (?, ?, ?)`,
			d.Name, nullableString(d.Description), d.FileCount,
		); err != nil {
			return fmt.Errorf("index: insert domain %s: %w", d.Name, err)
		}
	}
	for _, h := range res.Hacks {
		createdAt := h.CreatedAt
		if createdAt == "" {
			createdAt = Now()
		}
		if _, err := tx.Exec(
			`INSERT INTO hacks (file, reason, expires, created_at) VALUES (?, ?, ?, ?)`,
			h.File, h.Reason, nullableString(h.Expires), createdAt,
		); err != nil {
			return fmt.Errorf("index: insert hack %s: %w", h.File, err)
		}
	}
	for _, c := range res.Conventions {
		if _, err := tx.Exec(
			`INSERT INTO conventions (kind, style, confidence) VALUES (?, ?, ?)`,
			c.Kind, c.Style, c.Confidence,
		); err != nil {
			return fmt.Errorf("index: insert convention %s: %w", c.Kind, err)
		}
	}
	if _, err := tx.Exec(
		`INSERT INTO meta (key, value) VALUES ('primary_language', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		res.PrimaryLanguage,
	); err != nil {
		return fmt.Errorf("index: save primary language: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO meta (key, value) VALUES ('indexed_at', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		Now(),
	); err != nil {
		return fmt.Errorf("index: save index time: %w", err)
	}

	return tx.Commit()
}

// ─── Queries ─────────────────────────────────────────────────────────────────

// FileInfo returns the indexed view of one file with its symbols.
func (s *Store) FileInfo(path string) (*FileDetail, error) {
	row := s.db.QueryRow(
		`SELECT path, ifnull(language,''), ifnull(domain,''), ifnull(purpose,''),
		        ifnull(lock_level,''), ifnull(lock_reason,'')
		 FROM files WHERE path = ?`, path,
	)
	var d FileDetail
	if err := row.Scan(&d.Path, &d.Language, &d.Domain, &d.Purpose, &d.LockLevel, &d.LockReason); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("file %q is not indexed", path)
		}
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT name, kind, file, line, ifnull(signature,'')
		 FROM symbols WHERE file = ? ORDER BY line`, path,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var sym SymbolRecord
		if err := rows.Scan(&sym.Name, &sym.Kind, &sym.File, &sym.Line, &sym.Signature); err != nil {
			return nil, err
		}
		d.Symbols = append(d.Symbols, sym)
	}
	return &d, rows.Err()
}

// SymbolInfo returns every definition of a symbol name with its call graph
// neighbors.
func (s *Store) SymbolInfo(name string) ([]SymbolDetail, error) {
	rows, err := s.db.Query(
		`SELECT name, kind, file, line, ifnull(signature,'')
		 FROM symbols WHERE name = ? ORDER BY file, line`, name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []SymbolDetail
	for rows.Next() {
		var d SymbolDetail
		if err := rows.Scan(&d.Name, &d.Kind, &d.File, &d.Line, &d.Signature); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, fmt.Errorf("symbol %q is not indexed", name)
	}

	callers, err := s.edgeEnds(`SELECT DISTINCT caller FROM call_edges WHERE callee = ? ORDER BY caller`, name)
	if err != nil {
		return nil, err
	}
	callees, err := s.edgeEnds(`SELECT DISTINCT callee FROM call_edges WHERE caller = ? ORDER BY callee`, name)
	if err != nil {
		return nil, err
	}
	for i := range details {
		details[i].Callers = callers
		details[i].Callees = callees
	}
	return details, nil
}

func (s *Store) edgeEnds(query, name string) ([]string, error) {
	rows, err := s.db.Query(query, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// DomainInfo returns one domain with its member files.
func (s *Store) DomainInfo(name string) (*DomainDetail, error) {
	row := s.db.QueryRow(
		`SELECT name, ifnull(description,''), file_count FROM domains WHERE name = ?`, name,
	)
	var d DomainDetail
	if err := row.Scan(&d.Name, &d.Description, &d.FileCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("domain %q is not indexed", name)
		}
		return nil, err
	}
	files, err := s.edgeEnds(`SELECT path FROM files WHERE domain = ? ORDER BY path`, name)
	if err != nil {
		return nil, err
	}
	d.Files = files
	return &d, nil
}

// LockFor returns the lock level and reason for a path. Unindexed and
// unlocked files both report "normal".
func (s *Store) LockFor(path string) (level, reason string, err error) {
	row := s.db.QueryRow(
		`SELECT ifnull(lock_level,''), ifnull(lock_reason,'') FROM files WHERE path = ?`, path,
	)
	if err := row.Scan(&level, &reason); err != nil && err != sql.ErrNoRows {
		return "", "", err
	}
	if level == "" {
		level = "normal"
	}
	return level, reason, nil
}

// ─── Attempts ────────────────────────────────────────────────────────────────

// StartAttempt records a new debugging attempt and returns its id.
func (s *Store) StartAttempt(problem string) (string, error) {
	id := uuid.NewString()[:8]
	_, err := s.db.Exec(
		`INSERT INTO attempts (id, problem) VALUES (?, ?)`, id, problem,
	)
	if err != nil {
		return "", fmt.Errorf("index: start attempt: %w", err)
	}
	return id, nil
}

// FailAttempt records a failed try against an open attempt.
func (s *Store) FailAttempt(id, note string) error {
	res, err := s.db.Exec(
		`UPDATE attempts SET failures = failures + 1, updated_at = datetime('now')
		 WHERE id = ? AND status = 'open'`, id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("attempt %q not found or already resolved", id)
	}
	if note != "" {
		if _, err := s.db.Exec(
			`INSERT INTO attempt_notes (attempt_id, note) VALUES (?, ?)`, id, note,
		); err != nil {
			return err
		}
	}
	return nil
}

// ResolveAttempt closes an attempt so it no longer surfaces in primers.
func (s *Store) ResolveAttempt(id string) error {
	res, err := s.db.Exec(
		`UPDATE attempts SET status = 'resolved', updated_at = datetime('now')
		 WHERE id = ? AND status = 'open'`, id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("attempt %q not found or already resolved", id)
	}
	return nil
}

// OpenAttempts returns unresolved attempts, oldest first.
func (s *Store) OpenAttempts() ([]AttemptRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, problem, status, failures, created_at, updated_at
		 FROM attempts WHERE status = 'open' ORDER BY created_at`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AttemptRecord
	for rows.Next() {
		var a AttemptRecord
		if err := rows.Scan(&a.ID, &a.Problem, &a.Status, &a.Failures, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		notes, err := s.edgeEnds(
			`SELECT note FROM attempt_notes WHERE attempt_id = ? ORDER BY created_at`, out[i].ID,
		)
		if err != nil {
			return nil, err
		}
		out[i].Notes = notes
	}
	return out, nil
}

// Stats summarizes the index contents.
type Stats struct {
	PrimaryLanguage string `json:"primaryLanguage,omitempty"`
	IndexedAt       string `json:"indexedAt,omitempty"`
	Files           int    `json:"files"`
	Symbols         int    `json:"symbols"`
	Domains         int    `json:"domains"`
	ProtectedFiles  int    `json:"protectedFiles"`
	OpenHacks       int    `json:"openHacks"`
	OpenAttempts    int    `json:"openAttempts"`
}

// IndexStats returns counts and metadata describing the current index.
func (s *Store) IndexStats() (Stats, error) {
	var st Stats
	_ = s.db.QueryRow(`SELECT value FROM meta WHERE key = 'primary_language'`).
		Scan(&st.PrimaryLanguage)
	_ = s.db.QueryRow(`SELECT value FROM meta WHERE key = 'indexed_at'`).
		Scan(&st.IndexedAt)

	counts := []struct {
		query string
		dst   *int
	}{
		{`SELECT count(*) FROM files`, &st.Files},
		{`SELECT count(*) FROM symbols`, &st.Symbols},
		{`SELECT count(*) FROM domains`, &st.Domains},
		{`SELECT count(*) FROM files WHERE lock_level IN ('frozen', 'restricted')`, &st.ProtectedFiles},
		{`SELECT count(*) FROM hacks`, &st.OpenHacks},
		{`SELECT count(*) FROM attempts WHERE status = 'open'`, &st.OpenAttempts},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(c.query).Scan(c.dst); err != nil {
			return st, err
		}
	}
	return st, nil
}

// ─── Snapshot ────────────────────────────────────────────────────────────────

// Snapshot builds the immutable project-facts view consumed by the primer.
// It is read in one pass; later index writes never affect a snapshot already
// captured.
func (s *Store) Snapshot(capabilities []string) (primer.Snapshot, error) {
	snap := primer.Snapshot{Capabilities: capabilities}

	_ = s.db.QueryRow(`SELECT value FROM meta WHERE key = 'primary_language'`).
		Scan(&snap.PrimaryLanguage)

	rows, err := s.db.Query(
		`SELECT path, lock_level, ifnull(lock_reason,'')
		 FROM files
		 WHERE lock_level IN ('frozen', 'restricted')
		 ORDER BY path`,
	)
	if err != nil {
		return snap, err
	}
	for rows.Next() {
		var f primer.ProtectedFile
		if err := rows.Scan(&f.Path, &f.Level, &f.Reason); err != nil {
			rows.Close()
			return snap, err
		}
		snap.ProtectedFiles = append(snap.ProtectedFiles, f)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return snap, err
	}
	rows.Close()

	rows, err = s.db.Query(
		`SELECT name, ifnull(description,''), file_count FROM domains ORDER BY file_count DESC, name`,
	)
	if err != nil {
		return snap, err
	}
	for rows.Next() {
		var d primer.Domain
		if err := rows.Scan(&d.Name, &d.Description, &d.FileCount); err != nil {
			rows.Close()
			return snap, err
		}
		snap.Domains = append(snap.Domains, d)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return snap, err
	}
	rows.Close()

	rows, err = s.db.Query(
		`SELECT file, reason, ifnull(expires,''), created_at FROM hacks ORDER BY created_at`,
	)
	if err != nil {
		return snap, err
	}
	now := time.Now().UTC()
	for rows.Next() {
		var rec HackRecord
		if err := rows.Scan(&rec.File, &rec.Reason, &rec.Expires, &rec.CreatedAt); err != nil {
			rows.Close()
			return snap, err
		}
		snap.Hacks = append(snap.Hacks, rec.toPrimer(now))
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return snap, err
	}
	rows.Close()

	attempts, err := s.OpenAttempts()
	if err != nil {
		return snap, err
	}
	for _, a := range attempts {
		snap.FailedAttempts = append(snap.FailedAttempts, primer.Attempt{
			ID: a.ID, Problem: a.Problem, Failures: a.Failures,
		})
	}

	rows, err = s.db.Query(`SELECT kind, style, confidence FROM conventions ORDER BY kind`)
	if err != nil {
		return snap, err
	}
	defer rows.Close()
	for rows.Next() {
		var c primer.Convention
		if err := rows.Scan(&c.Kind, &c.Style, &c.Confidence); err != nil {
			return snap, err
		}
		snap.Conventions = append(snap.Conventions, c)
	}
	return snap, rows.Err()
}

// toPrimer converts a stored hack to the snapshot form, deriving age and
// expiry at snapshot time.
func (h HackRecord) toPrimer(now time.Time) primer.Hack {
	out := primer.Hack{File: h.File, Reason: h.Reason}
	if created, err := time.Parse("2006-01-02 15:04:05", h.CreatedAt); err == nil {
		out.AgeDays = int(now.Sub(created).Hours() / 24)
	}
	if h.Expires != "" {
		if exp, err := time.Parse("2006-01-02", h.Expires); err == nil && now.After(exp) {
			out.Expired = true
		}
	}
	return out
}

// LoadSnapshot captures a snapshot from the cache at path. A missing or
// unreadable cache yields the empty snapshot, never an error; primers must
// keep working on a fresh checkout.
func LoadSnapshot(path string, capabilities []string) primer.Snapshot {
	// The capability set comes from the invocation, not the cache, so it
	// survives even when the cache does not.
	empty := primer.EmptySnapshot()
	empty.Capabilities = capabilities

	if _, err := os.Stat(path); err != nil {
		return empty
	}
	store, err := Open(path)
	if err != nil {
		return empty
	}
	defer store.Close()

	snap, err := store.Snapshot(capabilities)
	if err != nil {
		return empty
	}
	return snap
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// Now returns the current UTC time in SQLite's datetime format.
func Now() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
