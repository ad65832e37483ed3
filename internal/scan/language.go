package scan

import "path/filepath"

// languageForExt maps file extensions to canonical language names.
var languageForExt = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".rs":   "rust",
	".java": "java",
	".rb":   "ruby",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".hpp":  "cpp",
	".cs":   "csharp",
	".php":  "php",
	".sh":   "shell",
	".sql":  "sql",
}

// LanguageOf returns the language for a path, or "" for files the scanner
// does not index.
func LanguageOf(path string) string {
	return languageForExt[filepath.Ext(path)]
}
