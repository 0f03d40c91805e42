// SPDX-License-Identifier: MPL-2.0

// Package identify classifies files into tags ("python", "text",
// "executable", ...) consumed by hook type filters. Classification is
// by extension, well-known filename, and shebang sniffing for
// extensionless executables.
package identify

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// extensionTags maps a file extension (without dot) to its tags.
// Extended as new hook ecosystems need them.
var extensionTags = map[string][]string{
	"py":    {"python", "text"},
	"pyi":   {"python", "pyi", "text"},
	"go":    {"go", "text"},
	"js":    {"javascript", "text"},
	"jsx":   {"jsx", "javascript", "text"},
	"ts":    {"ts", "text"},
	"tsx":   {"tsx", "ts", "text"},
	"rb":    {"ruby", "text"},
	"rs":    {"rust", "text"},
	"c":     {"c", "text"},
	"h":     {"c", "header", "text"},
	"cpp":   {"c++", "text"},
	"hpp":   {"c++", "header", "text"},
	"java":  {"java", "text"},
	"sh":    {"shell", "bash", "text"},
	"bash":  {"shell", "bash", "text"},
	"zsh":   {"shell", "zsh", "text"},
	"yaml":  {"yaml", "text"},
	"yml":   {"yaml", "text"},
	"json":  {"json", "text"},
	"toml":  {"toml", "text"},
	"xml":   {"xml", "text"},
	"html":  {"html", "text"},
	"css":   {"css", "text"},
	"md":    {"markdown", "text"},
	"rst":   {"rst", "text"},
	"txt":   {"plain-text", "text"},
	"sql":   {"sql", "text"},
	"proto": {"proto", "text"},
	"tf":    {"terraform", "text"},
	"lua":   {"lua", "text"},
	"pl":    {"perl", "text"},
	"php":   {"php", "text"},
	"swift": {"swift", "text"},
	"kt":    {"kotlin", "text"},
	"scala": {"scala", "text"},
	"r":     {"r", "text"},
	"dart":  {"dart", "text"},
	"cs":    {"c#", "text"},
	"png":   {"image", "png", "binary"},
	"jpg":   {"image", "jpeg", "binary"},
	"jpeg":  {"image", "jpeg", "binary"},
	"gif":   {"image", "gif", "binary"},
	"pdf":   {"pdf", "binary"},
	"zip":   {"zip", "binary"},
	"gz":    {"gzip", "binary"},
	"tar":   {"tar", "binary"},
	"so":    {"binary"},
	"whl":   {"wheel", "zip", "binary"},
}

// nameTags maps exact basenames to tags.
var nameTags = map[string][]string{
	"Dockerfile":     {"dockerfile", "text"},
	"Makefile":       {"makefile", "text"},
	"makefile":       {"makefile", "text"},
	"go.mod":         {"go-mod", "text"},
	"go.sum":         {"go-sum", "text"},
	"Gemfile":        {"ruby", "text"},
	"Rakefile":       {"ruby", "text"},
	".gitignore":     {"gitignore", "text"},
	".gitattributes": {"gitattributes", "text"},
	"LICENSE":        {"license", "plain-text", "text"},
}

// shebangTags maps an interpreter basename to tags.
var shebangTags = map[string][]string{
	"python":  {"python"},
	"python3": {"python"},
	"bash":    {"shell", "bash"},
	"sh":      {"shell"},
	"zsh":     {"shell", "zsh"},
	"node":    {"javascript"},
	"ruby":    {"ruby"},
	"perl":    {"perl"},
}

// TagsFromPath classifies the file at path. Every existing regular file
// carries "file"; symlinks carry "symlink" and nothing content-based.
// Missing files still get name-based tags so filters behave
// deterministically for deleted-but-listed paths.
func TagsFromPath(path string) []string {
	tags := map[string]bool{}

	info, err := os.Lstat(path)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink != 0:
		return []string{"symlink"}
	case err == nil && info.Mode().IsDir():
		return []string{"directory"}
	case err == nil:
		tags["file"] = true
		if info.Mode()&0o111 != 0 {
			tags["executable"] = true
		} else {
			tags["non-executable"] = true
		}
	}

	named := false
	if nt, ok := nameTags[filepath.Base(path)]; ok {
		named = true
		for _, t := range nt {
			tags[t] = true
		}
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if et, ok := extensionTags[ext]; ok {
		named = true
		for _, t := range et {
			tags[t] = true
		}
	}

	// Extensionless files: sniff the shebang and text-ness.
	if !named && err == nil && info.Mode().IsRegular() {
		for _, t := range sniffTags(path) {
			tags[t] = true
		}
	}

	result := make([]string, 0, len(tags))
	for t := range tags {
		result = append(result, t)
	}
	return result
}

// HasTag reports whether tags contains want.
func HasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

func sniffTags(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	head, _ := reader.Peek(512)
	if len(head) == 0 {
		return []string{"text"}
	}

	var tags []string
	if isText(head) {
		tags = append(tags, "text")
	} else {
		return []string{"binary"}
	}

	if strings.HasPrefix(string(head), "#!") {
		line, _, _ := strings.Cut(string(head), "\n")
		tags = append(tags, shebangInterpreterTags(line)...)
	}
	return tags
}

// shebangInterpreterTags extracts tags from a "#!" line, handling the
// common "#!/usr/bin/env interpreter" indirection.
func shebangInterpreterTags(line string) []string {
	fields := strings.Fields(strings.TrimPrefix(line, "#!"))
	if len(fields) == 0 {
		return nil
	}
	interp := filepath.Base(fields[0])
	if interp == "env" && len(fields) > 1 {
		interp = filepath.Base(fields[1])
	}
	// Strip trailing version digits: python3.11 -> python3 is already
	// mapped; plain numeric suffixes fall back to the bare name.
	if tags, ok := shebangTags[interp]; ok {
		return tags
	}
	trimmed := strings.TrimRight(interp, "0123456789.")
	if tags, ok := shebangTags[trimmed]; ok {
		return tags
	}
	return nil
}

// isText applies git's heuristic: no NUL byte in the head and mostly
// valid UTF-8.
func isText(head []byte) bool {
	for _, b := range head {
		if b == 0 {
			return false
		}
	}
	return utf8.Valid(head) || len(head) == 512
}
