package source

import (
	"regexp"
	"strings"
	"sync"
)

// matches reports whether a file at relPath (with base name) survives the
// include/exclude filters. A file is excluded when it matches any exclude
// pattern or, if include patterns are given, fails to match all of them.
//
// Patterns follow fnmatch semantics: '*' matches any run of characters
// including path separators, '?' matches a single character. Includes are
// tested against the base name and the full relative path; excludes against
// the relative path and base name. So "tests/*" rejects everything under
// tests/ at any depth, and "*.log" rejects by extension anywhere.
func matches(includes, excludes []string, relPath, base string) bool {
	for _, pattern := range excludes {
		if globMatch(pattern, relPath) || globMatch(pattern, base) {
			return false
		}
	}

	if len(includes) == 0 {
		return true
	}
	for _, pattern := range includes {
		if globMatch(pattern, relPath) || globMatch(pattern, base) {
			return true
		}
	}
	return false
}

var (
	globMu    sync.Mutex
	globCache = map[string]*regexp.Regexp{}
)

// globMatch compiles pattern to a regexp (cached) and tests name against it.
// Invalid patterns never match.
func globMatch(pattern, name string) bool {
	globMu.Lock()
	re, ok := globCache[pattern]
	if !ok {
		re = compileGlob(pattern)
		globCache[pattern] = re
	}
	globMu.Unlock()
	if re == nil {
		return false
	}
	return re.MatchString(name)
}

func compileGlob(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil
	}
	return re
}
