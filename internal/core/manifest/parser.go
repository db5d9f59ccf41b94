package manifest

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"dconfsync.dev/cli/internal/core/pathset"
	"dconfsync.dev/cli/internal/core/store"
)

// ParseError reports an invalid configuration document. It is fatal and
// raised before the store is ever contacted.
type ParseError struct {
	File    string
	Line    int
	Text    string
	Message string
}

func (e *ParseError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("%s:%d: %s: %q", e.File, e.Line, e.Message, e.Text)
}

// Parse reads a single configuration document. It is strict: duplicate
// sections, duplicate keys within a section, entries outside a section,
// and entries under an exclusion header are all ParseErrors. Blank
// lines and full-line #/; comments are skipped; values keep their
// serialized form verbatim.
func Parse(r io.Reader, name string) (*Document, error) {
	doc := &Document{}
	seenSections := make(map[string]bool)
	seenExclusions := make(map[string]bool)
	curIdx := -1
	inExclusion := false
	var curKeys map[string]bool

	scanner := newLineScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if skipLine(line) {
			continue
		}

		if strings.HasPrefix(line, "[") {
			inner, err := sectionHeader(line)
			if err != nil {
				return nil, &ParseError{File: name, Line: lineNum, Text: line, Message: err.Error()}
			}
			if rest, ok := strings.CutPrefix(inner, "-"); ok {
				path, err := normalizePath(rest)
				if err != nil {
					return nil, &ParseError{File: name, Line: lineNum, Text: line, Message: fmt.Sprintf("invalid exclusion path: %v", err)}
				}
				if seenExclusions[path] {
					return nil, &ParseError{File: name, Line: lineNum, Text: line, Message: "duplicate exclusion section"}
				}
				seenExclusions[path] = true
				doc.Exclusions = append(doc.Exclusions, path)
				curIdx = -1
				inExclusion = true
				continue
			}
			path, err := normalizePath(inner)
			if err != nil {
				return nil, &ParseError{File: name, Line: lineNum, Text: line, Message: fmt.Sprintf("invalid section path: %v", err)}
			}
			if seenSections[path] {
				return nil, &ParseError{File: name, Line: lineNum, Text: line, Message: "duplicate section"}
			}
			seenSections[path] = true
			doc.Sections = append(doc.Sections, Section{Path: path})
			curIdx = len(doc.Sections) - 1
			curKeys = make(map[string]bool)
			inExclusion = false
			continue
		}

		key, value, err := splitEntry(line)
		if err != nil {
			return nil, &ParseError{File: name, Line: lineNum, Text: line, Message: err.Error()}
		}
		if inExclusion {
			return nil, &ParseError{File: name, Line: lineNum, Text: line, Message: "entries are not allowed in an exclusion section"}
		}
		if curIdx < 0 {
			return nil, &ParseError{File: name, Line: lineNum, Text: line, Message: "entry before any section header"}
		}
		if curKeys[key] {
			return nil, &ParseError{File: name, Line: lineNum, Text: line, Message: fmt.Sprintf("duplicate key %q in section [%s]", key, doc.Sections[curIdx].Path)}
		}
		curKeys[key] = true
		doc.Sections[curIdx].Entries = append(doc.Sections[curIdx].Entries, Entry{Key: key, Value: store.Value(value)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return doc, nil
}

// ParseSnapshot reads keyfile text the way the store dumps it: headers
// are taken literally (a leading "-" is part of the path, not an
// exclusion) and every entry flattens to its full path.
func ParseSnapshot(r io.Reader, name string) (store.Snapshot, error) {
	snap := store.Snapshot{}
	current := ""
	haveSection := false

	scanner := newLineScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if skipLine(line) {
			continue
		}

		if strings.HasPrefix(line, "[") {
			inner, err := sectionHeader(line)
			if err != nil {
				return nil, &ParseError{File: name, Line: lineNum, Text: line, Message: err.Error()}
			}
			path, err := normalizePath(inner)
			if err != nil {
				return nil, &ParseError{File: name, Line: lineNum, Text: line, Message: fmt.Sprintf("invalid section path: %v", err)}
			}
			current = path
			haveSection = true
			continue
		}

		key, value, err := splitEntry(line)
		if err != nil {
			return nil, &ParseError{File: name, Line: lineNum, Text: line, Message: err.Error()}
		}
		if !haveSection {
			return nil, &ParseError{File: name, Line: lineNum, Text: line, Message: "entry before any section header"}
		}
		path := pathset.Child(current, key)
		if _, exists := snap[path]; exists {
			return nil, &ParseError{File: name, Line: lineNum, Text: line, Message: fmt.Sprintf("duplicate path %q", path)}
		}
		snap[path] = store.Value(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return snap, nil
}

// Store values can be large serialized containers, so allow lines well
// past bufio's default token size.
func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return scanner
}

func skipLine(line string) bool {
	return line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";")
}

func sectionHeader(line string) (string, error) {
	if !strings.HasSuffix(line, "]") {
		return "", fmt.Errorf("malformed section header")
	}
	inner := strings.TrimSpace(line[1 : len(line)-1])
	if inner == "" {
		return "", fmt.Errorf("empty section header")
	}
	return inner, nil
}

func splitEntry(line string) (key, value string, err error) {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return "", "", fmt.Errorf("expected key=value or [section] header")
	}
	key = strings.TrimSpace(line[:eq])
	value = strings.TrimSpace(line[eq+1:])
	if err := validateKey(key); err != nil {
		return "", "", err
	}
	return key, value, nil
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty key")
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" {
			return fmt.Errorf("empty path component in key %q", key)
		}
	}
	return nil
}

// normalizePath canonicalizes a section path: surrounding slashes are
// dropped and the bare root ("/" or the empty remainder) maps to the
// empty relative path.
func normalizePath(raw string) (string, error) {
	p := strings.Trim(strings.TrimSpace(raw), "/")
	if p == "" {
		return "", nil
	}
	for _, part := range strings.Split(p, "/") {
		if part == "" {
			return "", fmt.Errorf("empty path component in %q", raw)
		}
	}
	return p, nil
}
