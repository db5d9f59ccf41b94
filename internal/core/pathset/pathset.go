// Package pathset implements a set of slash-delimited paths with
// component-wise prefix semantics. Membership works on whole subtrees:
// after Add("a"), Contains("a/b") is true, but Add("a/b") never makes
// "a" a member. Matching is per component, so "a/b" covers "a/b/c" and
// not "a/bc".
package pathset

import (
	"sort"
	"strings"
)

// Set is a prefix tree of path components. The zero value is an empty
// set ready to use. The empty path denotes the root of the hierarchy:
// Add("") covers every path, and Contains("") asks whether the entire
// hierarchy is covered.
type Set struct {
	all      bool
	children map[string]*Set
}

// New returns an empty set.
func New() *Set {
	return &Set{}
}

// Add inserts the subtree rooted at path into the set.
func (s *Set) Add(path string) {
	s.add(Components(path))
}

func (s *Set) add(parts []string) {
	if s.all {
		return
	}
	if len(parts) == 0 {
		s.all = true
		s.children = nil
		return
	}
	if s.children == nil {
		s.children = make(map[string]*Set)
	}
	child, ok := s.children[parts[0]]
	if !ok {
		child = &Set{}
		s.children[parts[0]] = child
	}
	child.add(parts[1:])
}

// Contains reports whether the whole subtree rooted at path is in the set.
func (s *Set) Contains(path string) bool {
	return s.contains(Components(path))
}

func (s *Set) contains(parts []string) bool {
	if s.all {
		return true
	}
	if len(parts) == 0 {
		return false
	}
	child, ok := s.children[parts[0]]
	if !ok {
		return false
	}
	return child.contains(parts[1:])
}

// Empty reports whether the set contains no path at all.
func (s *Set) Empty() bool {
	return !s.all && len(s.children) == 0
}

// String renders the set as an indented tree, one component per line,
// with "*" marking nodes whose entire subtree is covered. Siblings are
// sorted for stable output.
func (s *Set) String() string {
	return strings.Join(s.lines(nil, ""), "\n")
}

func (s *Set) lines(acc []string, indent string) []string {
	if s.all {
		return append(acc, indent+"*")
	}
	names := make([]string, 0, len(s.children))
	for name := range s.children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		acc = append(acc, indent+name)
		acc = s.children[name].lines(acc, indent+"  ")
	}
	return acc
}

// Components splits a relative path into its components. The empty path
// is the root and has no components.
func Components(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// Child appends a component to a prefix. The empty prefix is the root,
// so Child("", "k") is just "k".
func Child(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// Split divides a path into its parent prefix and final component. A
// single-component path has the empty (root) prefix.
func Split(path string) (prefix, name string) {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}
