// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/obb

package obb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/woozymasta/pathrules"
)

// ignoredNameSuffixes are lower-case path suffixes never packed.
var ignoredNameSuffixes = []string{".ds_store", "thumbs.db"}

// SkippedLine describes one selective list line ignored with a warning.
type SkippedLine struct {
	// Text is original line content.
	Text string `json:"text" yaml:"text"`
	// Reason explains why line was skipped.
	Reason string `json:"reason" yaml:"reason"`
	// Line is one-based line number.
	Line int `json:"line" yaml:"line"`
}

// SelectionList is parsed selective-compression list.
// Files match exact archive paths, Dirs match everything below a directory, both from archive root.
type SelectionList struct {
	// Files are exact archive-relative file paths.
	Files []string `json:"files,omitempty" yaml:"files,omitempty"`
	// Dirs are archive-relative directory prefixes (written with trailing slash in list).
	Dirs []string `json:"dirs,omitempty" yaml:"dirs,omitempty"`
	// Skipped are lines rejected with a warning (wildcards are not supported).
	Skipped []SkippedLine `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// LoadSelectionList reads selective-compression list from file.
func LoadSelectionList(path string) (*SelectionList, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: selective list %s not found", ErrMissingInput, path)
		}

		return nil, fmt.Errorf("open selective list: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseSelectionList(f)
}

// ParseSelectionList parses list lines: blank and "#" lines are ignored, trailing "/" (or "\")
// marks a directory rule, lines with glob syntax are skipped and reported in Skipped.
func ParseSelectionList(r io.Reader) (*SelectionList, error) {
	if r == nil {
		return nil, ErrNilReader
	}

	list := &SelectionList{}
	seenFiles := make(map[string]struct{})
	seenDirs := make(map[string]struct{})

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		original := sc.Text()
		line := strings.TrimSpace(strings.TrimPrefix(original, "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		isDir := strings.HasSuffix(line, "/") || strings.HasSuffix(line, `\`)
		trimmed := strings.Trim(strings.ReplaceAll(line, `\`, `/`), "/")
		if trimmed == "" {
			continue
		}

		if strings.ContainsAny(trimmed, "*?[") {
			list.Skipped = append(list.Skipped, SkippedLine{
				Line:   lineNo,
				Text:   original,
				Reason: "wildcards are not supported",
			})

			continue
		}

		key := strings.ToLower(trimmed)
		if isDir {
			if _, ok := seenDirs[key]; !ok {
				seenDirs[key] = struct{}{}
				list.Dirs = append(list.Dirs, trimmed)
			}

			continue
		}

		if _, ok := seenFiles[key]; !ok {
			seenFiles[key] = struct{}{}
			list.Files = append(list.Files, trimmed)
		}
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read selective list: %w", err)
	}

	return list, nil
}

// rules converts list entries into root-anchored include rules.
func (l *SelectionList) rules() []pathrules.Rule {
	if l == nil {
		return nil
	}

	rules := make([]pathrules.Rule, 0, len(l.Files)+len(l.Dirs))
	for _, file := range l.Files {
		rules = append(rules, pathrules.Rule{Action: pathrules.ActionInclude, Pattern: "/" + file})
	}
	for _, dir := range l.Dirs {
		rules = append(rules, pathrules.Rule{Action: pathrules.ActionInclude, Pattern: "/" + dir + "/"})
	}

	return rules
}

// compressMatcher holds compiled allow-list rules for compression.
type compressMatcher struct {
	matcher *pathrules.Matcher
}

// newCompressMatcher compiles selective list into case-insensitive, default-exclude matcher.
// It returns nil matcher when list has no usable rules.
func newCompressMatcher(list *SelectionList) (*compressMatcher, error) {
	rules := list.rules()
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   pathrules.ActionExclude,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSelectionRules, err)
	}

	return &compressMatcher{matcher: matcher}, nil
}

// Match reports whether file path is included by at least one rule.
func (m *compressMatcher) Match(path string) bool {
	if m == nil || m.matcher == nil {
		return false
	}

	candidate := NormalizePath(path)
	if candidate == "" {
		return false
	}

	return m.matcher.Included(candidate, false)
}

// compressPolicy decides per file whether a Container should be attempted.
type compressPolicy struct {
	matcher   *compressMatcher
	selective bool
	all       bool
}

// newCompressPolicy builds policy from pack options: selective list wins over global flag.
func newCompressPolicy(opts PackOptions) (*compressPolicy, error) {
	if opts.Selection == nil {
		return &compressPolicy{all: opts.CompressAll}, nil
	}

	matcher, err := newCompressMatcher(opts.Selection)
	if err != nil {
		return nil, err
	}

	return &compressPolicy{matcher: matcher, selective: true}, nil
}

// candidate reports whether path should be compressed.
func (p *compressPolicy) candidate(path string) bool {
	if p == nil {
		return false
	}
	if p.selective {
		return p.matcher.Match(path)
	}

	return p.all
}

// isIgnoredName reports whether path names an OS metadata file that is never packed.
func isIgnoredName(path string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range ignoredNameSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}

	return false
}
