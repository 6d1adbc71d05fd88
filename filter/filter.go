// Package filter applies regex allow/block lists to raw messages before
// normalization. Include and exclude modes are mutually exclusive.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Options captures the filtering configuration as raw pattern strings.
type Options struct {
	IncludeHeader []string
	IncludeBody   []string
	ExcludeHeader []string
	ExcludeBody   []string
}

type ruleSet struct {
	header []*regexp.Regexp
	body   []*regexp.Regexp
}

func (r ruleSet) active() bool {
	return len(r.header) > 0 || len(r.body) > 0
}

func (r ruleSet) matches(header, body []byte) bool {
	return matchAny(r.header, header) || matchAny(r.body, body)
}

// Filter holds compiled include/exclude rules.
type Filter struct {
	include ruleSet
	exclude ruleSet
}

// New compiles the configured patterns. Returns an error when any pattern is
// invalid or when include and exclude rules are mixed.
func New(opts Options) (*Filter, error) {
	f := &Filter{}
	var err error

	if f.include.header, err = compile(opts.IncludeHeader); err != nil {
		return nil, fmt.Errorf("include-header: %w", err)
	}
	if f.include.body, err = compile(opts.IncludeBody); err != nil {
		return nil, fmt.Errorf("include-body: %w", err)
	}
	if f.exclude.header, err = compile(opts.ExcludeHeader); err != nil {
		return nil, fmt.Errorf("exclude-header: %w", err)
	}
	if f.exclude.body, err = compile(opts.ExcludeBody); err != nil {
		return nil, fmt.Errorf("exclude-body: %w", err)
	}

	if f.include.active() && f.exclude.active() {
		return nil, fmt.Errorf("include and exclude filters are mutually exclusive")
	}

	return f, nil
}

// Active reports whether any rule is configured.
func (f *Filter) Active() bool {
	return f.include.active() || f.exclude.active()
}

// Allows reports whether a message with the given raw header and body
// sections passes the configured rules.
func (f *Filter) Allows(header, body []byte) bool {
	if f.include.active() {
		return f.include.matches(header, body)
	}
	if f.exclude.active() {
		return !f.exclude.matches(header, body)
	}
	return true
}

func compile(patterns []string) ([]*regexp.Regexp, error) {
	var compiled []*regexp.Regexp
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func matchAny(patterns []*regexp.Regexp, text []byte) bool {
	for _, re := range patterns {
		if re.Match(text) {
			return true
		}
	}
	return false
}
