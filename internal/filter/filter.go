// Package filter decides which content paths are visible in a catalog.
//
// A Filter is compiled once from an ordered list of include/exclude rules.
// A path is accepted when the include list is empty or any include pattern
// matches, and no exclude pattern matches. Rule order never changes the
// result.
package filter

import (
	"fmt"
	"regexp"

	"github.com/starford/filecat/internal/apperr"
)

// Kind is the action of one rule.
type Kind uint8

const (
	// Include marks a pattern that admits matching paths.
	Include Kind = iota + 1
	// Exclude marks a pattern that rejects matching paths.
	Exclude
)

func (k Kind) String() string {
	switch k {
	case Include:
		return "include"
	case Exclude:
		return "exclude"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Rule is one user-visible filter rule.
type Rule struct {
	Kind    Kind
	Pattern string
}

// Config is the declarative form of a filter, as it appears in YAML config
// and API requests.
type Config struct {
	Includes []string `yaml:"includes" json:"includes"`
	Excludes []string `yaml:"excludes" json:"excludes"`
}

// Rules expands c into ordered rules, includes first.
func (c Config) Rules() []Rule {
	rules := make([]Rule, 0, len(c.Includes)+len(c.Excludes))
	for _, p := range c.Includes {
		rules = append(rules, Rule{Kind: Include, Pattern: p})
	}
	for _, p := range c.Excludes {
		rules = append(rules, Rule{Kind: Exclude, Pattern: p})
	}
	return rules
}

// IsZero reports whether c carries no rules.
func (c Config) IsZero() bool {
	return len(c.Includes) == 0 && len(c.Excludes) == 0
}

// Filter is a compiled, immutable set of rules.
type Filter struct {
	includes []*regexp.Regexp
	excludes []*regexp.Regexp
	config   Config
}

// New compiles rules. Any unparsable pattern fails the whole set with
// apperr.ErrInvalidFilterPattern; no partial filter is returned.
func New(rules []Rule) (*Filter, error) {
	f := &Filter{}
	for i, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %d (%s) %q: %v", apperr.ErrInvalidFilterPattern, i, r.Kind, r.Pattern, err)
		}
		switch r.Kind {
		case Include:
			f.includes = append(f.includes, re)
			f.config.Includes = append(f.config.Includes, r.Pattern)
		case Exclude:
			f.excludes = append(f.excludes, re)
			f.config.Excludes = append(f.config.Excludes, r.Pattern)
		default:
			return nil, fmt.Errorf("%w: rule %d has unsupported kind %d", apperr.ErrInvalidFilterPattern, i, r.Kind)
		}
	}
	return f, nil
}

// FromConfig compiles a declarative config.
func FromConfig(c Config) (*Filter, error) {
	return New(c.Rules())
}

// MustNew is like New but panics on error. For package-level defaults only.
func MustNew(rules []Rule) *Filter {
	f, err := New(rules)
	if err != nil {
		panic(err)
	}
	return f
}

// Matches reports whether path is accepted.
func (f *Filter) Matches(path string) bool {
	if len(f.includes) > 0 {
		included := false
		for _, re := range f.includes {
			if re.MatchString(path) {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}
	for _, re := range f.excludes {
		if re.MatchString(path) {
			return false
		}
	}
	return true
}

// Config returns the rules f was compiled from.
func (f *Filter) Config() Config {
	return Config{
		Includes: append([]string(nil), f.config.Includes...),
		Excludes: append([]string(nil), f.config.Excludes...),
	}
}

// DefaultConfig is the policy used by reference fields when no filter is
// configured: only files under a static/ directory, skipping hidden and
// underscore-prefixed files.
var DefaultConfig = Config{
	Includes: []string{`/static/`},
	Excludes: []string{`/[._][^/]+$`},
}

// SiteConfig is the workspace browser's policy: editable document types,
// skipping anything under a hidden or underscore-prefixed segment.
var SiteConfig = Config{
	Includes: []string{`\.(yaml|yml|html|md)$`},
	Excludes: []string{`/[_.]`},
}

var (
	defaultFilter = MustNew(DefaultConfig.Rules())
	siteFilter    = MustNew(SiteConfig.Rules())
)

// Default returns the compiled DefaultConfig.
func Default() *Filter { return defaultFilter }

// Site returns the compiled SiteConfig.
func Site() *Filter { return siteFilter }
