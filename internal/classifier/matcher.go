// Package classifier matches transaction descriptions against owner and tag
// patterns.
package classifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rongwang/condo-ledger/internal/models"
)

// Compile compiles a stored pattern. Matching is case-insensitive.
func Compile(pattern string) (*regexp.Regexp, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, fmt.Errorf("pattern is empty")
	}
	return regexp.Compile("(?i)" + pattern)
}

type rule struct {
	patternID string
	targetID  string
	re        *regexp.Regexp
}

// Matcher holds compiled owner and tag patterns in evaluation order
type Matcher struct {
	ownerRules []rule
	tagRules   []rule
}

// Result is what a description matched
type Result struct {
	OwnerID    *string
	TagIDs     []string
	PatternIDs []string
}

// Matched reports whether anything matched
func (r Result) Matched() bool {
	return r.OwnerID != nil || len(r.TagIDs) > 0
}

// NewMatcher compiles the active patterns in the order given. Patterns that no
// longer compile are skipped and reported in the returned error slice.
func NewMatcher(patterns []models.Pattern) (*Matcher, []error) {
	m := &Matcher{}
	var errs []error
	for _, p := range patterns {
		if !p.IsActive {
			continue
		}
		re, err := Compile(p.Pattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("pattern %s: %w", p.ID, err))
			continue
		}
		switch {
		case p.OwnerID != nil:
			m.ownerRules = append(m.ownerRules, rule{patternID: p.ID, targetID: *p.OwnerID, re: re})
		case p.TagID != nil:
			m.tagRules = append(m.tagRules, rule{patternID: p.ID, targetID: *p.TagID, re: re})
		}
	}
	return m, errs
}

// Match evaluates text. The first matching owner pattern decides the owner;
// every matching tag pattern contributes its tag once.
func (m *Matcher) Match(text string) Result {
	var res Result
	if text == "" {
		return res
	}

	for _, r := range m.ownerRules {
		if r.re.MatchString(text) {
			ownerID := r.targetID
			res.OwnerID = &ownerID
			res.PatternIDs = append(res.PatternIDs, r.patternID)
			break
		}
	}

	seen := make(map[string]bool)
	for _, r := range m.tagRules {
		if seen[r.targetID] || !r.re.MatchString(text) {
			continue
		}
		seen[r.targetID] = true
		res.TagIDs = append(res.TagIDs, r.targetID)
		res.PatternIDs = append(res.PatternIDs, r.patternID)
	}

	return res
}
