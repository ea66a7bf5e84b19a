package tracectl

import (
	"strings"

	"github.com/moby/patternmatcher"
)

// Exclusions is a compiled set of event name patterns removed from an
// otherwise matching enable.
type Exclusions struct {
	patterns []string
	pm       *patternmatcher.PatternMatcher
}

// reservedPatternChars are pattern syntax to the matcher but carry no
// meaning in an event name exclusion.
const reservedPatternChars = "/[]\\?"

// CompileExclusions validates and compiles exclusion patterns. A nil or
// empty slice yields a set that excludes nothing.
//
// The only wildcard is '*', matching any run of characters. Patterns
// containing '/', '[', ']', '?' or a backslash are rejected.
func CompileExclusions(patterns []string) (*Exclusions, error) {
	for _, p := range patterns {
		switch {
		case p == "":
			return nil, Errorf(KindInvalidExclusion, "empty exclusion pattern")
		case len(p) > MaxNameLen:
			return nil, Errorf(KindInvalidExclusion, "exclusion %q exceeds %d bytes", p, MaxNameLen)
		case strings.IndexByte(p, 0) >= 0, strings.HasPrefix(p, "!"):
			return nil, Errorf(KindInvalidExclusion, "malformed exclusion pattern %q", p)
		case strings.ContainsAny(p, reservedPatternChars):
			return nil, Errorf(KindInvalidExclusion, "exclusion %q: only '*' wildcards are supported", p)
		}
	}
	x := &Exclusions{patterns: append([]string(nil), patterns...)}
	if len(patterns) == 0 {
		return x, nil
	}
	pm, err := patternmatcher.New(x.patterns)
	if err != nil {
		return nil, Wrap(KindInvalidExclusion, err, "compile exclusions")
	}
	x.pm = pm
	return x, nil
}

// Patterns returns the patterns the set was compiled from.
func (x *Exclusions) Patterns() []string {
	if x == nil {
		return nil
	}
	return append([]string(nil), x.patterns...)
}

// Empty reports whether the set excludes nothing.
func (x *Exclusions) Empty() bool {
	return x == nil || x.pm == nil
}

// Excludes reports whether name matches any pattern of the set.
func (x *Exclusions) Excludes(name string) bool {
	if x.Empty() {
		return false
	}
	ok, err := x.pm.MatchesOrParentMatches(name)
	return err == nil && ok
}

// CheckAgainst rejects a set that would exclude every event matched by
// the event name pattern. A literal name cannot carry exclusions at
// all. An empty name stands for every event and is checked as "*".
func (x *Exclusions) CheckAgainst(eventName string) error {
	if x.Empty() {
		return nil
	}
	if eventName == "" {
		eventName = "*"
	}
	if !strings.Contains(eventName, "*") {
		return Errorf(KindInvalidExclusion, "exclusions require a wildcard event name, got %q", eventName)
	}
	for _, p := range x.patterns {
		if strings.Trim(p, "*") == "" {
			return Errorf(KindInvalidExclusion, "exclusion %q excludes every event", p)
		}
	}
	// The event pattern is matched as a literal string: an exclusion
	// that matches it matches every expansion of it.
	if x.Excludes(eventName) {
		return Errorf(KindInvalidExclusion, "exclusions %v exclude every event matching %q", x.patterns, eventName)
	}
	return nil
}
