package logging

import (
	"regexp"
	"strings"
)

// Patterns for credentials that can end up in request logs or error messages
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_\-./+=]{8,}`),
	regexp.MustCompile(`(?i)basic\s+[a-zA-Z0-9+/]{8,}={0,2}`),
	regexp.MustCompile(`(?i)\bjwt\s+[a-zA-Z0-9_\-]+\.[a-zA-Z0-9_\-]+\.[a-zA-Z0-9_\-]+`),
	regexp.MustCompile(`(?i)jsessionid=[a-zA-Z0-9_\-.]+`),
	regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
	regexp.MustCompile(`(?i)(api[_-]?token|access[_-]?token|password|secret)[\s]*[:=][\s]*["']?[^\s"']{8,}["']?`),
}

// Scrubber removes credentials from log text
type Scrubber struct {
	patterns []*regexp.Regexp
}

// NewScrubber creates a new Scrubber with default patterns
func NewScrubber() *Scrubber {
	return &Scrubber{
		patterns: sensitivePatterns,
	}
}

// Scrub removes sensitive information from the input string
func (s *Scrubber) Scrub(input string) string {
	scrubbed := input

	for _, pattern := range s.patterns {
		scrubbed = pattern.ReplaceAllStringFunc(scrubbed, func(match string) string {
			// Keep the scheme or key so the redaction stays readable
			if i := strings.IndexAny(match, "=:"); i > 0 {
				return match[:i+1] + "***REDACTED***"
			}
			if i := strings.IndexByte(match, ' '); i > 0 {
				return match[:i] + " ***REDACTED***"
			}
			return "***REDACTED***"
		})
	}

	return scrubbed
}

// AddPattern adds a custom pattern to the scrubber
func (s *Scrubber) AddPattern(pattern *regexp.Regexp) {
	s.patterns = append(append([]*regexp.Regexp(nil), s.patterns...), pattern)
}
