// Package validation checks user input and reports quality problems in the
// curated catalog.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/qubesight-bit/gosafe.lat-sub000/interfaces"
)

// Pre-compiled patterns, compiled once at package initialization
var (
	// Substance names: letters in any script, digits, spaces and the
	// punctuation real names use ("2C-B", "GHB/GBL", "St. John's Wort").
	nameRegex = regexp.MustCompile(`^[\p{L}\p{N}\s\-\.\+'/,()]+$`)

	// Community statuses such as "Low Risk & Synergy".
	statusRegex = regexp.MustCompile(`^[\p{L}\p{N}\s\-&/]+$`)

	// Plain substring checks are enough for these
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "eval(", "expression(", "url(",
		"@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"--", "/*", "*/", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
		// NoSQL injection patterns
		"{$ne:", "{$gt:", "{$where:", "{$or:", "{$regex:",
	}
)

const (
	MaxNameLength   = 80
	MaxStatusLength = 60
	maxWords        = 6
	maxRepeat       = 10
)

// Compile-time check to ensure Validator implements InputValidator
var _ interfaces.InputValidator = (*Validator)(nil)

// Validator validates user supplied strings
type Validator struct{}

// NewValidator creates a new input validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateInput validates free text such as suggestion queries
func (v *Validator) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if utf8.RuneCountInString(input) > MaxNameLength {
		return fmt.Errorf("input too long: maximum %d characters", MaxNameLength)
	}

	if len(strings.Fields(input)) > maxWords {
		return fmt.Errorf("query too complex: maximum %d words allowed", maxWords)
	}

	if containsDangerousPattern(input) {
		return fmt.Errorf("input contains potentially dangerous content")
	}

	if !nameRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces, and - . + ' / , ( ) are allowed")
	}

	if hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateName validates a substance name and returns it trimmed
func (v *Validator) ValidateName(input string) (string, error) {
	name := strings.TrimSpace(input)
	if name == "" {
		return "", fmt.Errorf("substance name cannot be empty")
	}

	if utf8.RuneCountInString(name) < 2 {
		return "", fmt.Errorf("substance name too short: minimum 2 characters")
	}

	if err := v.ValidateInput(name); err != nil {
		return "", err
	}

	return name, nil
}

// ValidateStatus validates a raw community status string
func (v *Validator) ValidateStatus(input string) (string, error) {
	status := strings.TrimSpace(input)
	if status == "" {
		return "", fmt.Errorf("status cannot be empty")
	}

	if utf8.RuneCountInString(status) > MaxStatusLength {
		return "", fmt.Errorf("status too long: maximum %d characters", MaxStatusLength)
	}

	if !statusRegex.MatchString(status) {
		return "", fmt.Errorf("status contains invalid characters. Only letters, numbers, spaces, and - & / are allowed")
	}

	return status, nil
}

func containsDangerousPattern(input string) bool {
	lower := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// hasExcessiveRepetition reports more than maxRepeat identical runes in a row
func hasExcessiveRepetition(input string) bool {
	var prev rune
	run := 0
	for _, r := range input {
		if r == prev {
			run++
			if run > maxRepeat {
				return true
			}
			continue
		}
		prev, run = r, 1
	}
	return false
}
