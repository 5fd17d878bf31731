package security

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxSearchQueryLength defines the maximum allowed length for search queries
	MaxSearchQueryLength = 100
	// MaxPropertyNameLength defines the maximum allowed length for a searchable property name
	MaxPropertyNameLength = 64
)

var (
	// ErrQueryTooLong is returned when a search query exceeds MaxSearchQueryLength runes
	ErrQueryTooLong = errors.New("search query too long")
	// ErrQueryInvalid is returned when a search query contains a forbidden pattern or character
	ErrQueryInvalid = errors.New("search query contains invalid characters")
	// ErrPropertyInvalid is returned when a property name is not a plain identifier
	ErrPropertyInvalid = errors.New("invalid property name")
)

// dangerousPatterns contains regex patterns that could indicate SQL injection attempts
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(union|select|insert|update|delete|drop|create|alter|exec|execute)\b`),
	regexp.MustCompile(`(?i)\b(or|and)\s+\d+\s*=\s*\d+`),
	regexp.MustCompile(`(?i)\b(or|and)\s+['"].*['"]\s*=\s*['"].*['"]`),
	regexp.MustCompile(`(--|#|/\*|\*/)`),
	regexp.MustCompile(`(?i)\b(waitfor|delay|benchmark|sleep)\b`),

	// XSS patterns, the value may be echoed back by clients
	regexp.MustCompile(`(?i)(<script|</script|javascript:|vbscript:|onload=|onerror=)`),
}

var propertyName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidateSearchQuery validates a free-text search value and returns it trimmed.
// An empty query is valid and matches everything.
func ValidateSearchQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}

	if utf8.RuneCountInString(query) > MaxSearchQueryLength {
		return "", ErrQueryTooLong
	}

	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(query) {
			return "", ErrQueryInvalid
		}
	}

	for _, char := range query {
		if !isValidSearchChar(char) {
			return "", ErrQueryInvalid
		}
	}

	return query, nil
}

// ValidatePropertyName checks that name is a plain identifier usable as a
// column or field name.
func ValidatePropertyName(name string) error {
	if len(name) > MaxPropertyNameLength || !propertyName.MatchString(name) {
		return ErrPropertyInvalid
	}
	return nil
}

// isValidSearchChar checks if a character is safe for search queries
func isValidSearchChar(char rune) bool {
	// Allow letters, numbers, spaces, and common punctuation
	return unicode.IsLetter(char) || unicode.IsNumber(char) ||
		char == ' ' || char == '-' || char == '_' || char == '.' ||
		char == '@' || char == '+' || char == '\'' || char == ','
}
