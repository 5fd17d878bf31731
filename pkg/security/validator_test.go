package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSearchQuery(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		expectedErr error
		expected    string
	}{
		{name: "empty", query: "", expected: ""},
		{name: "blank", query: "   ", expected: ""},
		{name: "simple", query: "john", expected: "john"},
		{name: "trimmed", query: "  john doe ", expected: "john doe"},
		{name: "email like", query: "john@example.com", expected: "john@example.com"},
		{name: "allowed punctuation", query: "john-doe_123", expected: "john-doe_123"},
		{name: "address like", query: "O'Brien St, Apt 4", expected: "O'Brien St, Apt 4"},
		{name: "keyword inside a word", query: "selected", expected: "selected"},
		{name: "or inside a word", query: "oregon", expected: "oregon"},
		{name: "equals sign", query: "a=b", expectedErr: ErrQueryInvalid},
		{name: "too long", query: strings.Repeat("a", MaxSearchQueryLength+1), expectedErr: ErrQueryTooLong},
		{name: "max length", query: strings.Repeat("a", MaxSearchQueryLength), expected: strings.Repeat("a", MaxSearchQueryLength)},
		{name: "union", query: "john UNION SELECT * FROM users", expectedErr: ErrQueryInvalid},
		{name: "or condition", query: "john OR 1=1", expectedErr: ErrQueryInvalid},
		{name: "comment", query: "john --", expectedErr: ErrQueryInvalid},
		{name: "drop", query: "john; DROP TABLE users", expectedErr: ErrQueryInvalid},
		{name: "script", query: "<script>alert('xss')</script>", expectedErr: ErrQueryInvalid},
		{name: "sleep", query: "sleep 5", expectedErr: ErrQueryInvalid},
		{name: "ampersand", query: "john&doe", expectedErr: ErrQueryInvalid},
		{name: "percent", query: "100%", expectedErr: ErrQueryInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateSearchQuery(tt.query)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestValidatePropertyName(t *testing.T) {
	valid := []string{"username", "Username", "line_1", "Line3"}
	for _, name := range valid {
		assert.NoError(t, ValidatePropertyName(name), name)
	}

	invalid := []string{"", "1name", "user.name", "name;drop", "user name", strings.Repeat("a", MaxPropertyNameLength+1)}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidatePropertyName(name), ErrPropertyInvalid, name)
	}
}

func TestIsValidSearchChar(t *testing.T) {
	for _, c := range "aZ09 -_.@+',é" {
		assert.True(t, isValidSearchChar(c), string(c))
	}
	for _, c := range "%;&<>\"()*=#/" {
		assert.False(t, isValidSearchChar(c), string(c))
	}
}
