package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanPlainText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text untouched",
			input:    "War and Peace",
			expected: "War and Peace",
		},
		{
			name:     "semicolons removed",
			input:    "a;b;c",
			expected: "abc",
		},
		{
			name:     "newlines become spaces",
			input:    "first\nsecond",
			expected: "first second",
		},
		{
			name:     "cyrillic yo folded",
			input:    "Артёмов",
			expected: "Артемов",
		},
		{
			name:     "all together",
			input:    "Фёдоров;\nИван",
			expected: "Федоров Иван",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, CleanPlainText(tt.input))
		})
	}
}

func TestNormalizeLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"RU-", "ru"},
		{"RU~", "ru"},
		{"ru-", "ru"},
		{"ru~", "ru"},
		{"EN", "en"},
		{"ru", "ru"},
		{"De", "de"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, NormalizeLanguage(tt.input))
		})
	}
}

func TestCleanAnnotationText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "tags and tokens",
			input:    "<p>Hello</p>&nbsp;[b]World[/b]",
			expected: "HelloWorld",
		},
		{
			name:     "tags with attributes",
			input:    `<a href="https://example.org">link</a> text`,
			expected: "link text",
		},
		{
			name:     "hr token",
			input:    "above[hr]below",
			expected: "abovebelow",
		},
		{
			name:     "plain text untouched",
			input:    "Nothing to strip here.",
			expected: "Nothing to strip here.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, CleanAnnotationText(tt.input))
		})
	}
}
