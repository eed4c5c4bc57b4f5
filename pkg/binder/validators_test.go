package binder

import (
	"fmt"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type urlParams struct {
	Link string `json:"link" validate:"url"`
}

type dateParams struct {
	Day string `json:"day" validate:"date"`
}

func TestURLValidator(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	tests := []struct {
		value string
		valid bool
	}{
		{"https://example.com/feed", true},
		{"http://example.com", true},
		{"", true},
		{"ftp://example.com", false},
		{"example.com", false},
		{"https://", false},
		{"not a url", false},
	}

	for _, test := range tests {
		c := newContext(fmt.Sprintf(`{"link":%q}`, test.value), echo.MIMEApplicationJSON)
		p := urlParams{}
		err = b.Bind(&p, c)
		if test.valid {
			assert.NoError(t, err, test.value)
		} else {
			assert.Error(t, err, test.value)
		}
	}
}

func TestDateValidator(t *testing.T) {
	t.Parallel()
	b, err := New()
	require.NoError(t, err)

	tests := []struct {
		value string
		valid bool
	}{
		{"2024-05-01", true},
		{"", true},
		{"2024-13-01", false},
		{"05/01/2024", false},
	}

	for _, test := range tests {
		c := newContext(fmt.Sprintf(`{"day":%q}`, test.value), echo.MIMEApplicationJSON)
		p := dateParams{}
		err = b.Bind(&p, c)
		if test.valid {
			assert.NoError(t, err, test.value)
		} else {
			assert.Error(t, err, test.value)
		}
	}
}
