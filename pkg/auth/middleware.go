// Package auth guards the API with a static bearer key.
package auth

import (
	"crypto/subtle"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/libsync/libsync/pkg/config"
	"github.com/libsync/libsync/pkg/errcodes"
)

// Middleware checks the Authorization header against the configured
// API key.
type Middleware struct {
	apiKey string
}

func NewMiddleware(cfg *config.Config) *Middleware {
	return &Middleware{apiKey: cfg.APIKey}
}

// Authenticate requires "Authorization: Bearer <key>" with the
// configured key. Comparison is constant-time.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.apiKey == "" {
			return errcodes.Unauthorized("API key is not configured")
		}

		header := c.Request().Header.Get(echo.HeaderAuthorization)
		key, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || key == "" {
			return errcodes.Unauthorized("Authentication required")
		}

		if subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) != 1 {
			return errcodes.Unauthorized("Invalid API key")
		}

		return next(c)
	}
}
