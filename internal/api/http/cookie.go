package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/StreamChat/internal/api/middleware"
)

// CookieConfig controls the session cookie
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// DefaultCookieConfig returns a 30 day, HttpOnly, non-secure cookie named session_id
func DefaultCookieConfig() CookieConfig {
	return CookieConfig{
		Name:   "session_id",
		MaxAge: 30 * 24 * time.Hour,
	}
}

// cookieStore keeps the session ID in a cookie. The X-Session-ID header is
// read as a fallback for clients that keep the ID themselves, and the
// current ID is always echoed in that header.
type cookieStore struct {
	c   *gin.Context
	cfg CookieConfig
}

func newCookieStore(c *gin.Context, cfg CookieConfig) *cookieStore {
	return &cookieStore{c: c, cfg: cfg}
}

func (s *cookieStore) Get() (string, bool) {
	if v, err := s.c.Cookie(s.cfg.Name); err == nil && v != "" {
		return v, true
	}
	if v := s.c.GetHeader(middleware.SessionHeader); v != "" {
		return v, true
	}
	return "", false
}

func (s *cookieStore) Set(id string) {
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(s.cfg.Name, id, int(s.cfg.MaxAge/time.Second), "/", "", s.cfg.Secure, true)
	s.c.Header(middleware.SessionHeader, id)
}

func (s *cookieStore) Delete() {
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(s.cfg.Name, "", -1, "/", "", s.cfg.Secure, true)
	s.c.Writer.Header().Del(middleware.SessionHeader)
}
