package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "token"

// SessionCookies binds session tokens to the cookie channel.
type SessionCookies struct {
	secure   bool
	sameSite string
	maxAge   time.Duration
}

// NewSessionCookies builds the cookie transport. maxAge should equal the token TTL.
func NewSessionCookies(secure bool, sameSite string, maxAge time.Duration) *SessionCookies {
	mode := fiber.CookieSameSiteStrictMode
	if strings.EqualFold(sameSite, fiber.CookieSameSiteLaxMode) {
		mode = fiber.CookieSameSiteLaxMode
	}
	return &SessionCookies{secure: secure, sameSite: mode, maxAge: maxAge}
}

// Attach sets the session cookie on the response.
func (s *SessionCookies) Attach(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.isSecure(c),
		SameSite: s.sameSite,
		MaxAge:   int(s.maxAge.Seconds()),
		Expires:  time.Now().Add(s.maxAge),
	})
}

// Detach clears the session cookie by re-setting it already expired.
func (s *SessionCookies) Detach(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.isSecure(c),
		SameSite: s.sameSite,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

// Read returns the session token sent by the client, or "".
func (s *SessionCookies) Read(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Cookies(SessionCookieName))
}

func (s *SessionCookies) isSecure(c *fiber.Ctx) bool {
	return s.secure || c.Protocol() == "https"
}
