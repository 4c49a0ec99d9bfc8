package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/estate-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller, resolved once per request
// from the access token and never re-derived downstream.
type Principal struct {
	UserID string
	Email  string
}

// SessionMiddleware validates the access token cookie and attaches the
// resolved principal to the request.
type SessionMiddleware struct {
	tokens  *TokenManager
	cookies *CookiePolicy
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(tokens *TokenManager, cookies *CookiePolicy) *SessionMiddleware {
	return &SessionMiddleware{tokens: tokens, cookies: cookies}
}

// Handle enforces authentication for protected routes. A missing cookie is
// rejected without decoding; a present but invalid token additionally clears
// both cookies, since a broken access token after a refresh rotation
// elsewhere indicates a stale pair.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	raw := c.Cookies(AccessCookieName)
	if raw == "" {
		return apperrors.NewUnauthenticated("access denied, login to continue")
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		m.cookies.ClearPair(c)
		return apperrors.NewInvalidToken("access token is invalid or expired")
	}

	c.Locals(principalKey, &Principal{UserID: claims.UserID, Email: claims.Email})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
