package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/estate-service/internal/config"
)

// Cookie names used for both token values; the refresh token is never echoed
// in a JSON body, only carried here.
const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"
)

// CookiePolicy is a pure function of environment: it decides lifetime,
// same-site mode and the secure flag under which both tokens travel.
type CookiePolicy struct {
	domain     string
	secure     bool
	sameSite   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCookiePolicy derives cookie attributes from configuration. Cross-site
// deployments get SameSite=None, which mandates Secure; same-site ones use
// Lax so the cookies survive top-level navigation.
func NewCookiePolicy(app config.AppConfig, cookie config.CookieConfig, accessTTL time.Duration) *CookiePolicy {
	sameSite := fiber.CookieSameSiteLaxMode
	secure := app.IsProduction()
	if cookie.CrossSite {
		sameSite = fiber.CookieSameSiteNoneMode
		secure = true
	}
	return &CookiePolicy{
		domain:     cookie.Domain,
		secure:     secure,
		sameSite:   sameSite,
		accessTTL:  accessTTL,
		refreshTTL: time.Duration(cookie.RefreshTTLHours) * time.Hour,
	}
}

// SetPair writes both token cookies on the response.
func (p *CookiePolicy) SetPair(c *fiber.Ctx, pair TokenPair) {
	c.Cookie(p.build(AccessCookieName, pair.AccessToken, p.accessTTL))
	c.Cookie(p.build(RefreshCookieName, pair.RefreshToken, p.refreshTTL))
}

// ClearPair overwrites both cookies with an expired lifetime. Attributes must
// match those used at set-time or browsers silently ignore the clear.
func (p *CookiePolicy) ClearPair(c *fiber.Ctx) {
	c.Cookie(p.expired(AccessCookieName))
	c.Cookie(p.expired(RefreshCookieName))
}

func (p *CookiePolicy) build(name, value string, ttl time.Duration) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   p.domain,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		Secure:   p.secure,
		HTTPOnly: true,
		SameSite: p.sameSite,
	}
}

func (p *CookiePolicy) expired(name string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   p.domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   p.secure,
		HTTPOnly: true,
		SameSite: p.sameSite,
	}
}
