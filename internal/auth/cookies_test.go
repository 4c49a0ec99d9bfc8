package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/estate-service/internal/config"
)

func respondWith(t *testing.T, handler fiber.Handler) *http.Response {
	t.Helper()

	app := fiber.New()
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	return resp
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCookiePolicy_DevelopmentDefaults(t *testing.T) {
	t.Parallel()

	policy := NewCookiePolicy(
		config.AppConfig{Env: "development"},
		config.CookieConfig{RefreshTTLHours: 168},
		time.Hour,
	)

	resp := respondWith(t, func(c *fiber.Ctx) error {
		policy.SetPair(c, TokenPair{AccessToken: "acc", RefreshToken: "ref"})
		return c.SendStatus(http.StatusOK)
	})

	access := findCookie(resp, AccessCookieName)
	refresh := findCookie(resp, RefreshCookieName)
	require.NotNil(t, access)
	require.NotNil(t, refresh)

	assert.True(t, access.HttpOnly)
	assert.True(t, refresh.HttpOnly)
	assert.False(t, access.Secure, "dev stays on http")
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
	assert.Equal(t, int(time.Hour.Seconds()), access.MaxAge)
	assert.Equal(t, int((168 * time.Hour).Seconds()), refresh.MaxAge)
}

func TestCookiePolicy_CrossSiteForcesSecureNone(t *testing.T) {
	t.Parallel()

	policy := NewCookiePolicy(
		config.AppConfig{Env: "development"},
		config.CookieConfig{RefreshTTLHours: 168, CrossSite: true},
		time.Hour,
	)

	resp := respondWith(t, func(c *fiber.Ctx) error {
		policy.SetPair(c, TokenPair{AccessToken: "acc", RefreshToken: "ref"})
		return c.SendStatus(http.StatusOK)
	})

	access := findCookie(resp, AccessCookieName)
	require.NotNil(t, access)
	assert.True(t, access.Secure, "SameSite=None mandates Secure")
	assert.Equal(t, http.SameSiteNoneMode, access.SameSite)
}

func TestCookiePolicy_ClearMatchesSetAttributes(t *testing.T) {
	t.Parallel()

	policy := NewCookiePolicy(
		config.AppConfig{Env: "production"},
		config.CookieConfig{Domain: "api.example.com", RefreshTTLHours: 168},
		time.Hour,
	)

	resp := respondWith(t, func(c *fiber.Ctx) error {
		policy.ClearPair(c)
		return c.SendStatus(http.StatusOK)
	})

	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		cleared := findCookie(resp, name)
		require.NotNil(t, cleared, name)
		assert.Empty(t, cleared.Value)
		assert.True(t, cleared.Secure)
		assert.Equal(t, "api.example.com", cleared.Domain)
		assert.True(t, cleared.Expires.Before(time.Now()), "clear must expire immediately")
	}
}
