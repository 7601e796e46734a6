package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdmin = "0x9999999999999999999999999999999999999999"

func actorApp(extra ...fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(Actor())
	handlers := append(extra, func(c *fiber.Ctx) error {
		return c.SendString(GetActor(c))
	})
	app.Get("/whoami", handlers...)
	return app
}

func get(t *testing.T, app *fiber.App, caller string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", "/whoami", nil)
	if caller != "" {
		req.Header.Set("X-Caller-Address", caller)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	buf := make([]byte, 128)
	n, _ := resp.Body.Read(buf)
	return resp.StatusCode, string(buf[:n])
}

func TestActor_NormalizesHeader(t *testing.T) {
	app := actorApp()

	status, body := get(t, app, "0xABCDEF0123456789abcdef0123456789ABCDEF01")
	assert.Equal(t, 200, status)
	assert.Equal(t, "0xabcdef0123456789abcdef0123456789abcdef01", body)
}

func TestActor_InvalidHeaderIsAnonymous(t *testing.T) {
	app := actorApp()

	status, body := get(t, app, "not-an-address")
	assert.Equal(t, 200, status)
	assert.Empty(t, body)
}

func TestRequireActor(t *testing.T) {
	app := actorApp(RequireActor())

	status, _ := get(t, app, "")
	assert.Equal(t, 401, status)

	status, _ = get(t, app, testAdmin)
	assert.Equal(t, 200, status)
}

func TestRequireAdmin(t *testing.T) {
	app := actorApp(RequireActor(), RequireAdmin(testAdmin))

	status, _ := get(t, app, "0x1111111111111111111111111111111111111111")
	assert.Equal(t, 403, status)

	status, _ = get(t, app, testAdmin)
	assert.Equal(t, 200, status)

	// An unset admin address locks the route entirely.
	locked := actorApp(RequireActor(), RequireAdmin(""))
	status, _ = get(t, locked, testAdmin)
	assert.Equal(t, 403, status)
}
