package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func protectedApp(secret string) *fiber.App {
	app := fiber.New()
	app.Get("/protected", JWTMiddleware(secret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"bus_id": c.Locals("bus_id")})
	})
	return app
}

func TestJWTMiddlewareMissingToken(t *testing.T) {
	app := protectedApp("secret")

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %v %v", resp.StatusCode, err)
	}
}

func TestJWTMiddlewareBadScheme(t *testing.T) {
	app := protectedApp("secret")

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic abc")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %v %v", resp.StatusCode, err)
	}
}

func TestJWTMiddlewareValidToken(t *testing.T) {
	svc := NewService("secret")
	token, err := svc.IssueToken("BUS001", "session-1")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	app := protectedApp("secret")
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("expected ok, got %v %v", resp.StatusCode, err)
	}
}

func TestJWTMiddlewareInvalidToken(t *testing.T) {
	app := protectedApp("secret")

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %v %v", resp.StatusCode, err)
	}
}
