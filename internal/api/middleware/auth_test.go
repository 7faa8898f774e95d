package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func signToken(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "acc-1",
		"email": "alice@example.com",
		"role":  "Admin",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

// runAuth executes the middleware with the given Authorization header and
// returns the recorder plus whether next was reached.
func runAuth(t *testing.T, header string, check func(echo.Context)) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth("secret")(func(c echo.Context) error {
		called = true
		if check != nil {
			check(c)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	token := signToken(t, jwt.SigningMethodHS256, []byte("secret"), validClaims())

	rec, called := runAuth(t, "Bearer "+token, func(c echo.Context) {
		if c.Get("account_id") != "acc-1" {
			t.Fatalf("account_id not set")
		}
		if c.Get("email") != "alice@example.com" {
			t.Fatalf("email not set")
		}
		if c.Get("role") != "Admin" {
			t.Fatalf("role not set")
		}
	})

	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Minute).Unix()

	noExp := validClaims()
	delete(noExp, "exp")

	noRole := validClaims()
	delete(noRole, "role")

	cases := map[string]string{
		"missing header":  "",
		"wrong scheme":    "Token abc",
		"garbage token":   "Bearer not-a-token",
		"wrong secret":    "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("other"), validClaims()),
		"wrong algorithm": "Bearer " + signToken(t, jwt.SigningMethodHS512, []byte("secret"), validClaims()),
		"expired":         "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("secret"), expired),
		"no expiry":       "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("secret"), noExp),
		"missing role":    "Bearer " + signToken(t, jwt.SigningMethodHS256, []byte("secret"), noRole),
	}

	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rec, called := runAuth(t, header, nil)
			if called {
				t.Fatalf("should not reach next")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}
