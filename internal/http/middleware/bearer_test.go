package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	echo "github.com/labstack/echo/v4"

	"github.com/commentera/commentera-api/internal/model"
	"github.com/commentera/commentera-api/internal/registry"
	"github.com/commentera/commentera-api/internal/token"
)

type stubLookup map[string]model.CustomerConfig

func (s stubLookup) Lookup(alias string) (model.CustomerConfig, error) {
	cfg, ok := s[alias]
	if !ok {
		return model.CustomerConfig{}, registry.ErrNotFound
	}
	return cfg, nil
}

func runBearer(t *testing.T, svc *token.Service, authHeader string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/users/by_customer/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotAlias string
	next := func(c echo.Context) error {
		gotAlias, _ = CustomerAliasFromCtx(c)
		return c.NoContent(http.StatusOK)
	}
	if err := BearerMiddleware(svc)(next)(c); err != nil {
		t.Fatalf("middleware error: %v", err)
	}
	return rec, gotAlias
}

func TestBearerMiddlewarePassesActiveCustomer(t *testing.T) {
	reg := stubLookup{"bbg": {Alias: "bbg", Status: "active"}}
	svc := token.NewService(reg, "test-secret", 30*time.Minute)

	signed, err := svc.Issue("bbg")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	rec, alias := runBearer(t, svc, "Bearer "+signed)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if alias != "bbg" {
		t.Fatalf("expected alias in context, got %q", alias)
	}
}

func TestBearerMiddlewareMissingHeader(t *testing.T) {
	svc := token.NewService(stubLookup{}, "test-secret", 30*time.Minute)

	for _, header := range []string{"", "Bearer ", "Basic abc"} {
		rec, _ := runBearer(t, svc, header)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
		if got := rec.Header().Get(echo.HeaderWWWAuthenticate); got != "Bearer" {
			t.Fatalf("expected WWW-Authenticate: Bearer, got %q", got)
		}
	}
}

func TestBearerMiddlewareStatusFlip(t *testing.T) {
	reg := stubLookup{"bbg": {Alias: "bbg", Status: "active"}}
	svc := token.NewService(reg, "test-secret", 30*time.Minute)

	signed, err := svc.Issue("bbg")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	// status flips in the source of truth before the token expires
	reg["bbg"] = model.CustomerConfig{Alias: "bbg", Status: "suspended"}
	rec, _ := runBearer(t, svc, "Bearer "+signed)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 after status flip, got %d", rec.Code)
	}
}

func TestBearerMiddlewareGarbageToken(t *testing.T) {
	svc := token.NewService(stubLookup{}, "test-secret", 30*time.Minute)

	rec, _ := runBearer(t, svc, "Bearer not-a-jwt")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
