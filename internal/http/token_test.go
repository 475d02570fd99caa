package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
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

func newTokenService() *token.Service {
	return token.NewService(stubLookup{
		"bbg":      {Alias: "bbg", Status: "active", Badges: []string{"PAID", "EDITOR"}},
		"airhansa": {Alias: "airhansa", Status: "inactive"},
	}, "test-secret", 30*time.Minute)
}

func postToken(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/generate_token", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := generateTokenHandler(newTokenService())(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestGenerateTokenActiveCustomer(t *testing.T) {
	rec := postToken(t, `{"customer_alias":"bbg"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["token"] == "" {
		t.Fatal("expected a token in the response")
	}
}

func TestGenerateTokenUnknownCustomer(t *testing.T) {
	rec := postToken(t, `{"customer_alias":"ghost"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderWWWAuthenticate); got != "Bearer" {
		t.Fatalf("expected WWW-Authenticate: Bearer, got %q", got)
	}
}

func TestGenerateTokenInactiveCustomer(t *testing.T) {
	rec := postToken(t, `{"customer_alias":"airhansa"}`)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", rec.Code)
	}
}

func TestGenerateTokenBadPayload(t *testing.T) {
	for _, body := range []string{``, `{}`, `{"customer_alias":"  "}`} {
		rec := postToken(t, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}
