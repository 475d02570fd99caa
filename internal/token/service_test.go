package token

import (
	"errors"
	"testing"
	"time"

	"github.com/commentera/commentera-api/internal/model"
	"github.com/commentera/commentera-api/internal/registry"
)

type fakeRegistry map[string]model.CustomerConfig

func (f fakeRegistry) Lookup(alias string) (model.CustomerConfig, error) {
	cfg, ok := f[alias]
	if !ok {
		return model.CustomerConfig{}, registry.ErrNotFound
	}
	return cfg, nil
}

func activeRegistry() fakeRegistry {
	return fakeRegistry{
		"bbg": {Alias: "bbg", Status: "active", Badges: []string{"PAID", "EDITOR"}},
	}
}

func TestIssueVerifyRoundtrip(t *testing.T) {
	svc := NewService(activeRegistry(), "s3cret", 30*time.Minute)

	signed, err := svc.Issue("bbg")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if signed == "" {
		t.Fatal("expected a signed token")
	}

	alias, err := svc.Verify(signed)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if alias != "bbg" {
		t.Fatalf("expected alias bbg, got %q", alias)
	}
}

func TestIssueUnknownCustomer(t *testing.T) {
	svc := NewService(activeRegistry(), "s3cret", 30*time.Minute)

	if _, err := svc.Issue("ghost"); !errors.Is(err, ErrUnknownCustomer) {
		t.Fatalf("expected ErrUnknownCustomer, got %v", err)
	}
}

func TestIssueInactiveCustomer(t *testing.T) {
	reg := fakeRegistry{"airhansa": {Alias: "airhansa", Status: "inactive"}}
	svc := NewService(reg, "s3cret", 30*time.Minute)

	if _, err := svc.Issue("airhansa"); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	now := time.Now()
	svc := NewService(activeRegistry(), "s3cret", time.Minute).
		WithClock(func() time.Time { return now })

	signed, err := svc.Issue("bbg")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	// wind the verifier's clock past expiry
	now = now.Add(2 * time.Minute)
	if _, err := svc.Verify(signed); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestVerifyAfterStatusFlip(t *testing.T) {
	reg := activeRegistry()
	svc := NewService(reg, "s3cret", 30*time.Minute)

	signed, err := svc.Issue("bbg")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	// the config source flips the customer between issuance and use
	reg["bbg"] = model.CustomerConfig{Alias: "bbg", Status: "inactive"}
	if _, err := svc.Verify(signed); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}

	delete(reg, "bbg")
	if _, err := svc.Verify(signed); !errors.Is(err, ErrUnknownCustomer) {
		t.Fatalf("expected ErrUnknownCustomer, got %v", err)
	}
}

func TestVerifyMalformedTokens(t *testing.T) {
	svc := NewService(activeRegistry(), "s3cret", 30*time.Minute)

	for _, tok := range []string{
		"",
		"garbage",
		"a.b.c",
	} {
		if _, err := svc.Verify(tok); !errors.Is(err, ErrMalformed) {
			t.Fatalf("token %q: expected ErrMalformed, got %v", tok, err)
		}
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewService(activeRegistry(), "s3cret", 30*time.Minute)
	verifier := NewService(activeRegistry(), "other", 30*time.Minute)

	signed, err := issuer.Issue("bbg")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := verifier.Verify(signed); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for wrong secret, got %v", err)
	}
}
