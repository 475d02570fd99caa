package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/commentera/commentera-api/internal/metrics"
	"github.com/commentera/commentera-api/internal/model"
	"github.com/commentera/commentera-api/internal/registry"
)

var (
	ErrUnknownCustomer = errors.New("unregistered customer")
	ErrInactive        = errors.New("subscription not active")
	ErrExpired         = errors.New("token expired")
	ErrMalformed       = errors.New("token invalid")
)

const aliasClaim = "customer_alias"

// ConfigLookup is the registry view the token service needs. Satisfied by
// *registry.Registry.
type ConfigLookup interface {
	Lookup(alias string) (model.CustomerConfig, error)
}

var _ ConfigLookup = (*registry.Registry)(nil)

// Service issues and verifies signed, time-limited bearer tokens encoding a
// customer alias. Both paths re-consult the registry, so a status flip in the
// config source revokes access on the next refresh tick.
type Service struct {
	registry ConfigLookup
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

func NewService(reg ConfigLookup, secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Service{
		registry: reg,
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Issue authenticates the alias against the registry and returns a signed
// HS256 token carrying {customer_alias, iat, exp}.
func (s *Service) Issue(alias string) (string, error) {
	cfg, err := s.registry.Lookup(alias)
	if err != nil {
		metrics.TokensIssuedTotal.WithLabelValues("unknown_customer").Inc()
		return "", ErrUnknownCustomer
	}
	if !cfg.Active() {
		metrics.TokensIssuedTotal.WithLabelValues("inactive").Inc()
		return "", ErrInactive
	}

	issuedAt := s.now()
	claims := jwt.MapClaims{
		aliasClaim: alias,
		"iat":      issuedAt.Unix(),
		"exp":      issuedAt.Add(s.ttl).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	metrics.TokensIssuedTotal.WithLabelValues("ok").Inc()
	return signed, nil
}

// Verify checks signature and expiry, then re-resolves the alias against the
// current registry snapshot. This is the sole authentication gate for every
// protected endpoint; the live lookup means a token outlives a refresh but
// not a status flip.
func (s *Service) Verify(tokenString string) (string, error) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpired
		}
		return "", ErrMalformed
	}
	if !tok.Valid {
		return "", ErrMalformed
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrMalformed
	}
	alias, ok := claims[aliasClaim].(string)
	if !ok || alias == "" {
		return "", ErrMalformed
	}

	cfg, err := s.registry.Lookup(alias)
	if err != nil {
		return "", ErrUnknownCustomer
	}
	if !cfg.Active() {
		return "", ErrInactive
	}
	return alias, nil
}
