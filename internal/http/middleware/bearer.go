package middleware

import (
	"errors"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"

	"github.com/commentera/commentera-api/internal/token"
)

// CustomerAliasFromCtx extracts the authenticated alias set by BearerMiddleware.
func CustomerAliasFromCtx(c echo.Context) (string, bool) {
	v := c.Get("customer_alias")
	alias, ok := v.(string)
	return alias, ok && alias != ""
}

// BearerMiddleware authenticates requests using an Authorization: Bearer
// token. Verification re-resolves the customer against the live registry, so
// a status flip in the config source blocks the token after the next refresh.
func BearerMiddleware(tokens *token.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
			bearer, ok := strings.CutPrefix(raw, "Bearer ")
			if !ok || strings.TrimSpace(bearer) == "" {
				return unauthorized(c, "missing bearer token")
			}

			alias, err := tokens.Verify(strings.TrimSpace(bearer))
			if err != nil {
				switch {
				case errors.Is(err, token.ErrInactive):
					return c.JSON(http.StatusPaymentRequired, map[string]string{
						"error":       "inactive_subscription",
						"description": "payment required",
					})
				case errors.Is(err, token.ErrExpired):
					return unauthorized(c, "token expired")
				case errors.Is(err, token.ErrUnknownCustomer):
					return unauthorized(c, "unregistered customer")
				default:
					return unauthorized(c, "token invalid")
				}
			}

			c.Set("customer_alias", alias)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context, desc string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"error":       "unauthorized",
		"description": desc,
	})
}
