package http

import (
	"errors"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/commentera/commentera-api/internal/token"
)

type generateTokenReq struct {
	CustomerAlias string `json:"customer_alias"`
}

func generateTokenHandler(tokens *token.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req generateTokenReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		req.CustomerAlias = strings.TrimSpace(req.CustomerAlias)
		if req.CustomerAlias == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		signed, err := tokens.Issue(req.CustomerAlias)
		if err != nil {
			switch {
			case errors.Is(err, token.ErrUnknownCustomer):
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error":       "unknown_customer",
					"description": "invalid customer alias",
				})
			case errors.Is(err, token.ErrInactive):
				return c.JSON(http.StatusPaymentRequired, map[string]string{
					"error":       "inactive_subscription",
					"description": "payment required",
				})
			default:
				log.Errorf("issue token failed: %v", err)

				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "token error"})
			}
		}

		return c.JSON(http.StatusOK, map[string]string{"token": signed})
	}
}
