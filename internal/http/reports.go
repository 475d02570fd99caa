package http

import (
	"net/http"
	"strconv"
	"strings"

	echo "github.com/labstack/echo/v4"

	"github.com/commentera/commentera-api/internal/http/middleware"
	"github.com/commentera/commentera-api/internal/model"
	"github.com/commentera/commentera-api/internal/repository"
)

func listBadgeEventsHandler(eventsRepo repository.EventsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		alias, ok := middleware.CustomerAliasFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		var op model.BadgeOp
		if raw := strings.TrimSpace(c.QueryParam("op")); raw != "" {
			if parsed, ok := model.ParseBadgeOp(raw); ok {
				op = parsed
			}
		}

		events, err := eventsRepo.ListByCustomer(c.Request().Context(), alias, op, limit, offset)
		if err != nil {
			c.Logger().Errorf("clickhouse list failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(events),
			"results": events,
		})
	}
}
