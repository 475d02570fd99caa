package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/commentera/commentera-api/internal/http/middleware"
	"github.com/commentera/commentera-api/internal/model"
	"github.com/commentera/commentera-api/internal/registry"
	"github.com/commentera/commentera-api/internal/repository"
	"github.com/commentera/commentera-api/internal/service/badge"
)

type badgeNamesReq struct {
	BadgeNames []string `json:"badge_names"`
}

type replaceBadgesReq struct {
	OldBadgeNames []string `json:"old_badge_names"`
	NewBadgeNames []string `json:"new_badge_names"`
}

func addBadgesHandler(badgeSvc *badge.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		alias, userID, ok := authAndUserID(c)
		if !ok {
			return nil // response already written
		}

		var req badgeNamesReq
		if err := c.Bind(&req); err != nil || !validNames(req.BadgeNames) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		if err := badgeSvc.AddBadges(c.Request().Context(), alias, userID, req.BadgeNames); err != nil {
			return badgeError(c, err)
		}

		return c.JSON(http.StatusOK, map[string]any{
			"status_code": http.StatusOK,
			"message":     "Add user badge request successful",
		})
	}
}

func replaceBadgesHandler(badgeSvc *badge.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		alias, userID, ok := authAndUserID(c)
		if !ok {
			return nil
		}

		var req replaceBadgesReq
		if err := c.Bind(&req); err != nil || !validNames(req.OldBadgeNames) || !validNames(req.NewBadgeNames) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		if err := badgeSvc.ReplaceBadges(c.Request().Context(), alias, userID, req.OldBadgeNames, req.NewBadgeNames); err != nil {
			return badgeError(c, err)
		}

		return c.JSON(http.StatusOK, map[string]any{
			"status_code": http.StatusOK,
			"message":     "Update user badge request successful",
		})
	}
}

func removeBadgesHandler(badgeSvc *badge.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		alias, userID, ok := authAndUserID(c)
		if !ok {
			return nil
		}

		var req badgeNamesReq
		if err := c.Bind(&req); err != nil || !validNames(req.BadgeNames) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		if err := badgeSvc.RemoveBadges(c.Request().Context(), alias, userID, req.BadgeNames); err != nil {
			return badgeError(c, err)
		}

		return c.JSON(http.StatusOK, map[string]any{
			"status_code": http.StatusOK,
			"message":     "Delete user badge request successful",
		})
	}
}

func listUsersHandler(usersRepo repository.UsersRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		alias, ok := middleware.CustomerAliasFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		users, err := usersRepo.ListByCustomer(c.Request().Context(), alias)
		if err != nil {
			log.Errorf("list users failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		if len(users) == 0 {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error":       "not_found",
				"description": "no users found for customer " + alias,
			})
		}

		return c.JSON(http.StatusOK, users)
	}
}

// authAndUserID reads the authenticated alias and the user_id path param,
// writing the error response itself when either is unusable.
func authAndUserID(c echo.Context) (string, uuid.UUID, bool) {
	alias, ok := middleware.CustomerAliasFromCtx(c)
	if !ok {
		_ = c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return "", uuid.Nil, false
	}

	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		_ = c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return "", uuid.Nil, false
	}
	return alias, userID, true
}

// validNames enforces the request shape: 1..2 non-empty badge names.
func validNames(names []string) bool {
	if len(names) < 1 || len(names) > model.MaxBadgesPerUser {
		return false
	}
	for _, n := range names {
		if n == "" {
			return false
		}
	}
	return true
}

// badgeError maps the badge taxonomy to HTTP statuses with stable kinds.
func badgeError(c echo.Context, err error) error {
	// alias dropped out of the registry between middleware and mutation
	if errors.Is(err, registry.ErrNotFound) {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error":       "unknown_customer",
			"description": "unregistered customer",
		})
	}
	type mapping struct {
		target error
		status int
		kind   string
		desc   string
	}
	for _, m := range []mapping{
		{badge.ErrUserNotFound, http.StatusNotFound, "user_not_found", "no user found with the given id"},
		{badge.ErrBadgeNotFound, http.StatusNotFound, "badge_not_found", "badge does not exist for the user"},
		{badge.ErrNoBadgesConfigured, http.StatusBadRequest, "no_badges_configured", "you have not configured badges yet"},
		{badge.ErrInvalidBadge, http.StatusBadRequest, "invalid_badge", "badge is not in the customer's configured set"},
		{badge.ErrLimitExceeded, http.StatusBadRequest, "limit_exceeded", "maximum 2 badges allowed per user"},
		{badge.ErrCountMismatch, http.StatusBadRequest, "count_mismatch", "number of old and new badges must be the same"},
		{badge.ErrBadgeNotOwned, http.StatusBadRequest, "badge_not_owned", "user does not have all the old badges to be updated"},
	} {
		if errors.Is(err, m.target) {
			return c.JSON(m.status, map[string]string{"error": m.kind, "description": m.desc})
		}
	}

	log.Errorf("badge operation failed: %v", err)

	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
}
