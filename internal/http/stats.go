package http

import (
	"net/http"
	"strconv"

	"github.com/jmehdipour/sms-panel/internal/http/middleware"
	"github.com/jmehdipour/sms-panel/internal/service/stats"
	echo "github.com/labstack/echo/v4"
)

// scopeOf picks whose numbers a stats call covers: admins see everything
// unless they ask for one account, everybody else sees their own.
func scopeOf(c echo.Context) (*int64, bool) {
	id, _ := middleware.IdentityFromCtx(c)
	if !id.IsAdmin() {
		own := id.AccountID
		return &own, true
	}
	raw := c.QueryParam("account_id")
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return nil, false
	}
	return &n, true
}

func dashboardStatsHandler(svc *stats.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		scope, ok := scopeOf(c)
		if !ok {
			return badRequest(c, "invalid account_id")
		}
		d, err := svc.DashboardStats(c.Request().Context(), scope)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, d)
	}
}

func userStatsHandler(svc *stats.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		u, err := svc.UserStats(c.Request().Context())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, u)
	}
}

func smsSeriesHandler(svc *stats.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		scope, ok := scopeOf(c)
		if !ok {
			return badRequest(c, "invalid account_id")
		}
		series, err := svc.SMSTimeSeries(c.Request().Context(), scope)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, series)
	}
}
